package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/connectfiber/sar-extractor/internal/api"
	"github.com/connectfiber/sar-extractor/internal/config"
	"github.com/connectfiber/sar-extractor/internal/mcp"
	"github.com/connectfiber/sar-extractor/internal/pdf"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// newLogger builds the slog logger for cfg writing to w
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	// stdout carries the MCP protocol in stdio mode, stay quiet unless debugging
	if cfg.IsStdioMode() && !cfg.IsDebug() {
		return slog.New(slog.DiscardHandler)
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	if cfg.LogFormat == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// setupLogging configures logging based on the server mode
func setupLogging(cfg *config.Config) *slog.Logger {
	logger := newLogger(cfg, os.Stderr).With("service", cfg.ServerName)
	slog.SetDefault(logger)

	if cfg.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	return logger
}

// runServerMode serves the HTTP API until a signal or a server error
func runServerMode(ctx context.Context, cancel context.CancelFunc, server *api.Server, logger *slog.Logger) error {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signalCh)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Start(ctx)
	}()

	select {
	case sig := <-signalCh:
		logger.Info("Received signal", "signal", sig.String())
		cancel()

		if err := <-serverErrCh; err != nil {
			return fmt.Errorf("server shutdown with error: %w", err)
		}

	case err := <-serverErrCh:
		if err != nil {
			return err
		}
	}

	logger.Info("Server stopped successfully")
	return nil
}

// runStdioMode serves MCP until stdin closes or a signal arrives
func runStdioMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server) error {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalCh)

	go func() {
		select {
		case <-signalCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	return server.Run(ctx)
}

func newService(cfg *config.Config, logger *slog.Logger) (*pdf.Service, error) {
	opts := pdf.Options{
		MaxFileSize: cfg.MaxUploadBytes(),
		Timeout:     cfg.ExtractionTimeout,
		Workers:     cfg.Workers,
		Logger:      logger,
	}
	if cfg.IsStdioMode() {
		opts.Directory = cfg.PDFDirectory
	}
	return pdf.NewService(opts)
}

func run(cfg *config.Config, logger *slog.Logger) error {
	pdfService, err := newService(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create extraction service: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.IsServerMode() {
		server, err := api.NewServer(cfg, pdfService, logger)
		if err != nil {
			return fmt.Errorf("failed to create HTTP server: %w", err)
		}
		return runServerMode(ctx, cancel, server, logger)
	}

	server, err := mcp.NewServer(cfg, pdfService, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	return runStdioMode(ctx, cancel, server)
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion(os.Stdout)
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(2)
	}

	if version != "dev" {
		cfg.Version = version
	}

	logger := setupLogging(cfg)
	logger.Debug("Starting with configuration", "config", cfg.String())
	if cfg.IsServerMode() {
		logger.Info("Starting SAR address extraction service",
			"address", cfg.Address(),
			"version", cfg.Version,
			"max_upload_mb", cfg.MaxUploadMB,
			"extraction_timeout", cfg.ExtractionTimeout,
		)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "SAR Address Extractor\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
