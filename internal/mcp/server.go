// Package mcp exposes SAR address extraction as MCP tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/connectfiber/sar-extractor/internal/config"
	"github.com/connectfiber/sar-extractor/internal/descriptions"
	"github.com/connectfiber/sar-extractor/internal/pdf"
)

const maxListedFiles = 10

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	mcpServer  *server.MCPServer
	logger     *slog.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		mcpServer:  mcpServer,
		logger:     logger,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	extractAddressTool := mcp.NewTool(
		descriptions.ExtractAddressTool,
		mcp.WithDescription(descriptions.ExtractAddressDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the SAR PDF file, absolute or relative to the configured directory"),
		),
	)
	s.mcpServer.AddTool(extractAddressTool, s.handleExtractAddress)

	extractDirectoryTool := mcp.NewTool(
		descriptions.ExtractDirectoryTool,
		mcp.WithDescription(descriptions.ExtractDirectoryDescription),
		mcp.WithString("directory",
			mcp.Description("Directory to process (uses the configured directory if empty)"),
		),
	)
	s.mcpServer.AddTool(extractDirectoryTool, s.handleExtractDirectory)

	serverInfoTool := mcp.NewTool(
		descriptions.ServerInfoTool,
		mcp.WithDescription(descriptions.ServerInfoDescription),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handleServerInfo)
}

func (s *Server) handleExtractAddress(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.ExtractFile(ctx, path)
	if err != nil {
		s.logger.Warn("tool call rejected", "tool", descriptions.ExtractAddressTool, "path", path, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(result)
}

func (s *Server) handleExtractDirectory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	directory := ""
	if dir, ok := args["directory"].(string); ok {
		directory = dir
	}

	batch, err := s.pdfService.ExtractDirectory(ctx, directory)
	if err != nil {
		s.logger.Warn("tool call rejected", "tool", descriptions.ExtractDirectoryTool, "directory", directory, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(batch)
}

func (s *Server) handleServerInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := s.pdfService.FindPDFs()
	if err != nil {
		s.logger.Warn("cannot list PDF directory", "error", err)
	}
	return mcp.NewToolResultText(s.formatServerInfo(files)), nil
}

func (s *Server) formatServerInfo(files []pdf.FileInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	fmt.Fprintf(&b, "Directory: %s\n", s.pdfService.Directory())
	fmt.Fprintf(&b, "Max File Size: %d MB\n", s.pdfService.GetMaxFileSize()/(1024*1024))
	if timeout := s.pdfService.Timeout(); timeout > 0 {
		fmt.Fprintf(&b, "Extraction Timeout: %s\n", timeout)
	} else {
		b.WriteString("Extraction Timeout: none\n")
	}
	b.WriteString("\n")

	if len(files) > 0 {
		fmt.Fprintf(&b, "Directory Contents (%d PDF files found):\n", len(files))
		for i, file := range files {
			if i >= maxListedFiles {
				fmt.Fprintf(&b, "   ... and %d more files\n", len(files)-maxListedFiles)
				break
			}
			fmt.Fprintf(&b, "   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
	} else {
		b.WriteString("Directory Contents: No PDF files found\n")
	}

	b.WriteString("\nAvailable Tools:\n")
	for _, name := range descriptions.GetAllToolNames() {
		summary, _, _ := strings.Cut(descriptions.GetToolDescription(name), "\n")
		fmt.Fprintf(&b, "• %s: %s\n", name, summary)
	}

	return b.String()
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// Run serves MCP over the process stdin and stdout until ctx is done or
// stdin is closed.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Debug("Starting SAR MCP server in stdio mode", "directory", s.pdfService.Directory())
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve speaks MCP over the given streams.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))

	err := stdio.Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
