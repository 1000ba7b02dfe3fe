package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Log formats
	LogFormatText = "text"
	LogFormatJSON = "json"

	// Default values
	DefaultPort              = 5001
	DefaultHost              = "0.0.0.0"
	DefaultLogLevel          = "info"
	DefaultLogFormat         = LogFormatText
	DefaultAllowedOrigins    = "*"
	DefaultMaxUploadMB       = 50
	DefaultExtractionTimeout = 60 * time.Second
	DefaultWorkers           = 4
	DefaultRateLimit         = 10.0
	DefaultRateBurst         = 20

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "SAR"
)

// Config holds all configuration for the SAR extraction service
type Config struct {
	// Server configuration
	Mode           string // "server" or "stdio"
	Host           string
	Port           int
	AllowedOrigins []string
	RateLimit      float64 // requests per second per client, 0 disables
	RateBurst      int

	// Extraction configuration
	MaxUploadMB       int64
	ExtractionTimeout time.Duration
	Workers           int
	PDFDirectory      string // root for file based extraction in stdio mode

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
	LogFormat  string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:              ModeServer,
		Host:              DefaultHost,
		Port:              DefaultPort,
		AllowedOrigins:    []string{DefaultAllowedOrigins},
		RateLimit:         DefaultRateLimit,
		RateBurst:         DefaultRateBurst,
		MaxUploadMB:       DefaultMaxUploadMB,
		ExtractionTimeout: DefaultExtractionTimeout,
		Workers:           DefaultWorkers,
		PDFDirectory:      currentDir,
		Version:           "1.0.0",
		ServerName:        "sar-address-extraction",
		LogLevel:          DefaultLogLevel,
		LogFormat:         DefaultLogFormat,
	}
}

// LoadFromFlags parses command line flags and environment variables and
// returns a validated configuration. Flags win over environment variables.
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	pflag.Parse()

	populateConfigFromViper(cfg)

	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Hosting platforms usually inject a bare PORT
	_ = viper.BindEnv("port", envPrefix+"_PORT", "PORT")

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("allowed_origins", strings.Join(cfg.AllowedOrigins, ","))
	viper.SetDefault("rate_limit", cfg.RateLimit)
	viper.SetDefault("rate_burst", cfg.RateBurst)
	viper.SetDefault("max_upload_mb", cfg.MaxUploadMB)
	viper.SetDefault("extraction_timeout", cfg.ExtractionTimeout)
	viper.SetDefault("workers", cfg.Workers)
	viper.SetDefault("dir", cfg.PDFDirectory)
	viper.SetDefault("log_level", cfg.LogLevel)
	viper.SetDefault("log_format", cfg.LogFormat)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Run mode: 'server' for the HTTP API, 'stdio' for MCP over standard I/O")
	pflag.String("host", cfg.Host, "Listen address (server mode only)")
	pflag.Int("port", cfg.Port, "Listen port (server mode only)")
	pflag.String("allowed-origins", strings.Join(cfg.AllowedOrigins, ","), "Comma separated CORS origins, '*' for any")
	pflag.Float64("rate-limit", cfg.RateLimit, "Requests per second allowed per client, 0 disables limiting")
	pflag.Int("rate-burst", cfg.RateBurst, "Burst size for the per-client rate limiter")
	pflag.Int64("max-upload-mb", cfg.MaxUploadMB, "Maximum upload size in megabytes")
	pflag.Duration("extraction-timeout", cfg.ExtractionTimeout, "Deadline for extracting one document, 0 disables it")
	pflag.Int("workers", cfg.Workers, "Documents extracted concurrently per batch")
	pflag.String("dir", cfg.PDFDirectory, "Directory readable by the MCP tools (stdio mode)")
	pflag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.String("log-format", cfg.LogFormat, "Log format (text, json)")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	_ = viper.BindPFlag("mode", pflag.Lookup("mode"))
	_ = viper.BindPFlag("host", pflag.Lookup("host"))
	_ = viper.BindPFlag("port", pflag.Lookup("port"))
	_ = viper.BindPFlag("allowed_origins", pflag.Lookup("allowed-origins"))
	_ = viper.BindPFlag("rate_limit", pflag.Lookup("rate-limit"))
	_ = viper.BindPFlag("rate_burst", pflag.Lookup("rate-burst"))
	_ = viper.BindPFlag("max_upload_mb", pflag.Lookup("max-upload-mb"))
	_ = viper.BindPFlag("extraction_timeout", pflag.Lookup("extraction-timeout"))
	_ = viper.BindPFlag("workers", pflag.Lookup("workers"))
	_ = viper.BindPFlag("dir", pflag.Lookup("dir"))
	_ = viper.BindPFlag("log_level", pflag.Lookup("log-level"))
	_ = viper.BindPFlag("log_format", pflag.Lookup("log-format"))
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nSAR Address Extraction - extracts address, NPA and commune from SAR PDF documents\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                        # HTTP API on 0.0.0.0:5001\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --port=8080 --allowed-origins=https://app.example.ch\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=stdio --dir=/srv/sar             # MCP tools over stdio\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  SAR_MODE                Run mode\n")
		fmt.Fprintf(os.Stderr, "  SAR_HOST                Listen address\n")
		fmt.Fprintf(os.Stderr, "  SAR_PORT, PORT          Listen port\n")
		fmt.Fprintf(os.Stderr, "  SAR_ALLOWED_ORIGINS     CORS origins\n")
		fmt.Fprintf(os.Stderr, "  SAR_RATE_LIMIT          Requests per second per client\n")
		fmt.Fprintf(os.Stderr, "  SAR_RATE_BURST          Rate limiter burst\n")
		fmt.Fprintf(os.Stderr, "  SAR_MAX_UPLOAD_MB       Maximum upload size\n")
		fmt.Fprintf(os.Stderr, "  SAR_EXTRACTION_TIMEOUT  Per-document deadline (e.g. 60s)\n")
		fmt.Fprintf(os.Stderr, "  SAR_WORKERS             Concurrent extractions per batch\n")
		fmt.Fprintf(os.Stderr, "  SAR_DIR                 MCP directory\n")
		fmt.Fprintf(os.Stderr, "  SAR_LOG_LEVEL           Log level\n")
		fmt.Fprintf(os.Stderr, "  SAR_LOG_FORMAT          Log format\n")
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.AllowedOrigins = SplitList(viper.GetString("allowed_origins"))
	cfg.RateLimit = viper.GetFloat64("rate_limit")
	cfg.RateBurst = viper.GetInt("rate_burst")
	cfg.MaxUploadMB = viper.GetInt64("max_upload_mb")
	cfg.ExtractionTimeout = viper.GetDuration("extraction_timeout")
	cfg.Workers = viper.GetInt("workers")
	cfg.PDFDirectory = viper.GetString("dir")
	cfg.LogLevel = strings.ToLower(viper.GetString("log_level"))
	cfg.LogFormat = strings.ToLower(viper.GetString("log_format"))
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.MaxUploadMB <= 0 {
		return errors.New("maximum upload size must be positive")
	}

	if c.ExtractionTimeout < 0 {
		return errors.New("extraction timeout cannot be negative")
	}

	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}

	if c.RateLimit < 0 {
		return errors.New("rate limit cannot be negative")
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		return errors.New("rate burst must be at least 1 when rate limiting is enabled")
	}

	if c.Mode == ModeServer && len(c.AllowedOrigins) == 0 {
		return errors.New("at least one allowed origin is required")
	}

	if c.Mode == ModeStdio {
		if err := c.ensureDirectory(); err != nil {
			return err
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		return fmt.Errorf("invalid log format: %s (must be one of: text, json)", c.LogFormat)
	}

	return nil
}

// ensureDirectory checks the MCP directory, creating it when missing
func (c *Config) ensureDirectory() error {
	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}

	if _, err := os.Stat(c.PDFDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.PDFDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create PDF directory %s: %w", c.PDFDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
	}
	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MaxUploadBytes returns the upload ceiling in bytes
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB * 1024 * 1024
}

// AllowsAnyOrigin reports whether CORS is open to every origin
func (c *Config) AllowsAnyOrigin() bool {
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, AllowedOrigins: %v, MaxUploadMB: %d, "+
		"ExtractionTimeout: %s, Workers: %d, RateLimit: %g/%d, PDFDirectory: %s, LogLevel: %s, LogFormat: %s}",
		c.Mode, c.Host, c.Port, c.AllowedOrigins, c.MaxUploadMB,
		c.ExtractionTimeout, c.Workers, c.RateLimit, c.RateBurst, c.PDFDirectory, c.LogLevel, c.LogFormat)
}

// IsServerMode returns true if the service runs the HTTP API
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the service runs MCP over stdio
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
