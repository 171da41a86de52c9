// Package config loads settings for the sheetbridge command. Values come
// from struct defaults, then an optional YAML file, then SHEETBRIDGE_*
// environment variables, and are validated before use.
package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/charset"
)

// Config holds all settings.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Limits  LimitsConfig  `yaml:"limits"`
	CSV     CSVConfig     `yaml:"csv"`
	PDF     PDFConfig     `yaml:"pdf"`
	Server  ServerConfig  `yaml:"server"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level" env:"SHEETBRIDGE_LOG_LEVEL" default:"info"`
	// Format is text or json.
	Format string `yaml:"format" env:"SHEETBRIDGE_LOG_FORMAT" default:"text"`
}

// LimitsConfig holds input limits.
type LimitsConfig struct {
	// MaxFileSize is the largest accepted input in bytes (default: 50MiB).
	MaxFileSize int64 `yaml:"max_file_size" env:"SHEETBRIDGE_MAX_FILE_SIZE" default:"52428800"`
}

// CSVConfig holds delimited-text output settings.
type CSVConfig struct {
	// Encoding is the default output encoding.
	Encoding string `yaml:"encoding" env:"SHEETBRIDGE_CSV_ENCODING" default:"utf-8"`
}

// PDFConfig holds paginated-document settings.
type PDFConfig struct {
	// FontSource is an http(s) URL or file path of a TrueType font. Empty
	// means the built-in Latin font.
	FontSource string `yaml:"font_source" env:"SHEETBRIDGE_PDF_FONT"`
	// FontTimeout bounds the font download.
	FontTimeout time.Duration `yaml:"font_timeout" env:"SHEETBRIDGE_PDF_FONT_TIMEOUT" default:"30s"`
	// FontMaxBytes bounds the font size (default: 32MiB).
	FontMaxBytes int64 `yaml:"font_max_bytes" env:"SHEETBRIDGE_PDF_FONT_MAX_BYTES" default:"33554432"`
}

// ServerConfig holds settings for the local HTTP surface.
type ServerConfig struct {
	// Addr is the listen address. Only loopback hosts are accepted.
	Addr string `yaml:"addr" env:"SHEETBRIDGE_ADDR" default:"127.0.0.1:8787"`
	// ReadTimeout bounds reading a request.
	ReadTimeout time.Duration `yaml:"read_timeout" env:"SHEETBRIDGE_READ_TIMEOUT" default:"30s"`
	// WriteTimeout bounds writing a response.
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SHEETBRIDGE_WRITE_TIMEOUT" default:"120s"`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHEETBRIDGE_SHUTDOWN_TIMEOUT" default:"10s"`
}

// Validate checks that the configuration is usable.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("log level (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("log format (%q) must be one of: text, json", c.Logging.Format))
	}

	if c.Limits.MaxFileSize <= 0 {
		errs = append(errs, "max file size must be positive")
	}
	if _, err := charset.ParseEncoding(c.CSV.Encoding); err != nil {
		errs = append(errs, fmt.Sprintf("csv encoding: %v", err))
	}

	if c.PDF.FontTimeout <= 0 {
		errs = append(errs, "pdf font timeout must be positive")
	}
	if c.PDF.FontMaxBytes <= 0 {
		errs = append(errs, "pdf font max bytes must be positive")
	}

	if err := checkLoopback(c.Server.Addr); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		errs = append(errs, "server timeouts must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "server shutdown timeout must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// checkLoopback rejects listen addresses that are reachable from other hosts.
func checkLoopback(addr string) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("server addr (%q): %v", addr, err)
	}
	if strings.EqualFold(host, "localhost") {
		return nil
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return nil
	}
	return fmt.Errorf("server addr (%q) must be a loopback address", addr)
}

// String returns a one-line summary for logging.
func (c *Config) String() string {
	font := "builtin"
	if c.PDF.FontSource != "" {
		font = c.PDF.FontSource
	}
	return fmt.Sprintf("Config{Logging: {Level: %q, Format: %q}, MaxFileSize: %d, CSVEncoding: %q, PDFFont: %q, Server: {Addr: %q}}",
		c.Logging.Level, c.Logging.Format, c.Limits.MaxFileSize, c.CSV.Encoding, font, c.Server.Addr)
}
