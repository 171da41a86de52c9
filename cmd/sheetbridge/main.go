// Package main provides the CLI entry point for sheetbridge.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/ukaji3/sheetbridge-go/internal/config"
	"github.com/ukaji3/sheetbridge-go/internal/logging"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/charset"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/export"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/models"
)

// globals holds the persistent flags and the state they resolve to.
type globals struct {
	configPath string
	logLevel   string
	logFormat  string
	encoding   string
	sheet      string

	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if sheetbridge.IsUserFacing(err) {
			fmt.Fprintln(os.Stderr, sheetbridge.Message(err))
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	rootCmd := &cobra.Command{
		Use:   "sheetbridge",
		Short: "Convert spreadsheets and delimited text to and from workbook snapshots",
		Long: `sheetbridge opens xlsx, xls and csv files as workbook snapshot JSON
and saves snapshots back as xlsx, csv or pdf.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: g.setup,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&g.configPath, "config", "", "YAML config file")
	flags.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&g.logFormat, "log-format", "", "Log format: text, json")
	flags.StringVar(&g.encoding, "encoding", "", "Text encoding: utf-8, shift_jis, euc-jp (default: detect on input, config on output)")
	flags.StringVar(&g.sheet, "sheet", "", "Sheet id for csv output (default: first sheet)")

	rootCmd.AddCommand(
		newOpenCmd(g),
		newSaveCmd(g),
		newConvertCmd(g),
		newDetectCmd(g),
		newValidateCmd(g),
		newScanCmd(g),
		newServeCmd(g),
	)
	return rootCmd
}

// setup loads the configuration, applies flag overrides and installs the
// logger.
func (g *globals) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return err
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Logging.Format = g.logFormat
	}
	if g.encoding != "" {
		if _, err := charset.ParseEncoding(g.encoding); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	g.cfg = cfg
	g.logger = logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	g.logger.Debug("configuration loaded", "config", cfg.String())
	return nil
}

// inputEncoding is the forced input encoding, "" to detect.
func (g *globals) inputEncoding() models.Encoding {
	enc, _ := charset.ParseEncoding(g.encoding)
	return enc
}

// outputEncoding is the csv output encoding.
func (g *globals) outputEncoding() models.Encoding {
	if enc := g.inputEncoding(); enc != "" {
		return enc
	}
	enc, _ := charset.ParseEncoding(g.cfg.CSV.Encoding)
	return enc
}

func (g *globals) openOptions() sheetbridge.Options {
	return sheetbridge.Options{
		Encoding:    g.inputEncoding(),
		MaxFileSize: g.cfg.Limits.MaxFileSize,
		Logger:      g.logger,
	}
}

func (g *globals) saveOptions() sheetbridge.SaveOptions {
	return sheetbridge.SaveOptions{
		SheetID:  g.sheet,
		Encoding: g.outputEncoding(),
		Fonts:    fontCache(g.cfg),
		Logger:   g.logger,
	}
}

// fontCache returns the pdf font cache, or nil for the built-in font.
func fontCache(cfg *config.Config) *export.FontCache {
	if cfg.PDF.FontSource == "" {
		return nil
	}
	return export.NewFontCache(export.FontSource{
		Location: cfg.PDF.FontSource,
		Timeout:  cfg.PDF.FontTimeout,
		MaxBytes: cfg.PDF.FontMaxBytes,
	})
}
