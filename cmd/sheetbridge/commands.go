package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/charset"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/models"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/output"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/security"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/validate"
)

func newOpenCmd(g *globals) *cobra.Command {
	var (
		outputPath string
		pretty     bool
		sheetsDir  string
	)
	cmd := &cobra.Command{
		Use:   "open <file>",
		Short: "Convert an xlsx, xls or csv file to workbook snapshot JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := sheetbridge.OpenFile(args[0], g.openOptions())
			if err != nil {
				return err
			}
			if res.Encoding != nil {
				if note := sheetbridge.Notice(sheetbridge.Document{Encoding: res.Encoding}); note != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), note)
				}
			}

			jsonData, err := output.ToJSON(res.Snapshot, pretty)
			if err != nil {
				return fmt.Errorf("serialization failed: %w", err)
			}
			if outputPath != "" {
				if err := os.WriteFile(outputPath, jsonData, 0o644); err != nil {
					return fmt.Errorf("failed to write output: %w", err)
				}
			} else if sheetsDir == "" {
				fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
			}

			if sheetsDir != "" {
				if err := writeSheetFiles(res.Snapshot, sheetsDir, pretty); err != nil {
					return fmt.Errorf("failed to write sheet files: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	cmd.Flags().StringVar(&sheetsDir, "sheets-dir", "", "Directory for per-sheet output files")
	return cmd
}

func newSaveCmd(g *globals) *cobra.Command {
	var (
		outputPath string
		format     string
	)
	cmd := &cobra.Command{
		Use:   "save <snapshot.json>",
		Short: "Write a workbook snapshot as xlsx, csv or pdf",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			saveFormat, err := sheetbridge.ParseSaveFormat(format)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read snapshot: %w", err)
			}
			wb, err := output.FromJSON(data)
			if err != nil {
				return err
			}
			if outputPath == "" {
				outputPath = filepath.Join(filepath.Dir(args[0]), sheetbridge.DefaultFileName(wb.Name, saveFormat))
			}
			return g.save(cmd, wb, saveFormat, outputPath)
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: derived from the workbook name)")
	cmd.Flags().StringVarP(&format, "format", "f", string(sheetbridge.SaveXLSX), "Output format: xlsx, csv, pdf")
	return cmd
}

func newConvertCmd(g *globals) *cobra.Command {
	var (
		outputPath string
		format     string
	)
	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Convert an xlsx, xls or csv file to xlsx, csv or pdf",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputPath := args[0]
			res, err := sheetbridge.OpenFile(inputPath, g.openOptions())
			if err != nil {
				return err
			}

			saveFormat := sheetbridge.DefaultSaveFormat(res.Format)
			if format != "" {
				if saveFormat, err = sheetbridge.ParseSaveFormat(format); err != nil {
					return err
				}
			}
			if outputPath == "" {
				outputPath = filepath.Join(filepath.Dir(inputPath), sheetbridge.DefaultFileName(inputPath, saveFormat))
			}
			if sameFile(inputPath, outputPath) {
				return fmt.Errorf("output %s would overwrite the input; use -o", outputPath)
			}
			return g.save(cmd, res.Snapshot, saveFormat, outputPath)
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: next to the input)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: xlsx, csv, pdf (default: csv for csv input, xlsx otherwise)")
	return cmd
}

// save exports wb and writes it to path.
func (g *globals) save(cmd *cobra.Command, wb *models.WorkbookSnapshot, format sheetbridge.SaveFormat, path string) error {
	opts := g.saveOptions()
	opts.OnScan = func(res security.Result) {
		if res.Found {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %d cell(s) start with a formula character\n", len(res.Flagged))
		}
	}
	blob, err := sheetbridge.Save(wb, format, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, blob.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func newDetectCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "detect <file>",
		Short: "Detect the text encoding of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readLimited(args[0], g.cfg.Limits.MaxFileSize)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), charset.Detect(data))
		},
	}
}

func newValidateCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a file's extension, size and signature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			format, err := validate.FormatOf(path)
			if err != nil {
				return err
			}
			data, err := readLimited(path, g.cfg.Limits.MaxFileSize)
			if err != nil {
				return err
			}
			v := validate.Validator{MaxSize: g.cfg.Limits.MaxFileSize}
			if err := v.ValidateFile(filepath.Base(path), data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %s (%d bytes)\n", format, len(data))
			return nil
		},
	}
}

func newScanCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "scan <file>",
		Short: "Report cells that would be read as formulas in delimited text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := sheetbridge.OpenFile(args[0], g.openOptions())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), sheetbridge.ScanWorkbook(res.Snapshot))
		},
	}
}

// readLimited reads path after checking its size against limit.
func readLimited(path string, limit int64) ([]byte, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", sheetbridge.ErrFileNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	if err := (validate.Validator{MaxSize: limit}).ValidateSize(info.Size()); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func writeSheetFiles(wb *models.WorkbookSnapshot, dir string, pretty bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, sheet := range wb.OrderedSheets() {
		jsonData, err := output.SheetToJSON(sheet, pretty)
		if err != nil {
			return err
		}
		filename := filepath.Join(dir, sheet.ID+".json")
		if err := os.WriteFile(filename, jsonData, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}
