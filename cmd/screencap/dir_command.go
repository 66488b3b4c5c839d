package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/vidsort/vidsort/internal/contactsheet"
	"github.com/vidsort/vidsort/internal/organizer"
)

type dirResult struct {
	source string
	output string
	rows   int
	cols   int
	failed int
	bytes  int
	err    error
}

func newDirCommand(ctx *commandContext) *cobra.Command {
	var output string
	var quality int

	cmd := &cobra.Command{
		Use:   "dir <folder>",
		Short: "Render a contact sheet for every file under a folder",
		Long: `Walk a folder recursively, skipping hidden entries, and write one sheet per
file into the output directory. Sheets fit 800x800 unless --width or --height
is given. Files that cannot be decoded are reported and skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			gen, err := ctx.generator()
			if err != nil {
				return err
			}

			root := args[0]
			if fi, err := os.Stat(root); err != nil {
				return err
			} else if !fi.IsDir() {
				return fmt.Errorf("%w: %s", organizer.ErrNotDirectory, root)
			}
			if output == "" {
				output = "screencaps"
			}

			files, err := organizer.CollectFlat(root)
			if err != nil {
				return fmt.Errorf("walk %s: %w", root, err)
			}
			if len(files) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no files under %s\n", root)
				return nil
			}

			w, h := organizer.DefaultViewerSize, organizer.DefaultViewerSize
			if ctx.width > 0 || ctx.height > 0 {
				w, h = cfg.ThumbWidth(), cfg.ThumbHeight()
			}

			bar := newProgressBar(cmd.ErrOrStderr(), len(files))
			names := newNameSet()
			results := make([]dirResult, 0, len(files))
			for _, path := range files {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				dst := filepath.Join(output, names.next(root, path))
				results = append(results, renderFile(cmd.Context(), gen, path, dst, cfg.SampleCount(), w, h, quality))
				if bar != nil {
					_ = bar.Add(1)
				}
			}
			if bar != nil {
				_ = bar.Finish()
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderResults(root, results))

			failed := 0
			for _, r := range results {
				if r.err != nil {
					failed++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d sheets written to %s, %d failed\n", len(results)-failed, output, failed)
			if failed == len(results) {
				return fmt.Errorf("no sheets could be rendered")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (default ./screencaps)")
	cmd.Flags().IntVar(&quality, "quality", contactsheet.DefaultJPEGQuality, "JPEG quality 1-100")

	return cmd
}

func renderFile(ctx context.Context, gen *contactsheet.Generator, src, dst string, count, w, h, quality int) dirResult {
	res := dirResult{source: src, output: dst}
	sheet, err := gen.Generate(ctx, src, count)
	if err != nil {
		res.err = err
		return res
	}
	res.rows, res.cols = sheet.Rows(), sheet.Cols()
	res.failed = len(sheet.Failed)
	res.bytes, res.err = writeImage(dst, sheet.Thumbnail(w, h), quality)
	return res
}

// newProgressBar returns nil when w is not a terminal so piped output stays
// clean.
func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	f, ok := w.(*os.File)
	if !ok || !(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Rendering"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionClearOnFinish(),
	)
}

// nameSet flattens relative paths into unique sheet file names.
type nameSet map[string]int

func newNameSet() nameSet {
	return make(nameSet)
}

func (s nameSet) next(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	base := organizer.SanitizeName(strings.ReplaceAll(rel, string(filepath.Separator), "__"), 120)
	if base == "" {
		base = "sheet"
	}
	s[base]++
	if n := s[base]; n > 1 {
		base += "-" + strconv.Itoa(n)
	}
	return base + ".jpg"
}

func renderResults(root string, results []dirResult) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rel, err := filepath.Rel(root, r.source)
		if err != nil {
			rel = r.source
		}
		if r.err != nil {
			rows = append(rows, []string{rel, "-", "-", "-", "error: " + r.err.Error()})
			continue
		}
		status := "ok"
		if r.failed > 0 {
			status = fmt.Sprintf("%d blank cells", r.failed)
		}
		rows = append(rows, []string{
			rel,
			fmt.Sprintf("%dx%d", r.rows, r.cols),
			humanize.Bytes(uint64(r.bytes)),
			filepath.Base(r.output),
			status,
		})
	}
	return renderTable(
		[]string{"File", "Grid", "Size", "Sheet", "Status"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft},
	)
}
