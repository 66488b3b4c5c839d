package main

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vidsort/vidsort/internal/contactsheet"
	"github.com/vidsort/vidsort/internal/fsx"
)

func newSheetCommand(ctx *commandContext) *cobra.Command {
	var output string
	var full bool
	var quality int

	cmd := &cobra.Command{
		Use:   "sheet <video>",
		Short: "Render one contact sheet",
		Long: `Sample frames evenly from a video and tile them into a single image.
The output format follows the file extension (.png or .jpg). Unless --full is
given the sheet is scaled down to fit --width x --height.`,
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

			src := args[0]
			if output == "" {
				output = strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)) + ".jpg"
			}

			sheet, err := gen.Generate(cmd.Context(), src, cfg.SampleCount())
			if err != nil {
				return err
			}

			var img image.Image = sheet.Image
			if !full {
				img = sheet.Thumbnail(cfg.ThumbWidth(), cfg.ThumbHeight())
			}
			if _, err := writeImage(output, img, quality); err != nil {
				return err
			}

			b := img.Bounds()
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %dx%d grid, %dx%d px\n", output, sheet.Rows(), sheet.Cols(), b.Dx(), b.Dy())
			if len(sheet.Failed) > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %d of %d frames could not be decoded\n", len(sheet.Failed), len(sheet.Plan.Indices))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output image path (default <video name>.jpg)")
	cmd.Flags().BoolVar(&full, "full", false, "Write the sheet at full resolution")
	cmd.Flags().IntVar(&quality, "quality", contactsheet.DefaultJPEGQuality, "JPEG quality 1-100")

	return cmd
}

// writeImage encodes img by the extension of path, replaces path atomically
// and returns the number of bytes written.
func writeImage(path string, img image.Image, quality int) (int, error) {
	var buf bytes.Buffer
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		err = contactsheet.EncodePNG(&buf, img)
	case ".jpg", ".jpeg", "":
		err = contactsheet.EncodeJPEG(&buf, img, quality)
	default:
		return 0, fmt.Errorf("unsupported output format %q: use .jpg or .png", filepath.Ext(path))
	}
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", path, err)
	}
	if err := fsx.WriteFileAtomic(filepath.Dir(path), filepath.Base(path), buf.Bytes()); err != nil {
		return 0, err
	}
	return buf.Len(), nil
}
