package contactsheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vidsort/vidsort/internal/video"
)

var ErrOpenSource = errors.New("cannot open video source")

// FrameReader is the decoder the generator samples from.
type FrameReader interface {
	Open(ctx context.Context, path string) (video.Source, error)
	ReadFrame(ctx context.Context, src video.Source, index int) (*video.Frame, error)
}

// Generator builds contact sheets. It is safe for concurrent use when the
// underlying FrameReader is.
type Generator struct {
	reader FrameReader
	tiling Tiling
	logger *slog.Logger
}

func NewGenerator(reader FrameReader, tiling Tiling, logger *slog.Logger) *Generator {
	if tiling == "" {
		tiling = TilingLegacy
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{reader: reader, tiling: tiling, logger: logger}
}

// Tiling returns the configured tiling mode.
func (g *Generator) Tiling() Tiling {
	return g.tiling
}

// Generate samples count frames from path and tiles them into one image. A
// frame that fails to decode leaves its cell black; only an unopenable video,
// one with no frames, or one whose sheet would exceed MaxSheetPixels fails
// the whole sheet.
func (g *Generator) Generate(ctx context.Context, path string, count int) (*Sheet, error) {
	if count < 1 || count > MaxSampleCount {
		return nil, ErrInvalidCount
	}

	src, err := g.reader.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenSource, err)
	}
	if src.FrameCount < 1 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoFrames)
	}

	plan, err := NewPlan(count, src.FrameCount, g.tiling)
	if err != nil {
		return nil, err
	}
	sheet, err := NewSheet(src, plan)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	for pos, idx := range plan.Indices {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if idx < 0 {
			continue
		}

		frame, err := g.reader.ReadFrame(ctx, src, idx)
		if err == nil {
			err = sheet.Place(pos, frame)
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			g.logger.Debug("frame decode failed",
				"path", path,
				"frame", idx,
				"error", err,
			)
			sheet.Failed = append(sheet.Failed, pos)
			continue
		}
		sheet.Decoded++
	}

	if len(sheet.Failed) > 0 {
		g.logger.Warn("contact sheet has blank cells",
			"path", path,
			"failed", len(sheet.Failed),
			"decoded", sheet.Decoded,
		)
	}
	return sheet, nil
}
