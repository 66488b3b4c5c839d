// Package contactsheet samples evenly spaced frames from a video and tiles
// them into a single composite image.
package contactsheet

import (
	"errors"
	"fmt"
	"image"
	"strings"
)

const (
	MaxSampleCount = 400
	// MaxSheetPixels bounds the full-size canvas at 512 MiB of RGBA. Sixteen
	// 4K frames fit; a corrupt header claiming absurd dimensions does not.
	MaxSheetPixels = 1 << 27
)

var (
	ErrInvalidCount  = errors.New("sample count must be between 1 and 400")
	ErrNoFrames      = errors.New("video reports no frames")
	ErrSheetTooLarge = errors.New("contact sheet exceeds size limit")
)

// Tiling selects how the sample count maps onto rows and columns.
type Tiling string

const (
	// TilingLegacy uses rows = floor(sqrt(n)) and cols = floor(n/rows). Counts
	// that are not a rows×cols rectangle lose their trailing samples.
	TilingLegacy Tiling = "legacy"
	// TilingExact rounds cols up so every sample gets a cell; surplus cells
	// stay blank.
	TilingExact Tiling = "exact"
)

// ParseTiling accepts "legacy", "exact" or "" (legacy).
func ParseTiling(s string) (Tiling, error) {
	switch Tiling(strings.ToLower(strings.TrimSpace(s))) {
	case "", TilingLegacy:
		return TilingLegacy, nil
	case TilingExact:
		return TilingExact, nil
	default:
		return "", fmt.Errorf("unknown tiling %q", s)
	}
}

// Grid returns the row and column count for count samples.
func Grid(count int, tiling Tiling) (rows, cols int) {
	if count < 1 {
		return 0, 0
	}
	rows = isqrt(count)
	if tiling == TilingExact {
		cols = (count + rows - 1) / rows
	} else {
		cols = count / rows
	}
	return rows, cols
}

func isqrt(n int) int {
	r := 0
	for (r+1)*(r+1) <= n {
		r++
	}
	return r
}

// SampleIndex is the frame sampled for grid position pos. Truncating
// division can repeat or skip frames near the edges of short videos.
func SampleIndex(pos, totalFrames, count int) int {
	return int(int64(pos) * int64(totalFrames) / int64(count))
}

// Plan is the sampling layout of one contact sheet.
type Plan struct {
	Count       int `json:"count"`
	TotalFrames int `json:"total_frames"`
	Rows        int `json:"rows"`
	Cols        int `json:"cols"`
	// Indices holds one frame index per cell in grid-scan order; -1 marks a
	// cell with no sample.
	Indices []int `json:"indices"`
}

// NewPlan lays out count samples over totalFrames frames.
func NewPlan(count, totalFrames int, tiling Tiling) (Plan, error) {
	if count < 1 || count > MaxSampleCount {
		return Plan{}, ErrInvalidCount
	}
	if totalFrames < 1 {
		return Plan{}, ErrNoFrames
	}

	rows, cols := Grid(count, tiling)
	p := Plan{
		Count:       count,
		TotalFrames: totalFrames,
		Rows:        rows,
		Cols:        cols,
		Indices:     make([]int, rows*cols),
	}
	for pos := range p.Indices {
		if pos < count {
			p.Indices[pos] = SampleIndex(pos, totalFrames, count)
		} else {
			p.Indices[pos] = -1
		}
	}
	return p, nil
}

// Cells returns rows×cols.
func (p Plan) Cells() int {
	return p.Rows * p.Cols
}

// CanvasSize returns the full-size canvas for frames of w×h, refusing
// canvases above MaxSheetPixels.
func (p Plan) CanvasSize(w, h int) (image.Point, error) {
	if w < 1 || h < 1 {
		return image.Point{}, fmt.Errorf("invalid frame size %dx%d", w, h)
	}
	// Clamping each factor keeps the products from overflowing.
	cw := int64(p.Cols) * int64(min(w, MaxSheetPixels+1))
	ch := int64(p.Rows) * int64(min(h, MaxSheetPixels+1))
	if cw > MaxSheetPixels || ch > MaxSheetPixels || cw*ch > MaxSheetPixels {
		return image.Point{}, fmt.Errorf("%w: %dx%d cells of %dx%d", ErrSheetTooLarge, p.Rows, p.Cols, w, h)
	}
	return image.Pt(int(cw), int(ch)), nil
}

// CellRect returns the rectangle of grid position pos for frames of w×h.
func (p Plan) CellRect(pos, w, h int) image.Rectangle {
	r, c := pos/p.Cols, pos%p.Cols
	return image.Rect(c*w, r*h, (c+1)*w, (r+1)*h)
}
