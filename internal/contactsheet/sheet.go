package contactsheet

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"

	xdraw "golang.org/x/image/draw"

	"github.com/vidsort/vidsort/internal/video"
)

// DefaultJPEGQuality is used when encoding thumbnails.
const DefaultJPEGQuality = 85

// Sheet is a composed contact sheet. Cells whose frame could not be decoded
// stay opaque black.
type Sheet struct {
	Source  video.Source
	Plan    Plan
	Image   *image.RGBA
	Decoded int
	// Failed lists grid positions whose decode failed.
	Failed []int
}

// NewSheet allocates an all-black canvas of rows×cols cells of the source's
// frame size. It fails with ErrSheetTooLarge before allocating anything the
// process could not survive.
func NewSheet(src video.Source, plan Plan) (*Sheet, error) {
	size, err := plan.CanvasSize(src.Width, src.Height)
	if err != nil {
		return nil, err
	}
	bounds := image.Rectangle{Max: size}
	canvas := image.NewRGBA(bounds)
	xdraw.Draw(canvas, bounds, image.NewUniform(color.RGBA{A: 0xff}), image.Point{}, xdraw.Src)
	return &Sheet{Source: src, Plan: plan, Image: canvas}, nil
}

// Place copies frame into grid position pos, converting its channel order to
// RGB. Frames larger than a cell are clipped.
func (s *Sheet) Place(pos int, frame *video.Frame) error {
	if pos < 0 || pos >= s.Plan.Cells() {
		return fmt.Errorf("position %d outside %dx%d grid", pos, s.Plan.Rows, s.Plan.Cols)
	}
	if err := frame.Validate(); err != nil {
		return err
	}

	cell := s.Plan.CellRect(pos, s.Source.Width, s.Source.Height)
	w := min(frame.Width, cell.Dx())
	h := min(frame.Height, cell.Dy())
	stride := frame.Stride()

	ri, bi := 0, 2
	if frame.Order == video.BGR {
		ri, bi = 2, 0
	}

	for y := 0; y < h; y++ {
		src := frame.Pix[y*stride:]
		off := s.Image.PixOffset(cell.Min.X, cell.Min.Y+y)
		dst := s.Image.Pix[off : off+w*4]
		for x := 0; x < w; x++ {
			p := src[x*3 : x*3+3]
			d := dst[x*4 : x*4+4]
			d[0], d[1], d[2], d[3] = p[ri], p[1], p[bi], 0xff
		}
	}
	return nil
}

// Rows returns the number of grid rows.
func (s *Sheet) Rows() int { return s.Plan.Rows }

// Cols returns the number of grid columns.
func (s *Sheet) Cols() int { return s.Plan.Cols }

// FitSize scales w×h to fit inside maxW×maxH, keeping the aspect ratio.
// Images smaller than the box are scaled up.
func FitSize(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 || maxW <= 0 || maxH <= 0 {
		return 0, 0
	}
	// Compare w/h against maxW/maxH without floats.
	if int64(w)*int64(maxH) >= int64(h)*int64(maxW) {
		return maxW, max(1, int(int64(h)*int64(maxW)/int64(w)))
	}
	return max(1, int(int64(w)*int64(maxH)/int64(h))), maxH
}

// Thumbnail returns the sheet scaled to fit inside maxW×maxH.
func (s *Sheet) Thumbnail(maxW, maxH int) image.Image {
	return Scale(s.Image, maxW, maxH)
}

// Scale resizes img to fit inside maxW×maxH with bilinear filtering.
func Scale(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := FitSize(b.Dx(), b.Dy(), maxW, maxH)
	if w == 0 || h == 0 {
		return img
	}
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// EncodeJPEG writes img as JPEG. A quality of 0 selects DefaultJPEGQuality.
func EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	if quality <= 0 {
		quality = DefaultJPEGQuality
	}
	return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
}

func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}
