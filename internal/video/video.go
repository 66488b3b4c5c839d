// Package video probes video files and decodes single frames by shelling out
// to ffprobe and ffmpeg.
package video

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreadable reports a source that could not be opened or probed.
	ErrUnreadable = errors.New("video source unreadable")
	// ErrShortFrame reports decoder output smaller than one full frame.
	ErrShortFrame = errors.New("decoded frame is truncated")
)

// Source describes a probed video. It is derived fresh on every probe and
// never persisted.
type Source struct {
	Path       string  `json:"path"`
	FrameCount int     `json:"frame_count"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	FrameRate  float64 `json:"frame_rate"`
	Duration   float64 `json:"duration"`
	Codec      string  `json:"codec,omitempty"`
}

// TimestampOf returns the presentation time in seconds of frame index.
func (s Source) TimestampOf(index int) float64 {
	if s.FrameRate <= 0 {
		return 0
	}
	return float64(index) / s.FrameRate
}

// ChannelOrder is the byte order of a packed 3-byte pixel.
type ChannelOrder int

const (
	RGB ChannelOrder = iota
	BGR
)

func (o ChannelOrder) String() string {
	if o == BGR {
		return "bgr"
	}
	return "rgb"
}

// PixFmt returns the ffmpeg pixel format producing this order.
func (o ChannelOrder) PixFmt() string {
	if o == BGR {
		return "bgr24"
	}
	return "rgb24"
}

// Frame is one decoded picture with packed 3-byte pixels, row-major.
type Frame struct {
	Index  int
	Width  int
	Height int
	Order  ChannelOrder
	Pix    []byte
}

// Stride returns the number of bytes per row.
func (f *Frame) Stride() int {
	return f.Width * 3
}

// Validate checks that Pix holds exactly one full frame.
func (f *Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", f.Width, f.Height)
	}
	want := f.Width * f.Height * 3
	if len(f.Pix) < want {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrShortFrame, len(f.Pix), want)
	}
	return nil
}
