package playback

import (
	"errors"
	"testing"
)

func TestRequestedSpan(t *testing.T) {
	const gib = int64(1) << 30
	const chunk = DefaultChunkSize

	tests := []struct {
		name    string
		header  string
		size    int64
		chunk   int64
		want    Span
		wantOK  bool
		wantErr error
	}{
		{"no header", "", gib, chunk, Span{}, false, nil},
		{"initial video request is one chunk", "bytes=0-", gib, chunk, Span{0, chunk - 1}, true, nil},
		{"seek lands mid file", "bytes=734003200-", gib, chunk, Span{734003200, 734003200 + chunk - 1}, true, nil},
		{"open span near the end stops at the file", "bytes=1073741000-", gib, chunk, Span{1073741000, gib - 1}, true, nil},
		{"chunking disabled", "bytes=100-", gib, 0, Span{100, gib - 1}, true, nil},
		{"explicit span is not chunked", "bytes=0-16777215", gib, chunk, Span{0, 16777215}, true, nil},
		{"explicit span clamped to file", "bytes=1073741800-1073750000", gib, chunk, Span{1073741800, gib - 1}, true, nil},
		{"suffix reads trailing moov atom", "bytes=-65536", gib, chunk, Span{gib - 65536, gib - 1}, true, nil},
		{"suffix longer than file", "bytes=-4096", 1000, chunk, Span{0, 999}, true, nil},
		{"only the first of several spans", "bytes=500-599, 0-99", 1000, chunk, Span{500, 599}, true, nil},
		{"unit is case insensitive", "Bytes=10-19", 1000, chunk, Span{10, 19}, true, nil},

		{"start at size", "bytes=1000-", 1000, chunk, Span{}, false, ErrUnsatisfiable},
		{"empty suffix", "bytes=-0", 1000, chunk, Span{}, false, ErrUnsatisfiable},
		{"empty file", "bytes=-10", 0, chunk, Span{}, false, ErrUnsatisfiable},
		{"other unit", "frames=0-24", 1000, chunk, Span{}, false, ErrMalformedRange},
		{"no unit", "0-100", 1000, chunk, Span{}, false, ErrMalformedRange},
		{"signed start", "bytes=+5-10", 1000, chunk, Span{}, false, ErrMalformedRange},
		{"end before start", "bytes=20-10", 1000, chunk, Span{}, false, ErrMalformedRange},
		{"no dash", "bytes=42", 1000, chunk, Span{}, false, ErrMalformedRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := RequestedSpan(tt.header, tt.size, tt.chunk)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("RequestedSpan() error = %v, want %v", err, tt.wantErr)
			}
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("RequestedSpan() = %+v, %v, want %+v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSpanHeaders(t *testing.T) {
	s := Span{First: 8 << 20, Last: 16<<20 - 1}
	if s.Len() != 8<<20 {
		t.Errorf("Len() = %d", s.Len())
	}
	if got := s.ContentRange(1 << 30); got != "bytes 8388608-16777215/1073741824" {
		t.Errorf("ContentRange() = %q", got)
	}
}
