package playback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultChunkSize bounds the bytes sent for an open-ended request such as
// the "bytes=0-" a <video> element issues first. The element asks for the
// next chunk as playback advances, so a seek never drains a whole file.
const DefaultChunkSize int64 = 8 << 20

var (
	ErrMalformedRange = errors.New("malformed range header")
	ErrUnsatisfiable  = errors.New("range not satisfiable")
)

// Span is an inclusive byte span of a served file.
type Span struct {
	First int64
	Last  int64
}

func (s Span) Len() int64 {
	return s.Last - s.First + 1
}

// ContentRange formats s for the Content-Range header of a file of size bytes.
func (s Span) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", s.First, s.Last, size)
}

// RequestedSpan resolves a Range header against a file of size bytes. ok is
// false when no range was requested. Only the first span of a multi-span
// header is served. A span with no last byte ends after chunk bytes when
// chunk > 0; explicit and suffix spans are served as asked, clamped to the
// file.
func RequestedSpan(header string, size, chunk int64) (span Span, ok bool, err error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return Span{}, false, nil
	}

	unit, set, found := strings.Cut(header, "=")
	if !found || !strings.EqualFold(strings.TrimSpace(unit), "bytes") {
		return Span{}, false, ErrMalformedRange
	}
	first, _, _ := strings.Cut(set, ",")
	from, to, found := strings.Cut(strings.TrimSpace(first), "-")
	if !found {
		return Span{}, false, ErrMalformedRange
	}

	if from == "" {
		// Suffix span: the last n bytes, used to reach trailing moov atoms.
		n, ok := parsePos(to)
		if !ok {
			return Span{}, false, ErrMalformedRange
		}
		if n == 0 || size == 0 {
			return Span{}, false, ErrUnsatisfiable
		}
		return Span{First: max(size-n, 0), Last: size - 1}, true, nil
	}

	start, ok := parsePos(from)
	if !ok {
		return Span{}, false, ErrMalformedRange
	}
	if start >= size {
		return Span{}, false, ErrUnsatisfiable
	}

	last := size - 1
	if to == "" {
		if chunk > 0 && start+chunk-1 < last {
			last = start + chunk - 1
		}
		return Span{First: start, Last: last}, true, nil
	}

	end, ok := parsePos(to)
	if !ok || end < start {
		return Span{}, false, ErrMalformedRange
	}
	return Span{First: start, Last: min(end, last)}, true, nil
}

// parsePos accepts only unsigned decimal digits, which strconv alone does not
// enforce.
func parsePos(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}
