// Package playback streams board files to the browser with byte-range
// support so the board can preview a video before it is moved.
package playback

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Resolver maps a board entry id to the file it tracks.
type Resolver interface {
	EntryPath(id string) (string, bool)
}

type Server struct {
	resolver Resolver
	logger   *slog.Logger
	chunk    int64
}

func NewServer(resolver Resolver, logger *slog.Logger) *Server {
	return &Server{resolver: resolver, logger: logger, chunk: DefaultChunkSize}
}

// SetChunkSize changes the open-ended span limit. n <= 0 serves such spans
// to the end of the file.
func (s *Server) SetChunkSize(n int64) {
	s.chunk = n
}

// ServeEntry streams the file of the entry named by the entry_id query
// parameter.
func (s *Server) ServeEntry(w http.ResponseWriter, r *http.Request) error {
	id := r.URL.Query().Get("entry_id")
	if id == "" {
		http.Error(w, "entry_id is required", http.StatusBadRequest)
		return nil
	}
	path, ok := s.resolver.EntryPath(id)
	if !ok {
		http.Error(w, "entry not found", http.StatusNotFound)
		return nil
	}
	return s.ServeFile(w, r, path)
}

// ServeFile writes filePath honoring the first span of a Range header.
func (s *Server) ServeFile(w http.ResponseWriter, r *http.Request, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "file not found", http.StatusNotFound)
			return nil
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	if !stat.Mode().IsRegular() {
		http.Error(w, "not a file", http.StatusNotFound)
		return nil
	}

	size := stat.Size()
	contentType, err := detectContentType(file, filePath)
	if err != nil {
		return err
	}

	h := w.Header()
	h.Set("Accept-Ranges", "bytes")
	h.Set("Content-Type", contentType)
	h.Set("Last-Modified", stat.ModTime().UTC().Format(http.TimeFormat))

	span, ranged, err := RequestedSpan(r.Header.Get("Range"), size, s.chunk)
	switch {
	case errors.Is(err, ErrUnsatisfiable):
		h.Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return nil
	case errors.Is(err, ErrMalformedRange):
		// Malformed ranges are ignored and the whole file is sent.
		ranged = false
	}

	if !ranged {
		h.Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			s.copy(w, file, size)
		}
		return nil
	}

	h.Set("Content-Length", strconv.FormatInt(span.Len(), 10))
	h.Set("Content-Range", span.ContentRange(size))
	w.WriteHeader(http.StatusPartialContent)
	if r.Method == http.MethodHead {
		return nil
	}

	if _, err := file.Seek(span.First, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}
	s.copy(w, file, span.Len())
	return nil
}

func (s *Server) copy(w io.Writer, r io.Reader, n int64) {
	if _, err := io.CopyN(w, r, n); err != nil && s.logger != nil {
		// Players abort requests while seeking; this is routine.
		s.logger.Debug("playback copy ended early", "error", err)
	}
}

var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".ts":   "video/mp2t",
}

// detectContentType uses the extension when it is known and sniffs the first
// bytes otherwise, since board files may have any name.
func detectContentType(f *os.File, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ct, ok := videoTypes[ext]; ok {
		return ct, nil
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct, nil
	}
	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to seek: %w", err)
	}
	return http.DetectContentType(buf[:n]), nil
}
