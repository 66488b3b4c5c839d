package organizer

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/vidsort/vidsort/internal/contactsheet"
	"github.com/vidsort/vidsort/internal/fsx"
)

// SheetMeta is stored next to each cached thumbnail.
type SheetMeta struct {
	Source      string `json:"source"`
	Fingerprint string `json:"fingerprint"`
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"`
	Count       int    `json:"count"`
	FrameCount  int    `json:"frame_count"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Decoded     int    `json:"decoded"`
	Failed      int    `json:"failed"`
}

// SheetCache keeps encoded thumbnails on disk keyed by file content and
// render settings, so reopening a folder does not decode every video again.
type SheetCache struct {
	dir string
}

func NewSheetCache(dir string) *SheetCache {
	return &SheetCache{dir: dir}
}

// Dir returns the cache directory.
func (c *SheetCache) Dir() string {
	return c.dir
}

// Key identifies one rendering of path. It changes when the first bytes or
// size of the file change, or when any render setting does.
func (c *SheetCache) Key(path string, count int, tiling contactsheet.Tiling, w, h int) (key, fingerprint string, err error) {
	fingerprint, err = fsx.Fingerprint(path)
	if err != nil {
		return "", "", err
	}
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%d|%s|%dx%d", fingerprint, count, tiling, w, h))
	return hex.EncodeToString(sum[:16]), fingerprint, nil
}

func (c *SheetCache) imagePath(key string) string {
	return filepath.Join(c.dir, key+".jpg")
}

func (c *SheetCache) metaPath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Lookup returns the thumbnail path and metadata for key if both exist.
func (c *SheetCache) Lookup(key string) (string, *SheetMeta, bool) {
	data, err := os.ReadFile(c.metaPath(key))
	if err != nil {
		return "", nil, false
	}
	var meta SheetMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return "", nil, false
	}
	img := c.imagePath(key)
	if fi, err := os.Stat(img); err != nil || !fi.Mode().IsRegular() {
		return "", nil, false
	}
	return img, &meta, true
}

// Store encodes thumb as JPEG and writes it with its metadata.
func (c *SheetCache) Store(key string, thumb image.Image, meta SheetMeta) (string, error) {
	var buf bytes.Buffer
	if err := contactsheet.EncodeJPEG(&buf, thumb, 0); err != nil {
		return "", fmt.Errorf("encode thumbnail: %w", err)
	}
	if err := fsx.WriteFileAtomic(c.dir, key+".jpg", buf.Bytes()); err != nil {
		return "", fmt.Errorf("write thumbnail: %w", err)
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}
	if err := fsx.WriteFileAtomic(c.dir, key+".json", data); err != nil {
		return "", fmt.Errorf("write thumbnail metadata: %w", err)
	}
	return c.imagePath(key), nil
}
