package organizer

import (
	"image"
	"time"
)

// Entry is one file shown on the board with its contact sheet.
type Entry struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	Filename string `json:"filename"`
	// Group is the category folder the file was found in. Empty for flat
	// boards.
	Group      string    `json:"group"`
	SheetPath  string    `json:"sheet_path,omitempty"`
	Rows       int       `json:"rows"`
	Cols       int       `json:"cols"`
	FrameCount int       `json:"frame_count"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Decoded    int       `json:"decoded"`
	Failed     int       `json:"failed"`
	Size       int64     `json:"size"`
	ModTime    time.Time `json:"mtime"`
	// Fingerprint is the hash of the file's size and leading bytes.
	Fingerprint string    `json:"fingerprint,omitempty"`
	Cached      bool      `json:"cached"`
	CreatedAt   time.Time `json:"created_at"`

	thumb image.Image
}

// Group is a run of entries sharing a category, as laid out on the board.
type Group struct {
	Name  string    `json:"name"`
	Label string    `json:"label"`
	Color string    `json:"color"`
	Rows  [][]Entry `json:"rows"`
}

// Chunk splits items into rows of at most columns items.
func Chunk[T any](items []T, columns int) [][]T {
	if columns < 1 {
		columns = 1
	}
	rows := make([][]T, 0, (len(items)+columns-1)/columns)
	for i := 0; i < len(items); i += columns {
		rows = append(rows, items[i:min(i+columns, len(items))])
	}
	return rows
}
