package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Source is a folder that has been opened on the board.
type Source struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"`
	DisplayName string    `json:"display_name"`
	Layout      string    `json:"layout"`
	Present     bool      `json:"present"`
	CreatedAt   time.Time `json:"created_at"`
}

// File is a video discovered under a source, with its cached sheet.
type File struct {
	ID          string    `json:"id"`
	SourceID    string    `json:"source_id"`
	Path        string    `json:"path"`
	Filename    string    `json:"filename"`
	Category    string    `json:"category,omitempty"`
	Size        int64     `json:"size"`
	Mtime       time.Time `json:"mtime"`
	Fingerprint string    `json:"fingerprint"`
	SheetPath   string    `json:"sheet_path,omitempty"`
	FrameCount  int       `json:"frame_count"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	JobTypeScan = "scan"

	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

type Job struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	SourceID  string    `json:"source_id,omitempty"`
	Progress  int       `json:"progress"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Move is one completed file move into a category folder.
type Move struct {
	ID       string    `json:"id"`
	SourceID string    `json:"source_id,omitempty"`
	FromPath string    `json:"from_path"`
	ToPath   string    `json:"to_path"`
	Category string    `json:"category"`
	MovedAt  time.Time `json:"moved_at"`
}

func NewID() string {
	return uuid.NewString()
}
