package api

import (
	"net/url"
	"time"

	"github.com/vidsort/vidsort/internal/catalog"
	"github.com/vidsort/vidsort/internal/organizer"
	"github.com/vidsort/vidsort/internal/video"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type StatusResponse struct {
	State       string         `json:"state"`
	LastError   string         `json:"last_error,omitempty"`
	Root        string         `json:"root,omitempty"`
	Entries     int            `json:"entries"`
	FilesCount  int            `json:"files_count"`
	Scanning    bool           `json:"scanning"`
	JobsRunning int            `json:"jobs_running"`
	ActiveJob   *JobResponse   `json:"active_job,omitempty"`
	Tools       *ToolsResponse `json:"tools,omitempty"`
}

type ToolsResponse struct {
	FFmpeg      bool   `json:"ffmpeg"`
	FFprobe     bool   `json:"ffprobe"`
	Player      bool   `json:"player"`
	CanGenerate bool   `json:"can_generate"`
	LastProbeAt string `json:"last_probe_at"`
}

type OpenBoardRequest struct {
	Path string `json:"path"`
	Flat bool   `json:"flat,omitempty"`
}

type OpenBoardResponse struct {
	SourceID string `json:"source_id"`
	JobID    string `json:"job_id"`
}

type CategoryResponse struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Color string `json:"color"`
}

type EntryResponse struct {
	ID         string `json:"id"`
	Path       string `json:"path"`
	Filename   string `json:"filename"`
	Group      string `json:"group,omitempty"`
	Rows       int    `json:"rows"`
	Cols       int    `json:"cols"`
	FrameCount int    `json:"frame_count"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Decoded    int    `json:"decoded"`
	Failed     int    `json:"failed"`
	Size       int64  `json:"size"`
	Cached     bool   `json:"cached"`
	SheetURL   string `json:"sheet_url"`
	StreamURL  string `json:"stream_url"`
}

type GroupResponse struct {
	Name  string            `json:"name"`
	Label string            `json:"label"`
	Color string            `json:"color"`
	Rows  [][]EntryResponse `json:"rows"`
}

type BoardResponse struct {
	Root       string             `json:"root"`
	Layout     string             `json:"layout"`
	Scanning   bool               `json:"scanning"`
	Count      int                `json:"count"`
	Categories []CategoryResponse `json:"categories"`
	// Grid holds rows of groups; each group holds rows of entries.
	Grid [][]GroupResponse `json:"grid"`
}

type ClearResponse struct {
	Removed int `json:"removed"`
}

type MoveRequest struct {
	Category string `json:"category"`
}

type MoveResponse struct {
	EntryID  string `json:"entry_id"`
	From     string `json:"from"`
	To       string `json:"to"`
	Category string `json:"category"`
	MovedAt  string `json:"moved_at"`
}

type MovesResponse struct {
	Moves []MoveResponse `json:"moves"`
}

type JobResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	SourceID  string `json:"source_id,omitempty"`
	Progress  int    `json:"progress"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type SourceResponse struct {
	ID          string `json:"id"`
	Path        string `json:"path"`
	DisplayName string `json:"display_name"`
	Layout      string `json:"layout"`
	Present     bool   `json:"present"`
	CreatedAt   string `json:"created_at"`
}

type SourcesResponse struct {
	Sources []SourceResponse `json:"sources"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func EntryToResponse(e organizer.Entry) EntryResponse {
	return EntryResponse{
		ID:         e.ID,
		Path:       e.Path,
		Filename:   e.Filename,
		Group:      e.Group,
		Rows:       e.Rows,
		Cols:       e.Cols,
		FrameCount: e.FrameCount,
		Width:      e.Width,
		Height:     e.Height,
		Decoded:    e.Decoded,
		Failed:     e.Failed,
		Size:       e.Size,
		Cached:     e.Cached,
		SheetURL:   "/entries/" + url.PathEscape(e.ID) + "/sheet",
		StreamURL:  "/playback/file?entry_id=" + url.QueryEscape(e.ID),
	}
}

func GroupToResponse(g organizer.Group) GroupResponse {
	resp := GroupResponse{Name: g.Name, Label: g.Label, Color: g.Color, Rows: make([][]EntryResponse, len(g.Rows))}
	for i, row := range g.Rows {
		resp.Rows[i] = make([]EntryResponse, len(row))
		for j, e := range row {
			resp.Rows[i][j] = EntryToResponse(e)
		}
	}
	return resp
}

func MoveToResponse(m *organizer.MoveRecord) MoveResponse {
	return MoveResponse{
		EntryID:  m.EntryID,
		From:     m.From,
		To:       m.To,
		Category: m.Category,
		MovedAt:  m.MovedAt.Format(time.RFC3339),
	}
}

func StoredMoveToResponse(m *catalog.Move) MoveResponse {
	return MoveResponse{
		From:     m.FromPath,
		To:       m.ToPath,
		Category: m.Category,
		MovedAt:  m.MovedAt.Format(time.RFC3339),
	}
}

func SourceToResponse(s *catalog.Source) SourceResponse {
	return SourceResponse{
		ID:          s.ID,
		Path:        s.Path,
		DisplayName: s.DisplayName,
		Layout:      s.Layout,
		Present:     s.Present,
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
	}
}

func JobToResponse(j *catalog.Job) JobResponse {
	return JobResponse{
		ID:        j.ID,
		Type:      j.Type,
		Status:    j.Status,
		SourceID:  j.SourceID,
		Progress:  j.Progress,
		Error:     j.Error,
		CreatedAt: j.CreatedAt.Format(time.RFC3339),
		UpdatedAt: j.UpdatedAt.Format(time.RFC3339),
	}
}

func ToolsToResponse(c *video.Capabilities) *ToolsResponse {
	return &ToolsResponse{
		FFmpeg:      c.FFmpeg.Available,
		FFprobe:     c.FFprobe.Available,
		Player:      c.Player.Available,
		CanGenerate: c.CanGenerate(),
		LastProbeAt: c.ProbedAt.Format(time.RFC3339),
	}
}
