package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/vidsort/vidsort/internal/organizer"
)

var (
	ErrSourceNotFound = errors.New("source not found")
	ErrNotDirectory   = errors.New("path is not a directory")
)

// Scanner fills the board from a folder.
type Scanner interface {
	Open(ctx context.Context, root string, observe organizer.ScanFunc) (*organizer.ScanResult, error)
	OpenFlat(ctx context.Context, root string, observe organizer.ScanFunc) (*organizer.ScanResult, error)
}

type CatalogService interface {
	OpenFolder(ctx context.Context, path string, flat bool) (*Source, *Job, error)
	GetSources(ctx context.Context) ([]*Source, error)
	GetSource(ctx context.Context, id string) (*Source, error)
	GetFiles(ctx context.Context, sourceID string) ([]*File, error)
	CountFiles(ctx context.Context) (int, error)
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]*Job, error)
	ListMoves(ctx context.Context, limit int) ([]*Move, error)
	ExecuteScan(ctx context.Context, jobID, sourceID string) error
}

type Service struct {
	repo    Repository
	scanner Scanner
	logger  *slog.Logger
}

func NewService(repo Repository, scanner Scanner, logger *slog.Logger) *Service {
	return &Service{repo: repo, scanner: scanner, logger: logger}
}

// OpenFolder registers path as a source and queues a scan of it. Reopening a
// known folder reuses its source and updates the layout.
func (s *Service) OpenFolder(ctx context.Context, path string, flat bool) (*Source, *Job, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, nil, fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return nil, nil, ErrNotDirectory
	}

	layout := string(organizer.LayoutCategories)
	if flat {
		layout = string(organizer.LayoutFlat)
	}

	source, err := s.repo.GetSourceByPath(ctx, absPath)
	if err != nil {
		return nil, nil, err
	}
	if source == nil {
		source = &Source{
			ID:          NewID(),
			Path:        absPath,
			DisplayName: filepath.Base(absPath),
			Layout:      layout,
			Present:     true,
			CreatedAt:   time.Now(),
		}
		if err := s.repo.CreateSource(ctx, source); err != nil {
			return nil, nil, err
		}
		s.log().Info("folder added", "source_id", source.ID, "path", absPath)
	} else if source.Layout != layout || !source.Present {
		if err := s.repo.UpdateSourceLayout(ctx, source.ID, layout); err != nil {
			return nil, nil, err
		}
		if err := s.repo.UpdateSourcePresent(ctx, source.ID, true); err != nil {
			return nil, nil, err
		}
		source.Layout = layout
		source.Present = true
	}

	now := time.Now()
	job := &Job{
		ID:        NewID(),
		Type:      JobTypeScan,
		Status:    JobStatusPending,
		SourceID:  source.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, nil, err
	}

	s.log().Info("scan job created", "job_id", job.ID, "source_id", source.ID, "layout", layout)
	return source, job, nil
}

func (s *Service) GetSources(ctx context.Context) ([]*Source, error) {
	return s.repo.ListSources(ctx)
}

func (s *Service) GetSource(ctx context.Context, id string) (*Source, error) {
	return s.repo.GetSource(ctx, id)
}

func (s *Service) GetFiles(ctx context.Context, sourceID string) ([]*File, error) {
	return s.repo.GetFilesBySource(ctx, sourceID)
}

func (s *Service) CountFiles(ctx context.Context) (int, error) {
	return s.repo.CountFiles(ctx)
}

func (s *Service) GetJob(ctx context.Context, id string) (*Job, error) {
	return s.repo.GetJob(ctx, id)
}

func (s *Service) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	return s.repo.ListJobs(ctx, limit)
}

func (s *Service) ListMoves(ctx context.Context, limit int) ([]*Move, error) {
	return s.repo.ListMoves(ctx, limit)
}

// ExecuteScan loads the source into the board, recording every entry as a
// file row and reporting progress on the job.
func (s *Service) ExecuteScan(ctx context.Context, jobID, sourceID string) error {
	source, err := s.repo.GetSource(ctx, sourceID)
	if err != nil {
		return err
	}
	if source == nil {
		s.repo.UpdateJobStatus(ctx, jobID, JobStatusFailed, ErrSourceNotFound.Error())
		return ErrSourceNotFound
	}

	s.repo.UpdateJobStatus(ctx, jobID, JobStatusRunning, "")
	s.log().Info("starting scan", "job_id", jobID, "path", source.Path, "layout", source.Layout)

	lastProgress := -1
	observe := func(ev organizer.ScanEvent) {
		if ev.Entry != nil {
			if err := s.recordEntry(ctx, source.ID, ev.Entry); err != nil {
				s.log().Warn("failed to record file", "path", ev.Path, "error", err)
			}
		}
		progress := 0
		if ev.Total > 0 {
			progress = ev.Done * 100 / ev.Total
		}
		if progress != lastProgress {
			s.repo.UpdateJobProgress(ctx, jobID, progress)
			lastProgress = progress
		}
	}

	var res *organizer.ScanResult
	if source.Layout == string(organizer.LayoutFlat) {
		res, err = s.scanner.OpenFlat(ctx, source.Path, observe)
	} else {
		res, err = s.scanner.Open(ctx, source.Path, observe)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// The job stays running so the next start marks it interrupted.
			return err
		}
		if errors.Is(err, os.ErrNotExist) {
			s.repo.UpdateSourcePresent(ctx, source.ID, false)
		}
		s.repo.UpdateJobStatus(ctx, jobID, JobStatusFailed, err.Error())
		return err
	}

	s.repo.UpdateJobProgress(ctx, jobID, 100)
	s.repo.UpdateJobStatus(ctx, jobID, JobStatusCompleted, "")
	s.log().Info("scan completed",
		"job_id", jobID,
		"files", res.Total,
		"added", res.Added,
		"cached", res.Cached,
		"failed", res.Failed,
	)
	return nil
}

func (s *Service) recordEntry(ctx context.Context, sourceID string, e *organizer.Entry) error {
	return s.repo.UpsertFile(ctx, &File{
		ID:          NewID(),
		SourceID:    sourceID,
		Path:        e.Path,
		Filename:    e.Filename,
		Category:    e.Group,
		Size:        e.Size,
		Mtime:       e.ModTime,
		Fingerprint: e.Fingerprint,
		SheetPath:   e.SheetPath,
		FrameCount:  e.FrameCount,
		CreatedAt:   e.CreatedAt,
	})
}

func (s *Service) log() *slog.Logger {
	if s.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.logger
}

// MoveLog records board moves in the moves table and keeps the file row
// pointing at the new location.
type MoveLog struct {
	repo   Repository
	logger *slog.Logger
}

func NewMoveLog(repo Repository, logger *slog.Logger) *MoveLog {
	return &MoveLog{repo: repo, logger: logger}
}

func (m *MoveLog) RecordMove(ctx context.Context, rec organizer.MoveRecord) error {
	move := &Move{
		ID:       NewID(),
		FromPath: rec.From,
		ToPath:   rec.To,
		Category: rec.Category,
		MovedAt:  rec.MovedAt,
	}

	file, err := m.repo.GetFileByPath(ctx, rec.From)
	if err != nil {
		return err
	}
	if file != nil {
		move.SourceID = file.SourceID
		if err := m.repo.UpdateFileLocation(ctx, file.ID, rec.To, rec.Category); err != nil {
			return fmt.Errorf("update file location: %w", err)
		}
	}

	if err := m.repo.CreateMove(ctx, move); err != nil {
		return err
	}
	if m.logger != nil {
		m.logger.Debug("move recorded", "move_id", move.ID, "category", rec.Category)
	}
	return nil
}
