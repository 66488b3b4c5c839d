package catalog

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/vidsort/vidsort/internal/video"
)

// Doctor reports whether the decoding tools are installed.
type Doctor interface {
	Get(ctx context.Context) *video.Capabilities
}

// Runner polls the jobs table and executes pending jobs one at a time.
type Runner struct {
	service      *Service
	repo         Repository
	doctor       Doctor
	logger       *slog.Logger
	pollInterval time.Duration
	wake         chan struct{}
	running      atomic.Bool
	paused       atomic.Bool
	activeJob    atomic.Value
}

func NewRunner(service *Service, repo Repository, doctor Doctor, logger *slog.Logger) *Runner {
	r := &Runner{
		service:      service,
		repo:         repo,
		doctor:       doctor,
		logger:       logger,
		pollInterval: 5 * time.Second,
		wake:         make(chan struct{}, 1),
	}
	r.activeJob.Store("")
	return r
}

func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}

	r.logger.Info("job runner started")

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("job runner stopping")
			r.running.Store(false)
			return
		case <-ticker.C:
		case <-r.wake:
		}
		if !r.paused.Load() {
			r.processNextJob(ctx)
		}
	}
}

// Wake makes the runner check for jobs now instead of at the next tick.
func (r *Runner) Wake() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("job runner paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("job runner resumed")
	r.Wake()
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

// ActiveJobID returns the job being executed, or "".
func (r *Runner) ActiveJobID() string {
	return r.activeJob.Load().(string)
}

func (r *Runner) processNextJob(ctx context.Context) {
	jobs, err := r.repo.ListPendingJobs(ctx)
	if err != nil {
		r.logger.Error("failed to list pending jobs", "error", err)
		return
	}

	if len(jobs) == 0 {
		return
	}

	// Only the newest scan matters; the board shows one folder at a time.
	job := jobs[len(jobs)-1]
	for _, stale := range jobs[:len(jobs)-1] {
		r.repo.UpdateJobStatus(ctx, stale.ID, JobStatusFailed, "superseded by a newer scan")
	}

	r.logger.Info("processing job", "job_id", job.ID, "type", job.Type)
	r.activeJob.Store(job.ID)
	defer r.activeJob.Store("")

	switch job.Type {
	case JobTypeScan:
		if r.doctor != nil {
			if caps := r.doctor.Get(ctx); caps != nil && !caps.CanGenerate() {
				r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "ffmpeg and ffprobe are required")
				return
			}
		}
		if err := r.service.ExecuteScan(ctx, job.ID, job.SourceID); err != nil {
			r.logger.Error("scan failed", "job_id", job.ID, "error", err)
		}

	default:
		r.logger.Warn("unknown job type", "type", job.Type)
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "unknown job type")
	}
}

func (r *Runner) GetActiveJobCount(ctx context.Context) int {
	jobs, err := r.repo.ListJobs(ctx, 100)
	if err != nil {
		return 0
	}
	count := 0
	for _, j := range jobs {
		if j.Status == JobStatusRunning {
			count++
		}
	}
	return count
}
