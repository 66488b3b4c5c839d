package catalog

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/vidsort/vidsort/internal/video"
)

type fakeDoctor struct {
	caps *video.Capabilities
}

func (f *fakeDoctor) Get(ctx context.Context) *video.Capabilities {
	return f.caps
}

func availableTools() *video.Capabilities {
	return &video.Capabilities{
		FFmpeg:  video.ToolInfo{Name: "ffmpeg", Available: true},
		FFprobe: video.ToolInfo{Name: "ffprobe", Available: true},
	}
}

func setupRunnerTest(t *testing.T, scanner *fakeScanner, caps *video.Capabilities) (*Runner, *Service, Repository) {
	t.Helper()

	_, repo := setupTestDB(t)
	svc := NewService(repo, scanner, nil)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	runner := NewRunner(svc, repo, &fakeDoctor{caps: caps}, logger)
	return runner, svc, repo
}

func TestRunner_ProcessScanJob(t *testing.T) {
	scanner := &fakeScanner{files: []string{"keep/a.mp4"}}
	runner, svc, repo := setupRunnerTest(t, scanner, availableTools())
	ctx := context.Background()

	_, job, err := svc.OpenFolder(ctx, t.TempDir(), false)
	if err != nil {
		t.Fatal(err)
	}

	runner.processNextJob(ctx)

	got, _ := repo.GetJob(ctx, job.ID)
	if got.Status != JobStatusCompleted {
		t.Errorf("job status = %s, want completed (error %q)", got.Status, got.Error)
	}
	if runner.ActiveJobID() != "" {
		t.Errorf("ActiveJobID() = %q after completion", runner.ActiveJobID())
	}
}

func TestRunner_SupersedesOlderScans(t *testing.T) {
	scanner := &fakeScanner{}
	runner, svc, repo := setupRunnerTest(t, scanner, availableTools())
	ctx := context.Background()

	_, first, _ := svc.OpenFolder(ctx, t.TempDir(), false)
	newer, second, _ := svc.OpenFolder(ctx, t.TempDir(), false)

	runner.processNextJob(ctx)

	if got, _ := repo.GetJob(ctx, first.ID); got.Status != JobStatusFailed {
		t.Errorf("older job status = %s, want failed", got.Status)
	}
	if got, _ := repo.GetJob(ctx, second.ID); got.Status != JobStatusCompleted {
		t.Errorf("newer job status = %s, want completed", got.Status)
	}
	if scanner.opened != newer.Path {
		t.Errorf("scanned %q, want %q", scanner.opened, newer.Path)
	}
}

func TestRunner_MissingTools(t *testing.T) {
	caps := availableTools()
	caps.FFprobe.Available = false
	scanner := &fakeScanner{files: []string{"keep/a.mp4"}}
	runner, svc, repo := setupRunnerTest(t, scanner, caps)
	ctx := context.Background()

	_, job, _ := svc.OpenFolder(ctx, t.TempDir(), false)
	runner.processNextJob(ctx)

	got, _ := repo.GetJob(ctx, job.ID)
	if got.Status != JobStatusFailed || got.Error == "" {
		t.Errorf("job = %+v, want failed", got)
	}
	if scanner.opened != "" {
		t.Error("scanner ran without tools")
	}
}

func TestRunner_UnknownJobType(t *testing.T) {
	runner, _, repo := setupRunnerTest(t, &fakeScanner{}, availableTools())
	ctx := context.Background()

	now := time.Now()
	job := &Job{ID: NewID(), Type: "transcode", Status: JobStatusPending, CreatedAt: now, UpdatedAt: now}
	if err := repo.CreateJob(ctx, job); err != nil {
		t.Fatal(err)
	}

	runner.processNextJob(ctx)

	got, _ := repo.GetJob(ctx, job.ID)
	if got.Status != JobStatusFailed || got.Error != "unknown job type" {
		t.Errorf("job = %+v", got)
	}
}

func TestRunner_PauseResume(t *testing.T) {
	scanner := &fakeScanner{}
	runner, svc, repo := setupRunnerTest(t, scanner, availableTools())
	runner.pollInterval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner.Pause()
	done := make(chan struct{})
	go func() {
		runner.Start(ctx)
		close(done)
	}()

	_, job, _ := svc.OpenFolder(context.Background(), t.TempDir(), false)
	runner.Wake()
	time.Sleep(50 * time.Millisecond)

	if got, _ := repo.GetJob(context.Background(), job.ID); got.Status != JobStatusPending {
		t.Fatalf("paused runner processed job: %s", got.Status)
	}
	if !runner.IsPaused() {
		t.Error("IsPaused() = false")
	}

	runner.Resume()
	deadline := time.Now().Add(2 * time.Second)
	for {
		got, _ := repo.GetJob(context.Background(), job.ID)
		if got.Status == JobStatusCompleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job not processed after Resume: %s", got.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
	if runner.IsRunning() {
		t.Error("IsRunning() = true after stop")
	}
}

func TestRunner_GetActiveJobCount(t *testing.T) {
	runner, svc, repo := setupRunnerTest(t, &fakeScanner{}, availableTools())
	ctx := context.Background()

	_, job, _ := svc.OpenFolder(ctx, t.TempDir(), false)
	repo.UpdateJobStatus(ctx, job.ID, JobStatusRunning, "")

	if n := runner.GetActiveJobCount(ctx); n != 1 {
		t.Errorf("GetActiveJobCount() = %d, want 1", n)
	}
}
