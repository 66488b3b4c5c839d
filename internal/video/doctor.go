package video

import (
	"bufio"
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const defaultCacheTTL = 5 * time.Minute

// ToolInfo reports whether one external executable is usable.
type ToolInfo struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Capabilities summarizes the external tools the agent depends on.
type Capabilities struct {
	FFmpeg   ToolInfo  `json:"ffmpeg"`
	FFprobe  ToolInfo  `json:"ffprobe"`
	Player   ToolInfo  `json:"player"`
	ProbedAt time.Time `json:"probed_at"`
}

// CanGenerate reports whether contact sheets can be produced.
func (c *Capabilities) CanGenerate() bool {
	return c.FFmpeg.Available && c.FFprobe.Available
}

// ToolProbe inspects one executable.
type ToolProbe func(ctx context.Context, name string) ToolInfo

// ProbeTool resolves name on PATH and reads the first line of `name -version`.
func ProbeTool(ctx context.Context, name string) ToolInfo {
	info := ToolInfo{Name: name}
	path, err := exec.LookPath(name)
	if err != nil {
		info.Error = err.Error()
		return info
	}
	info.Path = path
	info.Available = true

	out, err := exec.CommandContext(ctx, path, "-version").Output()
	if err == nil {
		line, _, _ := bufio.NewReader(bytes.NewReader(out)).ReadLine()
		info.Version = strings.TrimSpace(string(line))
	}
	return info
}

// CachedDoctor caches tool probes with a TTL so status requests stay cheap.
type CachedDoctor struct {
	ffmpeg, ffprobe, player string

	probe  ToolProbe
	ttl    time.Duration
	logger *slog.Logger

	mu     sync.RWMutex
	cached *Capabilities
}

func NewCachedDoctor(ffmpeg, ffprobe, player string, probe ToolProbe, logger *slog.Logger) *CachedDoctor {
	if probe == nil {
		probe = ProbeTool
	}
	return &CachedDoctor{
		ffmpeg:  ffmpeg,
		ffprobe: ffprobe,
		player:  player,
		probe:   probe,
		ttl:     defaultCacheTTL,
		logger:  logger,
	}
}

// Get returns cached capabilities if fresh, otherwise re-probes.
func (d *CachedDoctor) Get(ctx context.Context) *Capabilities {
	d.mu.RLock()
	if d.cached != nil && time.Since(d.cached.ProbedAt) < d.ttl {
		caps := d.cached
		d.mu.RUnlock()
		return caps
	}
	d.mu.RUnlock()

	return d.Refresh(ctx)
}

// Peek returns the cached capabilities without probing, or nil.
func (d *CachedDoctor) Peek() *Capabilities {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cached
}

// Refresh probes every tool regardless of cache freshness.
func (d *CachedDoctor) Refresh(ctx context.Context) *Capabilities {
	d.mu.Lock()
	defer d.mu.Unlock()

	caps := &Capabilities{
		FFmpeg:   d.probe(ctx, d.ffmpeg),
		FFprobe:  d.probe(ctx, d.ffprobe),
		Player:   d.probe(ctx, d.player),
		ProbedAt: time.Now(),
	}
	if d.logger != nil {
		d.logger.Info("tool probe complete",
			"ffmpeg", caps.FFmpeg.Available,
			"ffprobe", caps.FFprobe.Available,
			"player", caps.Player.Available,
		)
	}
	d.cached = caps
	return caps
}
