// Package config provides configuration management for vidsort.
// Configuration is loaded from environment variables with sensible defaults;
// category labels come from an optional TOML file in the data directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// Default values
	DefaultPort     = 8797
	DefaultLogLevel = "info"
	DefaultDataDir  = ".vidsort"

	// Contact sheet defaults
	DefaultSampleCount  = 9
	MaxSampleCount      = 400
	DefaultThumbWidth   = 350
	DefaultThumbHeight  = 350
	DefaultTiling       = "legacy"
	DefaultGroupColumns = 3
	DefaultEntryColumns = 5

	// External tools
	DefaultFFmpeg  = "ffmpeg"
	DefaultFFprobe = "ffprobe"
	DefaultPlayer  = "mpv"

	DefaultToolTimeout = 30 // seconds

	// Environment variable names
	EnvPort         = "VIDSORT_PORT"
	EnvLogLevel     = "VIDSORT_LOG_LEVEL"
	EnvDataDir      = "VIDSORT_DATA_DIR"
	EnvSampleCount  = "VIDSORT_SAMPLE_COUNT"
	EnvThumbWidth   = "VIDSORT_THUMB_WIDTH"
	EnvThumbHeight  = "VIDSORT_THUMB_HEIGHT"
	EnvTiling       = "VIDSORT_TILING"
	EnvEntryColumns = "VIDSORT_ENTRY_COLUMNS"
	EnvFFmpeg       = "VIDSORT_FFMPEG"
	EnvFFprobe      = "VIDSORT_FFPROBE"
	EnvPlayer       = "VIDSORT_PLAYER"
	EnvHeadless     = "VIDSORT_HEADLESS"

	DBFilename         = "vidsort.db"
	LockFilename       = "vidsort.lock"
	CategoriesFilename = "config.toml"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	CacheDir() string
	LockPath() string
	CategoriesPath() string
	SampleCount() int
	ThumbWidth() int
	ThumbHeight() int
	Tiling() string
	GroupColumns() int
	EntryColumns() int
	FFmpegPath() string
	FFprobePath() string
	PlayerPath() string
	ToolTimeout() time.Duration
	Headless() bool
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port     int
	logLevel string
	dataDir  string
	headless bool

	sampleCount  int
	thumbWidth   int
	thumbHeight  int
	tiling       string
	entryColumns int

	ffmpeg  string
	ffprobe string
	player  string
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:         DefaultPort,
		logLevel:     DefaultLogLevel,
		dataDir:      defaultDataDir(),
		sampleCount:  DefaultSampleCount,
		thumbWidth:   DefaultThumbWidth,
		thumbHeight:  DefaultThumbHeight,
		tiling:       DefaultTiling,
		entryColumns: DefaultEntryColumns,
		ffmpeg:       DefaultFFmpeg,
		ffprobe:      DefaultFFprobe,
		player:       DefaultPlayer,
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	var err error
	if cfg.sampleCount, err = positiveIntEnv(EnvSampleCount, cfg.sampleCount); err != nil {
		return nil, err
	}
	if cfg.sampleCount > MaxSampleCount {
		return nil, fmt.Errorf("invalid %s: must be at most %d", EnvSampleCount, MaxSampleCount)
	}
	if cfg.thumbWidth, err = positiveIntEnv(EnvThumbWidth, cfg.thumbWidth); err != nil {
		return nil, err
	}
	if cfg.thumbHeight, err = positiveIntEnv(EnvThumbHeight, cfg.thumbHeight); err != nil {
		return nil, err
	}
	if cfg.entryColumns, err = positiveIntEnv(EnvEntryColumns, cfg.entryColumns); err != nil {
		return nil, err
	}

	if t := os.Getenv(EnvTiling); t != "" {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "legacy" && t != "exact" {
			return nil, fmt.Errorf("invalid %s: must be legacy or exact", EnvTiling)
		}
		cfg.tiling = t
	}

	if v := os.Getenv(EnvFFmpeg); v != "" {
		cfg.ffmpeg = v
	}
	if v := os.Getenv(EnvFFprobe); v != "" {
		cfg.ffprobe = v
	}
	if v := os.Getenv(EnvPlayer); v != "" {
		cfg.player = v
	}

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		cfg.headless = headless
	}

	return cfg, nil
}

func positiveIntEnv(name string, def int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("invalid %s: must be at least 1", name)
	}
	return n, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// CacheDir returns the directory holding rendered contact sheets
func (c *EnvConfig) CacheDir() string {
	return filepath.Join(c.dataDir, "cache")
}

// LockPath returns the single-instance lock file path
func (c *EnvConfig) LockPath() string {
	return filepath.Join(c.dataDir, LockFilename)
}

// CategoriesPath returns the path of the optional category label file
func (c *EnvConfig) CategoriesPath() string {
	return filepath.Join(c.dataDir, CategoriesFilename)
}

// SampleCount returns the number of frames sampled per contact sheet
func (c *EnvConfig) SampleCount() int {
	return c.sampleCount
}

func (c *EnvConfig) ThumbWidth() int {
	return c.thumbWidth
}

func (c *EnvConfig) ThumbHeight() int {
	return c.thumbHeight
}

// Tiling returns the grid tiling mode, legacy or exact
func (c *EnvConfig) Tiling() string {
	return c.tiling
}

func (c *EnvConfig) GroupColumns() int {
	return DefaultGroupColumns
}

func (c *EnvConfig) EntryColumns() int {
	return c.entryColumns
}

func (c *EnvConfig) FFmpegPath() string {
	return c.ffmpeg
}

func (c *EnvConfig) FFprobePath() string {
	return c.ffprobe
}

func (c *EnvConfig) PlayerPath() string {
	return c.player
}

func (c *EnvConfig) ToolTimeout() time.Duration {
	return time.Duration(DefaultToolTimeout) * time.Second
}

// Headless reports whether the system tray should be skipped
func (c *EnvConfig) Headless() bool {
	return c.headless
}

// SetSampleCount overrides the sample count, used by command line flags.
// Zero keeps the current value.
func (c *EnvConfig) SetSampleCount(n int) error {
	switch {
	case n == 0:
		return nil
	case n < 0 || n > MaxSampleCount:
		return fmt.Errorf("invalid sample count %d: must be between 1 and %d", n, MaxSampleCount)
	}
	c.sampleCount = n
	return nil
}

// SetThumbSize overrides the thumbnail bounds, used by command line flags.
func (c *EnvConfig) SetThumbSize(width, height int) {
	if width > 0 {
		c.thumbWidth = width
	}
	if height > 0 {
		c.thumbHeight = height
	}
}

// SetTiling overrides the tiling mode, used by command line flags.
func (c *EnvConfig) SetTiling(mode string) error {
	mode = strings.ToLower(strings.TrimSpace(mode))
	switch mode {
	case "":
		return nil
	case "legacy", "exact":
		c.tiling = mode
		return nil
	default:
		return fmt.Errorf("invalid tiling %q: must be legacy or exact", mode)
	}
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
