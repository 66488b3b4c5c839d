package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/vidsort/vidsort/internal/config"
	"github.com/vidsort/vidsort/internal/contactsheet"
	"github.com/vidsort/vidsort/internal/logging"
	"github.com/vidsort/vidsort/internal/video"
)

// commandContext carries flag values and lazily built dependencies shared by
// every subcommand.
type commandContext struct {
	count    int
	width    int
	height   int
	tiling   string
	logLevel string

	cfg    *config.EnvConfig
	reader contactsheet.FrameReader
	stderr io.Writer
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

func (c *commandContext) ensureConfig() (*config.EnvConfig, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.New()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if err := cfg.SetSampleCount(c.count); err != nil {
		return nil, err
	}
	cfg.SetThumbSize(c.width, c.height)
	if err := cfg.SetTiling(c.tiling); err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *commandContext) logger() *slog.Logger {
	level := c.logLevel
	if level == "" {
		level = "warn"
	}
	w := c.stderr
	if w == nil {
		w = io.Discard
	}
	return logging.NewTextLogger(w, level)
}

func (c *commandContext) generator() (*contactsheet.Generator, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	tiling, err := contactsheet.ParseTiling(cfg.Tiling())
	if err != nil {
		return nil, err
	}
	logger := c.logger()
	reader := c.reader
	if reader == nil {
		reader = video.NewFFmpeg(video.Config{
			FFmpegPath:  cfg.FFmpegPath(),
			FFprobePath: cfg.FFprobePath(),
			Timeout:     cfg.ToolTimeout(),
			Logger:      logger,
		})
	}
	return contactsheet.NewGenerator(reader, tiling, logger), nil
}
