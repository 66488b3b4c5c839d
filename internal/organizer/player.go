package organizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
)

var ErrPlayerNotFound = errors.New("player executable not found")

// Player opens files in an external video player.
type Player struct {
	bin    string
	logger *slog.Logger

	lookPath func(string) (string, error)
	start    func(*exec.Cmd) error
}

func NewPlayer(bin string, logger *slog.Logger) *Player {
	if bin == "" {
		bin = "mpv"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{
		bin:      bin,
		logger:   logger,
		lookPath: exec.LookPath,
		start:    startDetached,
	}
}

// Bin returns the configured player executable.
func (p *Player) Bin() string {
	return p.bin
}

// Play starts the player on path and returns without waiting for it to exit.
// The player is not tied to ctx; it outlives the request that started it.
func (p *Player) Play(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return err
	}

	bin, err := p.lookPath(p.bin)
	if err != nil {
		p.logger.Error("player not installed", "player", p.bin, "error", err)
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, p.bin)
	}

	cmd := exec.Command(bin, path)
	if err := p.start(cmd); err != nil {
		return fmt.Errorf("start %s: %w", p.bin, err)
	}
	p.logger.Info("started player", "player", p.bin, "path", path)
	return nil
}

func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}
