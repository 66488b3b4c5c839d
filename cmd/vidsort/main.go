package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"github.com/vidsort/vidsort/internal/api"
	"github.com/vidsort/vidsort/internal/catalog"
	"github.com/vidsort/vidsort/internal/config"
	"github.com/vidsort/vidsort/internal/contactsheet"
	"github.com/vidsort/vidsort/internal/db"
	"github.com/vidsort/vidsort/internal/logging"
	"github.com/vidsort/vidsort/internal/organizer"
	"github.com/vidsort/vidsort/internal/playback"
	"github.com/vidsort/vidsort/internal/ui"
	"github.com/vidsort/vidsort/internal/video"
)

var errAlreadyRunning = errors.New("another vidsort instance holds the lock")

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.CacheDir(), 0755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting vidsort", "version", config.Version, "data_dir", cfg.DataDir())

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", errAlreadyRunning, cfg.LockPath())
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release lock", "error", err)
		}
	}()

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := catalog.NewRepository(database.Conn())

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	defs, err := config.LoadCategories(cfg.CategoriesPath())
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}
	overrides := make([]organizer.CategoryOverride, len(defs))
	for i, s := range defs {
		overrides[i] = organizer.CategoryOverride{Name: s.Name, Label: s.Label, Color: s.Color}
	}

	tiling, err := contactsheet.ParseTiling(cfg.Tiling())
	if err != nil {
		return err
	}

	doctor := video.NewCachedDoctor(cfg.FFmpegPath(), cfg.FFprobePath(), cfg.PlayerPath(), nil, logging.WithComponent(logger, "doctor"))
	probeCtx, probeCancel := context.WithTimeout(context.Background(), cfg.ToolTimeout())
	caps := doctor.Refresh(probeCtx)
	probeCancel()
	logger.Info("tools detected",
		"ffmpeg", caps.FFmpeg.Available,
		"ffprobe", caps.FFprobe.Available,
		"player", caps.Player.Available,
	)
	if !caps.CanGenerate() {
		logger.Warn("ffmpeg or ffprobe missing, scans will fail until installed")
	}

	decoder := video.NewFFmpeg(video.Config{
		FFmpegPath:  cfg.FFmpegPath(),
		FFprobePath: cfg.FFprobePath(),
		Timeout:     cfg.ToolTimeout(),
		Logger:      logging.WithComponent(logger, "ffmpeg"),
	})
	generator := contactsheet.NewGenerator(decoder, tiling, logging.WithComponent(logger, "contactsheet"))

	board := organizer.NewBoard(
		generator,
		organizer.NewSheetCache(cfg.CacheDir()),
		catalog.NewMoveLog(repo, logger),
		organizer.Options{
			SampleCount:  cfg.SampleCount(),
			ThumbWidth:   cfg.ThumbWidth(),
			ThumbHeight:  cfg.ThumbHeight(),
			GroupColumns: cfg.GroupColumns(),
			EntryColumns: cfg.EntryColumns(),
			Overrides:    overrides,
		},
		logging.WithComponent(logger, "board"),
	)

	catalogSvc := catalog.NewService(repo, board, logger)
	player := organizer.NewPlayer(cfg.PlayerPath(), logger)
	playbackSvc := playback.NewServer(board, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := catalog.NewRunner(catalogSvc, repo, doctor, logger)
	go runner.Start(ctx)

	apiServer := api.NewServer(api.ServerConfig{
		Port:           cfg.Port(),
		Version:        config.Version,
		Board:          board,
		CatalogService: catalogSvc,
		PlaybackServer: playbackSvc,
		Player:         player,
		Repository:     repo,
		Runner:         runner,
		Doctor:         doctor,
		Logger:         logger,
		StartTime:      startTime,
	})
	boardURL := apiServer.BoardURL(authToken)

	fmt.Println()
	fmt.Printf("  vidsort %s\n", config.Version)
	fmt.Printf("  Board:      %s\n", boardURL)
	fmt.Printf("  Auth Token: %s\n", authToken)
	fmt.Println()

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quit := newQuitter()

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			quit.Quit()
		case <-quit.Done():
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Board:    board,
			Runner:   runner,
			BoardURL: boardURL,
			Logger:   logging.WithComponent(logger, "tray"),
			OnQuit:   quit.Quit,
		})
		go tray.Run()
	}

	<-quit.Done()

	shutdown(logger, cancel, apiServer)
	return nil
}

// quitter closes its channel once, whether a signal or the tray asks first.
type quitter struct {
	once sync.Once
	ch   chan struct{}
}

func newQuitter() *quitter {
	return &quitter{ch: make(chan struct{})}
}

func (q *quitter) Quit() {
	q.once.Do(func() { close(q.ch) })
}

func (q *quitter) Done() <-chan struct{} {
	return q.ch
}

func shutdown(logger *slog.Logger, cancel context.CancelFunc, apiServer *api.Server) {
	logger.Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
}

type configStore interface {
	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

func ensureAuthToken(repo configStore) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, api.AuthTokenKey)
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, api.AuthTokenKey, token); err != nil {
		return "", err
	}

	return token, nil
}
