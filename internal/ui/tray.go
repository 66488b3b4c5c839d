package ui

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/getlantern/systray"
	"github.com/pkg/browser"
)

// BoardState is what the tray shows about the open board.
type BoardState interface {
	Root() string
	Len() int
	Scanning() bool
	Clear() int
}

// Pauser controls the scan runner.
type Pauser interface {
	Pause()
	Resume()
	IsPaused() bool
}

type Tray struct {
	board    BoardState
	runner   Pauser
	boardURL string
	logger   *slog.Logger

	statusItem *systray.MenuItem
	folderItem *systray.MenuItem
	pauseItem  *systray.MenuItem

	mu sync.Mutex

	openURL func(url string) error
	onQuit  func()
}

type TrayConfig struct {
	Board    BoardState
	Runner   Pauser
	BoardURL string
	Logger   *slog.Logger
	OnQuit   func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		board:    cfg.Board,
		runner:   cfg.Runner,
		boardURL: cfg.BoardURL,
		logger:   cfg.Logger,
		openURL:  browser.OpenURL,
		onQuit:   cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("vidsort")
	systray.SetTooltip("vidsort")

	t.statusItem = systray.AddMenuItem("Status: Idle", "Current status")
	t.statusItem.Disable()

	t.folderItem = systray.AddMenuItem("No folder open", "Open folder")
	t.folderItem.Disable()

	systray.AddSeparator()

	openItem := systray.AddMenuItem("Open Board", "Show the board in a browser")
	t.pauseItem = systray.AddMenuItem("Pause", "Pause scanning")
	clearItem := systray.AddMenuItem("Clear Board", "Remove every entry from the board")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit vidsort")

	ticker := time.NewTicker(2 * time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.refresh()
			case <-openItem.ClickedCh:
				t.OpenBoard()
			case <-t.pauseItem.ClickedCh:
				t.togglePause()
			case <-clearItem.ClickedCh:
				n := t.board.Clear()
				t.logger.Info("board cleared from tray", "removed", n)
				t.refresh()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

// OpenBoard shows the board page in the default browser.
func (t *Tray) OpenBoard() {
	if err := t.openURL(t.boardURL); err != nil {
		t.logger.Error("failed to open browser", "error", err)
	}
}

func (t *Tray) togglePause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.runner == nil {
		return
	}

	if t.runner.IsPaused() {
		t.runner.Resume()
		t.pauseItem.SetTitle("Pause")
	} else {
		t.runner.Pause()
		t.pauseItem.SetTitle("Resume")
	}
	t.statusItem.SetTitle("Status: " + t.status())
}

func (t *Tray) refresh() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.statusItem.SetTitle("Status: " + t.status())
	if root := t.board.Root(); root != "" {
		t.folderItem.SetTitle(fmt.Sprintf("%s (%d)", root, t.board.Len()))
	} else {
		t.folderItem.SetTitle("No folder open")
	}
}

func (t *Tray) status() string {
	switch {
	case t.runner != nil && t.runner.IsPaused():
		return "Paused"
	case t.board.Scanning():
		return "Scanning"
	default:
		return "Idle"
	}
}

func (t *Tray) Quit() {
	systray.Quit()
}
