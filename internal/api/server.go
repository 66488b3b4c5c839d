package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/vidsort/vidsort/internal/catalog"
	"github.com/vidsort/vidsort/internal/organizer"
	"github.com/vidsort/vidsort/internal/video"
)

// BoardService is the part of *organizer.Board the API drives.
type BoardService interface {
	Root() string
	Layout() organizer.Layout
	Scanning() bool
	Len() int
	Categories() []organizer.Category
	Entry(id string) (organizer.Entry, bool)
	GroupGrid() [][]organizer.Group
	Move(ctx context.Context, id, category string) (*organizer.MoveRecord, error)
	Remove(id string) error
	Clear() int
	WriteSheet(id string, w io.Writer) error
}

type PlayerService interface {
	Play(ctx context.Context, path string) error
}

type PlaybackService interface {
	ServeEntry(w http.ResponseWriter, r *http.Request) error
}

type RunnerControl interface {
	IsPaused() bool
	Wake()
	ActiveJobID() string
}

// ToolsDoctor returns the last tool probe without blocking.
type ToolsDoctor interface {
	Peek() *video.Capabilities
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Port           int
	Version        string
	Board          BoardService
	CatalogService catalog.CatalogService
	PlaybackServer PlaybackService
	Player         PlayerService
	Repository     ConfigStore
	Runner         RunnerControl
	Doctor         ToolsDoctor
	Logger         *slog.Logger
	StartTime      time.Time
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// BoardURL is the address of the board page with the auth token in the
// fragment, which browsers never send to the server.
func (s *Server) BoardURL(token string) string {
	return "http://" + s.httpServer.Addr + "/#token=" + token
}
