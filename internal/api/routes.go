package api

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vidsort/vidsort/internal/catalog"
	"github.com/vidsort/vidsort/internal/fsx"
	"github.com/vidsort/vidsort/internal/organizer"
)

//go:embed static/index.html
var staticFS embed.FS

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSAllowlist())

	r.Get("/health", healthHandler(cfg))

	// Loaded by the browser through img and video tags, which cannot carry a
	// bearer token.
	r.Group(func(r chi.Router) {
		r.Use(LoopbackGuard())

		r.Get("/", indexHandler())
		r.Get("/entries/{id}/sheet", sheetHandler(cfg))
		r.Get("/playback/file", playbackHandler(cfg))
		r.Head("/playback/file", playbackHandler(cfg))
	})

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))
		r.Get("/board", getBoardHandler(cfg))
		r.Post("/board", openBoardHandler(cfg))
		r.Delete("/board", clearBoardHandler(cfg))
		r.Post("/entries/{id}/move", moveHandler(cfg))
		r.Post("/entries/{id}/play", playHandler(cfg))
		r.Delete("/entries/{id}", removeEntryHandler(cfg))
		r.Get("/sources", listSourcesHandler(cfg))
		r.Get("/moves", listMovesHandler(cfg))
		r.Get("/jobs", listJobsHandler(cfg))
		r.Get("/jobs/{id}", getJobHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		version := cfg.Version
		if version == "" {
			version = "dev"
		}
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: version,
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
		})
	}
}

func indexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := staticFS.ReadFile("static/index.html")
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "board page missing", "INTERNAL_ERROR")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page)
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		filesCount, _ := cfg.CatalogService.CountFiles(ctx)
		jobs, _ := cfg.CatalogService.ListJobs(ctx, 10)

		state := "idle"
		var activeJob *JobResponse
		jobsRunning := 0
		lastError := ""

		for _, j := range jobs {
			if j.Status == catalog.JobStatusRunning {
				state = "scanning"
				resp := JobToResponse(j)
				activeJob = &resp
				jobsRunning++
			}
			if j.Status == catalog.JobStatusFailed && lastError == "" {
				lastError = j.Error
			}
		}
		if cfg.Board.Scanning() {
			state = "scanning"
		}
		if lastError != "" && state == "idle" {
			state = "error"
		}
		if cfg.Runner != nil && cfg.Runner.IsPaused() {
			state = "paused"
		}

		resp := StatusResponse{
			State:       state,
			LastError:   lastError,
			Root:        cfg.Board.Root(),
			Entries:     cfg.Board.Len(),
			FilesCount:  filesCount,
			Scanning:    cfg.Board.Scanning(),
			JobsRunning: jobsRunning,
			ActiveJob:   activeJob,
		}

		if cfg.Doctor != nil {
			if caps := cfg.Doctor.Peek(); caps != nil {
				resp.Tools = ToolsToResponse(caps)
			}
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func getBoardHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := cfg.Board
		if b.Root() == "" {
			WriteError(w, http.StatusNotFound, organizer.ErrNoBoard.Error(), "NO_BOARD")
			return
		}

		cats := b.Categories()
		resp := BoardResponse{
			Root:       b.Root(),
			Layout:     string(b.Layout()),
			Scanning:   b.Scanning(),
			Count:      b.Len(),
			Categories: make([]CategoryResponse, len(cats)),
		}
		for i, c := range cats {
			resp.Categories[i] = CategoryResponse{Name: c.Name, Label: c.Label, Color: c.Color}
		}
		grid := b.GroupGrid()
		resp.Grid = make([][]GroupResponse, len(grid))
		for i, row := range grid {
			resp.Grid[i] = make([]GroupResponse, len(row))
			for j, g := range row {
				resp.Grid[i][j] = GroupToResponse(g)
			}
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func openBoardHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req OpenBoardRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if strings.TrimSpace(req.Path) == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		source, job, err := cfg.CatalogService.OpenFolder(r.Context(), req.Path, req.Flat)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		if cfg.Runner != nil {
			cfg.Runner.Wake()
		}

		WriteJSON(w, http.StatusAccepted, OpenBoardResponse{SourceID: source.ID, JobID: job.ID})
	}
}

func clearBoardHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, ClearResponse{Removed: cfg.Board.Clear()})
	}
}

func sheetHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		// Buffer so a failed read still produces a JSON error.
		var buf bytes.Buffer
		if err := cfg.Board.WriteSheet(id, &buf); err != nil {
			if errors.Is(err, organizer.ErrEntryNotFound) {
				WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
				return
			}
			cfg.Logger.Error("sheet read failed", "entry_id", id, "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to read sheet", "INTERNAL_ERROR")
			return
		}

		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.Header().Set("Cache-Control", "private, max-age=3600")
		w.WriteHeader(http.StatusOK)
		buf.WriteTo(w)
	}
}

func moveHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req MoveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		rec, err := cfg.Board.Move(r.Context(), id, req.Category)
		if err != nil {
			status, code := moveErrorStatus(err)
			WriteError(w, status, err.Error(), code)
			return
		}
		WriteJSON(w, http.StatusOK, MoveToResponse(rec))
	}
}

func moveErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, organizer.ErrEntryNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, organizer.ErrNoBoard):
		return http.StatusConflict, "NO_BOARD"
	case errors.Is(err, organizer.ErrInvalidCategory):
		return http.StatusBadRequest, "INVALID_CATEGORY"
	case errors.Is(err, organizer.ErrUnknownCategory):
		return http.StatusUnprocessableEntity, "UNKNOWN_CATEGORY"
	case errors.Is(err, organizer.ErrDestinationExists):
		return http.StatusConflict, "DESTINATION_EXISTS"
	case errors.Is(err, organizer.ErrAlreadyInCategory):
		return http.StatusConflict, "ALREADY_IN_CATEGORY"
	case fsx.IsCrossDevice(err):
		return http.StatusConflict, "CROSS_DEVICE"
	case fsx.IsPathTypeConflict(err):
		return http.StatusConflict, "PATH_CONFLICT"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func playHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		e, ok := cfg.Board.Entry(id)
		if !ok {
			WriteError(w, http.StatusNotFound, organizer.ErrEntryNotFound.Error(), "NOT_FOUND")
			return
		}
		if cfg.Player == nil {
			WriteError(w, http.StatusServiceUnavailable, organizer.ErrPlayerNotFound.Error(), "PLAYER_UNAVAILABLE")
			return
		}
		// The player outlives the request.
		if err := cfg.Player.Play(context.WithoutCancel(r.Context()), e.Path); err != nil {
			if errors.Is(err, organizer.ErrPlayerNotFound) {
				WriteError(w, http.StatusServiceUnavailable, err.Error(), "PLAYER_UNAVAILABLE")
				return
			}
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func removeEntryHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Board.Remove(chi.URLParam(r, "id")); err != nil {
			WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listSourcesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sources, err := cfg.CatalogService.GetSources(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list sources", "INTERNAL_ERROR")
			return
		}

		resp := SourcesResponse{Sources: make([]SourceResponse, len(sources))}
		for i, s := range sources {
			resp.Sources[i] = SourceToResponse(s)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func listMovesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		moves, err := cfg.CatalogService.ListMoves(r.Context(), queryLimit(r, 100))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list moves", "INTERNAL_ERROR")
			return
		}

		resp := MovesResponse{Moves: make([]MoveResponse, len(moves))}
		for i, m := range moves {
			resp.Moves[i] = StoredMoveToResponse(m)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := cfg.CatalogService.ListJobs(r.Context(), queryLimit(r, 50))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := JobsResponse{Jobs: make([]JobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		job, err := cfg.CatalogService.GetJob(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}

func playbackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("entry_id") == "" {
			WriteError(w, http.StatusBadRequest, "entry_id is required", "BAD_REQUEST")
			return
		}
		if err := cfg.PlaybackServer.ServeEntry(w, r); err != nil {
			cfg.Logger.Error("playback error", "error", err, "entry_id", r.URL.Query().Get("entry_id"))
		}
	}
}

func queryLimit(r *http.Request, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return def
	}
	return min(n, 1000)
}
