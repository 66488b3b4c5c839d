// Package organizer lays out contact sheets for a folder of videos and moves
// files into category subfolders.
package organizer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vidsort/vidsort/internal/contactsheet"
	"github.com/vidsort/vidsort/internal/fsx"
)

var (
	ErrNoBoard           = errors.New("no folder is open")
	ErrEntryNotFound     = errors.New("entry not found")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrInvalidCategory   = errors.New("invalid category name")
	ErrDestinationExists = errors.New("destination already exists")
	ErrAlreadyInCategory = errors.New("file is already in that category")
	ErrNotDirectory      = errors.New("path is not a directory")
)

// Layout describes how files were discovered under the root.
type Layout string

const (
	// LayoutCategories: immediate subfolders are categories and their files
	// are the entries.
	LayoutCategories Layout = "categories"
	// LayoutFlat: every file under the root, recursively, with no categories.
	LayoutFlat Layout = "flat"
)

const (
	DefaultGroupColumns = 3
	DefaultEntryColumns = 5
	DefaultViewerSize   = 800
)

// SheetMaker produces a contact sheet for one file.
type SheetMaker interface {
	Generate(ctx context.Context, path string, count int) (*contactsheet.Sheet, error)
	Tiling() contactsheet.Tiling
}

// MoveRecord describes a completed move.
type MoveRecord struct {
	EntryID  string    `json:"entry_id"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	Category string    `json:"category"`
	MovedAt  time.Time `json:"moved_at"`
}

// MoveRecorder persists completed moves. Failures are logged only; the file
// has already moved.
type MoveRecorder interface {
	RecordMove(ctx context.Context, rec MoveRecord) error
}

// ScanEvent reports the outcome of one file during Open.
type ScanEvent struct {
	Done  int
	Total int
	Path  string
	Entry *Entry
	Err   error
}

// ScanFunc observes scan progress. It is called from the scanning goroutine.
type ScanFunc func(ScanEvent)

// ScanResult summarizes a completed scan.
type ScanResult struct {
	Root   string `json:"root"`
	Layout Layout `json:"layout"`
	Total  int    `json:"total"`
	Added  int    `json:"added"`
	Cached int    `json:"cached"`
	Failed int    `json:"failed"`
}

// Options configures a Board. Zero values select the defaults.
type Options struct {
	SampleCount  int
	ThumbWidth   int
	ThumbHeight  int
	ViewerWidth  int
	ViewerHeight int
	GroupColumns int
	EntryColumns int
	Overrides    []CategoryOverride
}

func (o *Options) setDefaults() {
	if o.SampleCount < 1 {
		o.SampleCount = 9
	}
	if o.ThumbWidth < 1 {
		o.ThumbWidth = 350
	}
	if o.ThumbHeight < 1 {
		o.ThumbHeight = 350
	}
	if o.ViewerWidth < 1 {
		o.ViewerWidth = DefaultViewerSize
	}
	if o.ViewerHeight < 1 {
		o.ViewerHeight = DefaultViewerSize
	}
	if o.GroupColumns < 1 {
		o.GroupColumns = DefaultGroupColumns
	}
	if o.EntryColumns < 1 {
		o.EntryColumns = DefaultEntryColumns
	}
}

// Board tracks the entries of the currently open folder. All methods are
// safe for concurrent use; Open runs one file at a time.
type Board struct {
	maker    SheetMaker
	cache    *SheetCache
	recorder MoveRecorder
	opts     Options
	logger   *slog.Logger
	moveFile func(src, dst string) error

	// moveMu serializes moves so mu need not be held across a rename.
	moveMu sync.Mutex

	mu         sync.RWMutex
	root       string
	layout     Layout
	categories []Category
	entries    map[string]*Entry
	order      []string
	scanning   bool
}

// NewBoard returns an empty board. cache and recorder may be nil.
func NewBoard(maker SheetMaker, cache *SheetCache, recorder MoveRecorder, opts Options, logger *slog.Logger) *Board {
	opts.setDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Board{
		maker:    maker,
		cache:    cache,
		recorder: recorder,
		opts:     opts,
		logger:   logger,
		moveFile: fsx.MoveNoOverwrite,
		entries:  make(map[string]*Entry),
	}
}

// Open selects root in the categories layout. Its visible subfolders, plus
// any configured overrides, become categories; missing category folders are
// created. A sheet is generated for every file directly inside a category
// folder. Files that cannot be turned into a sheet are logged and skipped.
func (b *Board) Open(ctx context.Context, root string, observe ScanFunc) (*ScanResult, error) {
	root, err := checkRoot(root)
	if err != nil {
		return nil, err
	}

	for _, o := range b.opts.Overrides {
		if err := ValidateCategoryName(o.Name); err != nil {
			return nil, err
		}
	}

	dirs, err := listCategoryDirs(root)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	cats := resolveCategories(root, dirs, b.opts.Overrides)
	for _, c := range cats {
		if err := os.MkdirAll(c.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create category %s: %w", c.Name, err)
		}
	}

	b.reset(root, LayoutCategories, cats)
	return b.scan(ctx, root, LayoutCategories, collectCategories(cats), b.opts.ThumbWidth, b.opts.ThumbHeight, observe)
}

// OpenFlat selects root in the flat layout: every file under root,
// recursively, with larger previews and no categories.
func (b *Board) OpenFlat(ctx context.Context, root string, observe ScanFunc) (*ScanResult, error) {
	root, err := checkRoot(root)
	if err != nil {
		return nil, err
	}

	files, err := CollectFlat(root)
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	candidates := make([]Candidate, len(files))
	for i, f := range files {
		candidates[i] = Candidate{Path: f}
	}

	b.reset(root, LayoutFlat, nil)
	return b.scan(ctx, root, LayoutFlat, candidates, b.opts.ViewerWidth, b.opts.ViewerHeight, observe)
}

func checkRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("open folder: %w", err)
	}
	if !fi.IsDir() {
		return "", fmt.Errorf("%s: %w", abs, ErrNotDirectory)
	}
	return abs, nil
}

func (b *Board) reset(root string, layout Layout, cats []Category) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.root = root
	b.layout = layout
	b.categories = cats
	b.entries = make(map[string]*Entry)
	b.order = nil
	b.scanning = true
}

func (b *Board) scan(ctx context.Context, root string, layout Layout, files []Candidate, w, h int, observe ScanFunc) (*ScanResult, error) {
	defer func() {
		b.mu.Lock()
		b.scanning = false
		b.mu.Unlock()
	}()

	res := &ScanResult{Root: root, Layout: layout, Total: len(files)}
	b.logger.Info("scanning folder", "root", root, "layout", layout, "files", len(files))

	for i, c := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		entry, err := b.makeEntry(ctx, c, w, h)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Failed++
			b.logger.Warn("skipping file", "path", c.Path, "error", err)
		} else {
			res.Added++
			if entry.Cached {
				res.Cached++
			}
			b.add(root, entry)
		}

		if observe != nil {
			observe(ScanEvent{Done: i + 1, Total: len(files), Path: c.Path, Entry: entry, Err: err})
		}
	}

	b.logger.Info("scan complete",
		"root", root,
		"added", res.Added,
		"cached", res.Cached,
		"failed", res.Failed,
	)
	return res, nil
}

// add stores entry unless the board was reopened on another root meanwhile.
func (b *Board) add(root string, e *Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.root != root {
		return
	}
	b.entries[e.ID] = e
	b.order = append(b.order, e.ID)
}

func (b *Board) makeEntry(ctx context.Context, c Candidate, w, h int) (*Entry, error) {
	fi, err := os.Stat(c.Path)
	if err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:        uuid.NewString(),
		Path:      c.Path,
		Filename:  filepath.Base(c.Path),
		Group:     c.Group,
		Size:      fi.Size(),
		ModTime:   fi.ModTime(),
		CreatedAt: time.Now(),
	}

	var key string
	if b.cache != nil {
		key, entry.Fingerprint, err = b.cache.Key(c.Path, b.opts.SampleCount, b.maker.Tiling(), w, h)
		if err != nil {
			return nil, err
		}
		if path, meta, ok := b.cache.Lookup(key); ok {
			entry.SheetPath = path
			entry.Cached = true
			applyMeta(entry, meta)
			return entry, nil
		}
	}

	sheet, err := b.maker.Generate(ctx, c.Path, b.opts.SampleCount)
	if err != nil {
		return nil, err
	}
	thumb := sheet.Thumbnail(w, h)

	meta := SheetMeta{
		Source:      c.Path,
		Fingerprint: entry.Fingerprint,
		Rows:        sheet.Rows(),
		Cols:        sheet.Cols(),
		Count:       b.opts.SampleCount,
		FrameCount:  sheet.Source.FrameCount,
		Width:       sheet.Source.Width,
		Height:      sheet.Source.Height,
		Decoded:     sheet.Decoded,
		Failed:      len(sheet.Failed),
	}
	applyMeta(entry, &meta)

	if b.cache != nil {
		path, err := b.cache.Store(key, thumb, meta)
		if err != nil {
			b.logger.Warn("caching sheet failed", "path", c.Path, "error", err)
			entry.thumb = thumb
		} else {
			entry.SheetPath = path
		}
	} else {
		entry.thumb = thumb
	}
	return entry, nil
}

func applyMeta(e *Entry, m *SheetMeta) {
	e.Rows = m.Rows
	e.Cols = m.Cols
	e.FrameCount = m.FrameCount
	e.Width = m.Width
	e.Height = m.Height
	e.Decoded = m.Decoded
	e.Failed = m.Failed
}

// Root returns the open folder, or "" when none is open.
func (b *Board) Root() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.root
}

// Layout returns the layout of the open folder.
func (b *Board) Layout() Layout {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.layout
}

// Scanning reports whether Open is still generating sheets.
func (b *Board) Scanning() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.scanning
}

// Categories returns a copy of the current categories.
func (b *Board) Categories() []Category {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Category, len(b.categories))
	copy(out, b.categories)
	return out
}

// Len returns the number of entries.
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.order)
}

// Entries returns a snapshot of the entries in scan order.
func (b *Board) Entries() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Entry, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, *b.entries[id])
	}
	return out
}

// Entry returns the entry with id.
func (b *Board) Entry(id string) (Entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.entries[id]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// EntryByPath returns the entry tracking path.
func (b *Board) EntryByPath(path string) (Entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, id := range b.order {
		if e := b.entries[id]; e.Path == path {
			return *e, true
		}
	}
	return Entry{}, false
}

// Groups lays the entries out the way the board displays them: one group per
// non-empty category in category order, each chunked into rows of
// EntryColumns. A flat board has a single group named after its root.
func (b *Board) Groups() []Group {
	entries := b.Entries()
	b.mu.RLock()
	layout, root, cats := b.layout, b.root, b.categories
	b.mu.RUnlock()

	if layout == LayoutFlat {
		if len(entries) == 0 {
			return nil
		}
		name := filepath.Base(root)
		return []Group{{Name: name, Label: name, Color: ColorFor(0), Rows: Chunk(entries, b.opts.GroupColumns)}}
	}

	byGroup := make(map[string][]Entry)
	for _, e := range entries {
		byGroup[e.Group] = append(byGroup[e.Group], e)
	}
	var groups []Group
	for _, c := range cats {
		es := byGroup[c.Name]
		if len(es) == 0 {
			continue
		}
		groups = append(groups, Group{Name: c.Name, Label: c.Label, Color: c.Color, Rows: Chunk(es, b.opts.EntryColumns)})
	}
	return groups
}

// Grid lays out every entry in scan order in rows of columns.
func (b *Board) Grid(columns int) [][]Entry {
	return Chunk(b.Entries(), columns)
}

// GroupGrid arranges groups into rows of GroupColumns.
func (b *Board) GroupGrid() [][]Group {
	return Chunk(b.Groups(), b.opts.GroupColumns)
}

// Move renames the entry's file into <root>/<category>/<filename> and drops
// the entry. An existing destination is never overwritten, and a rename
// across filesystems fails with fsx.CrossDeviceError instead of copying.
func (b *Board) Move(ctx context.Context, id, category string) (*MoveRecord, error) {
	if err := ValidateCategoryName(category); err != nil {
		return nil, err
	}

	b.moveMu.Lock()
	defer b.moveMu.Unlock()

	b.mu.RLock()
	if b.root == "" {
		b.mu.RUnlock()
		return nil, ErrNoBoard
	}
	e, ok := b.entries[id]
	if !ok {
		b.mu.RUnlock()
		return nil, ErrEntryNotFound
	}
	from, filename := e.Path, e.Filename
	cat, ok := b.findCategory(category)
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}

	dst := filepath.Join(cat.Path, filename)
	if filepath.Clean(from) == dst {
		return nil, ErrAlreadyInCategory
	}
	// Readers keep going while the rename runs.
	if err := b.moveFile(from, dst); err != nil {
		if errors.Is(err, os.ErrExist) {
			err = fmt.Errorf("%w: %s", ErrDestinationExists, dst)
		}
		b.logger.Error("move failed", "path", from, "category", category, "error", err)
		return nil, err
	}

	b.mu.Lock()
	b.removeLocked(id)
	b.mu.Unlock()

	rec := &MoveRecord{
		EntryID:  id,
		From:     from,
		To:       dst,
		Category: category,
		MovedAt:  time.Now(),
	}
	b.logger.Info("moved file", "from", from, "category", category)

	if b.recorder != nil {
		if err := b.recorder.RecordMove(ctx, *rec); err != nil {
			b.logger.Warn("recording move failed", "to", dst, "error", err)
		}
	}
	return rec, nil
}

// MovePath is Move addressed by the tracked file path.
func (b *Board) MovePath(ctx context.Context, path, category string) (*MoveRecord, error) {
	e, ok := b.EntryByPath(path)
	if !ok {
		return nil, ErrEntryNotFound
	}
	return b.Move(ctx, e.ID, category)
}

// findCategory looks up a category by name. Flat boards accept any valid
// name and create <root>/<name> on demand. Callers hold b.mu.
func (b *Board) findCategory(name string) (Category, bool) {
	for _, c := range b.categories {
		if c.Name == name {
			return c, true
		}
	}
	if b.layout == LayoutFlat {
		return Category{Name: name, Label: name, Path: filepath.Join(b.root, name)}, true
	}
	return Category{}, false
}

// EntryPath returns the file tracked by entry id.
func (b *Board) EntryPath(id string) (string, bool) {
	e, ok := b.Entry(id)
	return e.Path, ok
}

// Remove drops the entry without touching the file.
func (b *Board) Remove(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.entries[id]; !ok {
		return ErrEntryNotFound
	}
	b.removeLocked(id)
	return nil
}

// RemovePath is Remove addressed by the tracked file path.
func (b *Board) RemovePath(path string) error {
	e, ok := b.EntryByPath(path)
	if !ok {
		return ErrEntryNotFound
	}
	return b.Remove(e.ID)
}

func (b *Board) removeLocked(id string) {
	delete(b.entries, id)
	for i, oid := range b.order {
		if oid == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Clear drops every entry and returns how many were removed. The root and
// categories stay selected.
func (b *Board) Clear() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.order)
	b.entries = make(map[string]*Entry)
	b.order = nil
	return n
}

// WriteSheet writes the entry's thumbnail as JPEG.
func (b *Board) WriteSheet(id string, w io.Writer) error {
	e, ok := b.Entry(id)
	if !ok {
		return ErrEntryNotFound
	}
	if e.SheetPath != "" {
		f, err := os.Open(e.SheetPath)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	}
	if e.thumb == nil {
		return fmt.Errorf("entry %s has no sheet", id)
	}
	return contactsheet.EncodeJPEG(w, e.thumb, 0)
}

// Thumbnail returns the in-memory thumbnail of an uncached entry, or nil.
func (e Entry) Thumbnail() image.Image {
	return e.thumb
}
