package organizer

import (
	"bytes"
	"context"
	"errors"
	"image/jpeg"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/vidsort/vidsort/internal/contactsheet"
	"github.com/vidsort/vidsort/internal/video"
)

type fakeMaker struct {
	mu    sync.Mutex
	calls []string
	bad   map[string]bool
}

func (m *fakeMaker) Generate(ctx context.Context, path string, count int) (*contactsheet.Sheet, error) {
	m.mu.Lock()
	m.calls = append(m.calls, filepath.Base(path))
	m.mu.Unlock()

	if m.bad[filepath.Base(path)] {
		return nil, contactsheet.ErrOpenSource
	}
	src := video.Source{Path: path, FrameCount: 100, Width: 32, Height: 18}
	plan, err := contactsheet.NewPlan(count, src.FrameCount, contactsheet.TilingLegacy)
	if err != nil {
		return nil, err
	}
	sheet, err := contactsheet.NewSheet(src, plan)
	if err != nil {
		return nil, err
	}
	sheet.Decoded = count
	return sheet, nil
}

func (m *fakeMaker) Tiling() contactsheet.Tiling { return contactsheet.TilingLegacy }

func (m *fakeMaker) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type fakeRecorder struct {
	recs []MoveRecord
	err  error
}

func (r *fakeRecorder) RecordMove(ctx context.Context, rec MoveRecord) error {
	r.recs = append(r.recs, rec)
	return r.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("data:"+path), 0o644); err != nil {
		t.Fatal(err)
	}
}

// layoutRoot creates:
//
//	root/keep/a.mp4, root/keep/b.mkv
//	root/trash/c.avi
//	root/empty/
//	root/.hidden/x.mp4
//	root/loose.mp4
func layoutRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep", "a.mp4"))
	writeFile(t, filepath.Join(root, "keep", "b.mkv"))
	writeFile(t, filepath.Join(root, "keep", ".DS_Store"))
	writeFile(t, filepath.Join(root, "trash", "c.avi"))
	writeFile(t, filepath.Join(root, ".hidden", "x.mp4"))
	writeFile(t, filepath.Join(root, "loose.mp4"))
	if err := os.Mkdir(filepath.Join(root, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}
	return root
}

func entryNames(entries []Entry) []string {
	var names []string
	for _, e := range entries {
		names = append(names, e.Group+"/"+e.Filename)
	}
	return names
}

func TestBoardOpen_Categories(t *testing.T) {
	root := layoutRoot(t)
	maker := &fakeMaker{}
	board := NewBoard(maker, nil, nil, Options{}, quietLogger())

	var events []ScanEvent
	res, err := board.Open(context.Background(), root, func(ev ScanEvent) { events = append(events, ev) })
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if res.Total != 3 || res.Added != 3 || res.Failed != 0 {
		t.Errorf("result = %+v, want 3 total, 3 added", res)
	}

	want := []string{"keep/a.mp4", "keep/b.mkv", "trash/c.avi"}
	if got := entryNames(board.Entries()); !slices.Equal(got, want) {
		t.Errorf("entries = %v, want %v", got, want)
	}

	var cats []string
	for _, c := range board.Categories() {
		cats = append(cats, c.Name)
	}
	if want := []string{"empty", "keep", "trash"}; !slices.Equal(cats, want) {
		t.Errorf("categories = %v, want %v", cats, want)
	}

	if len(events) != 3 || events[2].Done != 3 || events[2].Total != 3 {
		t.Errorf("events = %+v", events)
	}

	e := board.Entries()[0]
	if e.Rows != 3 || e.Cols != 3 || e.FrameCount != 100 {
		t.Errorf("entry sheet = %dx%d frames=%d, want 3x3 frames=100", e.Rows, e.Cols, e.FrameCount)
	}
	if e.Thumbnail() == nil {
		t.Error("uncached entry should keep its thumbnail in memory")
	}
	if board.Scanning() {
		t.Error("Scanning() = true after Open returned")
	}
}

func TestBoardOpen_SkipsFailures(t *testing.T) {
	root := layoutRoot(t)
	maker := &fakeMaker{bad: map[string]bool{"b.mkv": true}}
	board := NewBoard(maker, nil, nil, Options{}, quietLogger())

	res, err := board.Open(context.Background(), root, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if res.Added != 2 || res.Failed != 1 {
		t.Errorf("result = %+v, want 2 added, 1 failed", res)
	}
	if _, ok := board.EntryByPath(filepath.Join(root, "keep", "b.mkv")); ok {
		t.Error("failed file should have no entry")
	}
	if maker.callCount() != 3 {
		t.Errorf("Generate calls = %d, want 3", maker.callCount())
	}
}

// oversizedReader claims impossible dimensions for b.mkv, the way a
// corrupt header can.
type oversizedReader struct{}

func (oversizedReader) Open(ctx context.Context, path string) (video.Source, error) {
	if filepath.Base(path) == "b.mkv" {
		return video.Source{Path: path, FrameCount: 10, Width: 1 << 20, Height: 1 << 20}, nil
	}
	return video.Source{Path: path, FrameCount: 10, Width: 8, Height: 8}, nil
}

func (oversizedReader) ReadFrame(ctx context.Context, src video.Source, index int) (*video.Frame, error) {
	pix := bytes.Repeat([]byte{0x40}, src.Width*src.Height*3)
	return &video.Frame{Index: index, Width: src.Width, Height: src.Height, Pix: pix}, nil
}

func TestBoardOpen_SkipsOversizedSheets(t *testing.T) {
	root := layoutRoot(t)
	gen := contactsheet.NewGenerator(oversizedReader{}, contactsheet.TilingLegacy, quietLogger())
	board := NewBoard(gen, nil, nil, Options{}, quietLogger())

	var failures []error
	res, err := board.Open(context.Background(), root, func(ev ScanEvent) {
		if ev.Err != nil {
			failures = append(failures, ev.Err)
		}
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if res.Added != 2 || res.Failed != 1 {
		t.Errorf("result = %+v, want 2 added, 1 failed", res)
	}
	if len(failures) != 1 || !errors.Is(failures[0], contactsheet.ErrSheetTooLarge) {
		t.Errorf("failures = %v, want one ErrSheetTooLarge", failures)
	}
}

func TestBoardOpen_OverridesCreateFolders(t *testing.T) {
	root := layoutRoot(t)
	opts := Options{Overrides: []CategoryOverride{
		{Name: "keep", Label: "Keepers", Color: "gold"},
		{Name: "review", Label: "To Review"},
	}}
	board := NewBoard(&fakeMaker{}, nil, nil, opts, quietLogger())

	if _, err := board.Open(context.Background(), root, nil); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if fi, err := os.Stat(filepath.Join(root, "review")); err != nil || !fi.IsDir() {
		t.Errorf("override category folder not created: %v", err)
	}

	cats := board.Categories()
	byName := map[string]Category{}
	for _, c := range cats {
		byName[c.Name] = c
	}
	if byName["keep"].Label != "Keepers" || byName["keep"].Color != "gold" {
		t.Errorf("keep = %+v", byName["keep"])
	}
	if byName["trash"].Label != "trash" {
		t.Errorf("trash label = %q, want identity", byName["trash"].Label)
	}
	if cats[len(cats)-1].Name != "review" {
		t.Errorf("override-only category should come last: %+v", cats)
	}
}

func TestBoardOpen_RejectsInvalidOverride(t *testing.T) {
	opts := Options{Overrides: []CategoryOverride{{Name: "../escape"}}}
	board := NewBoard(&fakeMaker{}, nil, nil, opts, quietLogger())
	if _, err := board.Open(context.Background(), t.TempDir(), nil); !errors.Is(err, ErrInvalidCategory) {
		t.Errorf("Open() error = %v, want ErrInvalidCategory", err)
	}
}

func TestBoardOpen_NotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "f.mp4")
	writeFile(t, file)
	board := NewBoard(&fakeMaker{}, nil, nil, Options{}, quietLogger())
	if _, err := board.Open(context.Background(), file, nil); !errors.Is(err, ErrNotDirectory) {
		t.Errorf("Open(file) error = %v, want ErrNotDirectory", err)
	}
}

func TestBoardOpenFlat(t *testing.T) {
	root := layoutRoot(t)
	board := NewBoard(&fakeMaker{}, nil, nil, Options{}, quietLogger())

	res, err := board.OpenFlat(context.Background(), root, nil)
	if err != nil {
		t.Fatalf("OpenFlat() error = %v", err)
	}
	if res.Added != 4 {
		t.Errorf("Added = %d, want 4", res.Added)
	}
	var got []string
	for _, e := range board.Entries() {
		rel, _ := filepath.Rel(root, e.Path)
		got = append(got, filepath.ToSlash(rel))
	}
	want := []string{"keep/a.mp4", "keep/b.mkv", "loose.mp4", "trash/c.avi"}
	if !slices.Equal(got, want) {
		t.Errorf("entries = %v, want %v", got, want)
	}
	if len(board.Categories()) != 0 {
		t.Errorf("flat board has categories: %v", board.Categories())
	}

	groups := board.Groups()
	if len(groups) != 1 || len(groups[0].Rows) != 2 || len(groups[0].Rows[0]) != 3 {
		t.Errorf("flat groups = %+v, want one group of rows [3 1]", groups)
	}
}

func TestBoardOpen_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	board := NewBoard(&fakeMaker{}, nil, nil, Options{}, quietLogger())
	if _, err := board.Open(ctx, layoutRoot(t), nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Open() error = %v, want context.Canceled", err)
	}
}

func TestBoardMove(t *testing.T) {
	root := layoutRoot(t)
	rec := &fakeRecorder{}
	board := NewBoard(&fakeMaker{}, nil, rec, Options{}, quietLogger())
	if _, err := board.Open(context.Background(), root, nil); err != nil {
		t.Fatal(err)
	}

	src := filepath.Join(root, "keep", "a.mp4")
	e, ok := board.EntryByPath(src)
	if !ok {
		t.Fatal("entry for a.mp4 missing")
	}

	moved, err := board.Move(context.Background(), e.ID, "trash")
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}

	dst := filepath.Join(root, "trash", "a.mp4")
	if moved.To != dst || moved.From != src {
		t.Errorf("record = %+v", moved)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Errorf("source still present: %v", err)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Errorf("destination missing: %v", err)
	}
	if _, ok := board.Entry(e.ID); ok {
		t.Error("entry still tracked after move")
	}
	if board.Len() != 2 {
		t.Errorf("Len() = %d, want 2", board.Len())
	}
	if len(rec.recs) != 1 || rec.recs[0].Category != "trash" {
		t.Errorf("recorded moves = %+v", rec.recs)
	}
}

func TestBoardMovePath_RecorderFailureStillMoves(t *testing.T) {
	root := layoutRoot(t)
	rec := &fakeRecorder{err: errors.New("database is locked")}
	board := NewBoard(&fakeMaker{}, nil, rec, Options{}, quietLogger())
	if _, err := board.Open(context.Background(), root, nil); err != nil {
		t.Fatal(err)
	}

	if _, err := board.MovePath(context.Background(), filepath.Join(root, "trash", "c.avi"), "empty"); err != nil {
		t.Fatalf("MovePath() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "empty", "c.avi")); err != nil {
		t.Errorf("destination missing: %v", err)
	}
}

func TestBoardMove_Errors(t *testing.T) {
	root := layoutRoot(t)
	writeFile(t, filepath.Join(root, "trash", "a.mp4"))

	board := NewBoard(&fakeMaker{}, nil, nil, Options{}, quietLogger())
	ctx := context.Background()

	if _, err := board.Move(ctx, "nope", "trash"); !errors.Is(err, ErrNoBoard) {
		t.Errorf("Move() before Open error = %v, want ErrNoBoard", err)
	}

	if _, err := board.Open(ctx, root, nil); err != nil {
		t.Fatal(err)
	}
	a, _ := board.EntryByPath(filepath.Join(root, "keep", "a.mp4"))

	tests := []struct {
		name     string
		id       string
		category string
		want     error
	}{
		{"unknown entry", "nope", "trash", ErrEntryNotFound},
		{"unknown category", a.ID, "archive", ErrUnknownCategory},
		{"traversal", a.ID, "../x", ErrInvalidCategory},
		{"same category", a.ID, "keep", ErrAlreadyInCategory},
		{"collision", a.ID, "trash", ErrDestinationExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := board.Move(ctx, tt.id, tt.category); !errors.Is(err, tt.want) {
				t.Errorf("Move() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, ok := board.Entry(a.ID); !ok {
		t.Error("failed moves must keep the entry")
	}
	if _, err := os.Stat(a.Path); err != nil {
		t.Errorf("failed moves must keep the file: %v", err)
	}
}

func TestBoardMove_FlatCreatesCategory(t *testing.T) {
	root := layoutRoot(t)
	board := NewBoard(&fakeMaker{}, nil, nil, Options{}, quietLogger())
	if _, err := board.OpenFlat(context.Background(), root, nil); err != nil {
		t.Fatal(err)
	}
	e, _ := board.EntryByPath(filepath.Join(root, "loose.mp4"))
	if _, err := board.Move(context.Background(), e.ID, "sorted"); err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "sorted", "loose.mp4")); err != nil {
		t.Errorf("destination missing: %v", err)
	}
}

func TestBoardMove_ReadersNotBlockedDuringRename(t *testing.T) {
	root := layoutRoot(t)
	board := NewBoard(&fakeMaker{}, nil, nil, Options{}, quietLogger())
	if _, err := board.Open(context.Background(), root, nil); err != nil {
		t.Fatal(err)
	}

	rename := board.moveFile
	board.moveFile = func(src, dst string) error {
		seen := make(chan int, 1)
		go func() { seen <- len(board.Groups()) }()
		select {
		case n := <-seen:
			if n == 0 {
				t.Error("board looked empty during the rename")
			}
		case <-time.After(2 * time.Second):
			t.Error("board reads blocked while the file was renamed")
		}
		return rename(src, dst)
	}

	e, _ := board.EntryByPath(filepath.Join(root, "keep", "a.mp4"))
	if _, err := board.Move(context.Background(), e.ID, "trash"); err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if _, ok := board.Entry(e.ID); ok {
		t.Error("entry still tracked after move")
	}
}

func TestBoardMove_Symlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need extra privileges on windows")
	}
	root := t.TempDir()
	target := filepath.Join(t.TempDir(), "real.mp4")
	writeFile(t, target)
	if err := os.MkdirAll(filepath.Join(root, "trash"), 0o755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(root, "keep", "link.mp4")
	if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, link); err != nil {
		t.Fatal(err)
	}

	board := NewBoard(&fakeMaker{}, nil, nil, Options{}, quietLogger())
	if _, err := board.Open(context.Background(), root, nil); err != nil {
		t.Fatal(err)
	}
	e, ok := board.EntryByPath(link)
	if !ok {
		t.Fatal("symlinked file should be scanned")
	}

	if _, err := board.Move(context.Background(), e.ID, "trash"); err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	dst := filepath.Join(root, "trash", "link.mp4")
	if got, err := os.Readlink(dst); err != nil || got != target {
		t.Errorf("moved link = %q, %v, want link to %q", got, err, target)
	}
	if _, err := os.Lstat(link); !os.IsNotExist(err) {
		t.Errorf("link still in keep: %v", err)
	}
	if board.Len() != 0 {
		t.Errorf("Len() = %d, want 0", board.Len())
	}
}

func TestCollectFlat_IncludesFileLinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need extra privileges on windows")
	}
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.mp4"))
	outside := t.TempDir()
	writeFile(t, filepath.Join(outside, "real.mp4"))
	if err := os.Symlink(filepath.Join(outside, "real.mp4"), filepath.Join(root, "b.mp4")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(outside, filepath.Join(root, "dirlink")); err != nil {
		t.Fatal(err)
	}

	files, err := CollectFlat(root)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(root, "a.mp4"), filepath.Join(root, "b.mp4")}
	if !slices.Equal(files, want) {
		t.Errorf("CollectFlat() = %v, want %v", files, want)
	}
}

func TestBoardRemoveAndClear(t *testing.T) {
	root := layoutRoot(t)
	board := NewBoard(&fakeMaker{}, nil, nil, Options{}, quietLogger())
	if _, err := board.Open(context.Background(), root, nil); err != nil {
		t.Fatal(err)
	}

	first := board.Entries()[0]
	if err := board.Remove(first.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := board.Remove(first.ID); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("second Remove() error = %v, want ErrEntryNotFound", err)
	}
	if _, err := os.Stat(first.Path); err != nil {
		t.Errorf("Remove must not touch the file: %v", err)
	}

	if n := board.Clear(); n != 2 {
		t.Errorf("Clear() = %d, want 2", n)
	}
	if board.Len() != 0 {
		t.Errorf("Len() after Clear = %d", board.Len())
	}
	if board.Root() != root {
		t.Errorf("Clear should keep the root, got %q", board.Root())
	}
}

func TestBoardRemovePathAndGrid(t *testing.T) {
	root := layoutRoot(t)
	board := NewBoard(&fakeMaker{}, nil, nil, Options{}, quietLogger())
	if _, err := board.Open(context.Background(), root, nil); err != nil {
		t.Fatal(err)
	}

	grid := board.Grid(2)
	if len(grid) != 2 || len(grid[0]) != 2 || len(grid[1]) != 1 {
		t.Fatalf("Grid(2) shape = %v", grid)
	}
	if grid[1][0].Filename != "c.avi" {
		t.Errorf("last cell = %s, want c.avi", grid[1][0].Filename)
	}

	if err := board.RemovePath(filepath.Join(root, "keep", "b.mkv")); err != nil {
		t.Fatalf("RemovePath() error = %v", err)
	}
	if err := board.RemovePath(filepath.Join(root, "keep", "b.mkv")); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("second RemovePath() error = %v", err)
	}
	if got := entryNames(board.Entries()); !slices.Equal(got, []string{"keep/a.mp4", "trash/c.avi"}) {
		t.Errorf("entries = %v", got)
	}
}

func TestBoardGroups(t *testing.T) {
	root := t.TempDir()
	for i := range 7 {
		writeFile(t, filepath.Join(root, "a", string(rune('a'+i))+".mp4"))
	}
	writeFile(t, filepath.Join(root, "b", "z.mp4"))
	if err := os.Mkdir(filepath.Join(root, "c"), 0o755); err != nil {
		t.Fatal(err)
	}

	board := NewBoard(&fakeMaker{}, nil, nil, Options{}, quietLogger())
	if _, err := board.Open(context.Background(), root, nil); err != nil {
		t.Fatal(err)
	}

	groups := board.Groups()
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2 (empty category hidden)", len(groups))
	}
	if len(groups[0].Rows) != 2 || len(groups[0].Rows[0]) != 5 || len(groups[0].Rows[1]) != 2 {
		t.Errorf("group a rows = %v, want [5 2]", groups[0].Rows)
	}
	if groups[0].Color != ColorFor(0) || groups[1].Color != ColorFor(1) {
		t.Errorf("group colors = %s, %s", groups[0].Color, groups[1].Color)
	}
	if grid := board.GroupGrid(); len(grid) != 1 || len(grid[0]) != 2 {
		t.Errorf("GroupGrid() = %v", grid)
	}
}

func TestBoardCache(t *testing.T) {
	root := layoutRoot(t)
	cache := NewSheetCache(filepath.Join(t.TempDir(), "cache"))
	maker := &fakeMaker{}

	board := NewBoard(maker, cache, nil, Options{}, quietLogger())
	if _, err := board.Open(context.Background(), root, nil); err != nil {
		t.Fatal(err)
	}
	if maker.callCount() != 3 {
		t.Fatalf("first open Generate calls = %d, want 3", maker.callCount())
	}

	e := board.Entries()[0]
	if e.SheetPath == "" || e.Cached {
		t.Errorf("first open entry = %+v, want stored and not cached", e)
	}

	var buf bytes.Buffer
	if err := board.WriteSheet(e.ID, &buf); err != nil {
		t.Fatalf("WriteSheet() error = %v", err)
	}
	img, err := jpeg.Decode(&buf)
	if err != nil {
		t.Fatalf("cached sheet is not a JPEG: %v", err)
	}
	// 96x54 sheet scaled into 350x350.
	if b := img.Bounds(); b.Dx() != 350 || b.Dy() != 196 {
		t.Errorf("thumbnail = %v, want 350x196", b)
	}

	res, err := board.Open(context.Background(), root, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Cached != 3 || maker.callCount() != 3 {
		t.Errorf("reopen cached = %d, calls = %d; want 3 cached and no new calls", res.Cached, maker.callCount())
	}
	if e := board.Entries()[0]; e.Rows != 3 || e.FrameCount != 100 {
		t.Errorf("cached entry lost metadata: %+v", e)
	}
}

func TestBoardWriteSheet_InMemory(t *testing.T) {
	root := layoutRoot(t)
	board := NewBoard(&fakeMaker{}, nil, nil, Options{}, quietLogger())
	if _, err := board.Open(context.Background(), root, nil); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := board.WriteSheet(board.Entries()[0].ID, &buf); err != nil {
		t.Fatalf("WriteSheet() error = %v", err)
	}
	if _, err := jpeg.Decode(&buf); err != nil {
		t.Errorf("not a JPEG: %v", err)
	}
	if err := board.WriteSheet("missing", io.Discard); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("WriteSheet(missing) error = %v", err)
	}
}

func TestPlayer(t *testing.T) {
	file := filepath.Join(t.TempDir(), "a.mp4")
	writeFile(t, file)

	p := NewPlayer("mpv", quietLogger())
	var started *exec.Cmd
	p.lookPath = func(name string) (string, error) { return "/usr/bin/" + name, nil }
	p.start = func(cmd *exec.Cmd) error {
		started = cmd
		return nil
	}

	if err := p.Play(context.Background(), file); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if started == nil || started.Path != "/usr/bin/mpv" || !slices.Equal(started.Args[1:], []string{file}) {
		t.Errorf("started = %+v", started)
	}
}

func TestPlayer_NotFound(t *testing.T) {
	file := filepath.Join(t.TempDir(), "a.mp4")
	writeFile(t, file)

	p := NewPlayer("mpv", quietLogger())
	p.lookPath = func(string) (string, error) { return "", exec.ErrNotFound }
	p.start = func(*exec.Cmd) error {
		t.Error("start called without a player")
		return nil
	}

	if err := p.Play(context.Background(), file); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("Play() error = %v, want ErrPlayerNotFound", err)
	}
	if err := p.Play(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Play(missing file) should fail")
	}
}
