package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew_Defaults(t *testing.T) {
	for _, env := range []string{EnvPort, EnvSampleCount, EnvTiling, EnvThumbWidth, EnvThumbHeight, EnvHeadless} {
		t.Setenv(env, "")
	}

	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cfg.Port() != DefaultPort {
		t.Errorf("Port() = %d, want %d", cfg.Port(), DefaultPort)
	}
	if cfg.SampleCount() != 9 {
		t.Errorf("SampleCount() = %d, want 9", cfg.SampleCount())
	}
	if cfg.ThumbWidth() != 350 || cfg.ThumbHeight() != 350 {
		t.Errorf("thumb size = %dx%d, want 350x350", cfg.ThumbWidth(), cfg.ThumbHeight())
	}
	if cfg.Tiling() != "legacy" {
		t.Errorf("Tiling() = %q, want legacy", cfg.Tiling())
	}
	if cfg.PlayerPath() != "mpv" {
		t.Errorf("PlayerPath() = %q, want mpv", cfg.PlayerPath())
	}
	if cfg.Headless() {
		t.Error("Headless() = true, want false")
	}
}

func TestNew_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvPort, "9000")
	t.Setenv(EnvDataDir, dir)
	t.Setenv(EnvSampleCount, "16")
	t.Setenv(EnvTiling, "EXACT")
	t.Setenv(EnvHeadless, "true")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cfg.Port() != 9000 {
		t.Errorf("Port() = %d, want 9000", cfg.Port())
	}
	if cfg.SampleCount() != 16 {
		t.Errorf("SampleCount() = %d, want 16", cfg.SampleCount())
	}
	if cfg.Tiling() != "exact" {
		t.Errorf("Tiling() = %q, want exact", cfg.Tiling())
	}
	if !cfg.Headless() {
		t.Error("Headless() = false, want true")
	}
	if cfg.DBPath() != filepath.Join(dir, DBFilename) {
		t.Errorf("DBPath() = %q", cfg.DBPath())
	}
	if cfg.CategoriesPath() != filepath.Join(dir, CategoriesFilename) {
		t.Errorf("CategoriesPath() = %q", cfg.CategoriesPath())
	}
}

func TestNew_InvalidValues(t *testing.T) {
	tests := []struct {
		env   string
		value string
	}{
		{EnvPort, "abc"},
		{EnvPort, "70000"},
		{EnvSampleCount, "0"},
		{EnvSampleCount, "nine"},
		{EnvSampleCount, "401"},
		{EnvTiling, "spiral"},
		{EnvHeadless, "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.env+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			if _, err := New(); err == nil {
				t.Errorf("New() with %s=%q should fail", tt.env, tt.value)
			}
		})
	}
}

func TestSetSampleCount(t *testing.T) {
	cfg := &EnvConfig{sampleCount: DefaultSampleCount}
	if err := cfg.SetSampleCount(0); err != nil || cfg.SampleCount() != DefaultSampleCount {
		t.Errorf("SetSampleCount(0) = %v, count %d", err, cfg.SampleCount())
	}
	if err := cfg.SetSampleCount(16); err != nil || cfg.SampleCount() != 16 {
		t.Errorf("SetSampleCount(16) = %v, count %d", err, cfg.SampleCount())
	}
	for _, n := range []int{-1, MaxSampleCount + 1} {
		if err := cfg.SetSampleCount(n); err == nil {
			t.Errorf("SetSampleCount(%d) should fail", n)
		}
	}
	if cfg.SampleCount() != 16 {
		t.Errorf("rejected counts changed the value to %d", cfg.SampleCount())
	}
}

func TestSetTiling(t *testing.T) {
	cfg := &EnvConfig{tiling: DefaultTiling}
	if err := cfg.SetTiling("exact"); err != nil {
		t.Fatalf("SetTiling(exact) error = %v", err)
	}
	if cfg.Tiling() != "exact" {
		t.Errorf("Tiling() = %q, want exact", cfg.Tiling())
	}
	if err := cfg.SetTiling("bogus"); err == nil {
		t.Error("SetTiling(bogus) should fail")
	}
	if err := cfg.SetTiling(""); err != nil || cfg.Tiling() != "exact" {
		t.Errorf("SetTiling(\"\") changed mode to %q (err %v)", cfg.Tiling(), err)
	}
}

func TestLoadCategories_Missing(t *testing.T) {
	defs, err := LoadCategories(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("LoadCategories() error = %v", err)
	}
	if defs != nil {
		t.Errorf("defs = %v, want nil", defs)
	}
}

func TestLoadCategories_Parse(t *testing.T) {
	path := filepath.Join(t.TempDir(), CategoriesFilename)
	content := `
[[category]]
name = "keep"
label = "Keep"
color = "green"

[[category]]
name = "trash"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	defs, err := LoadCategories(path)
	if err != nil {
		t.Fatalf("LoadCategories() error = %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("len(defs) = %d, want 2", len(defs))
	}
	if defs[0].Label != "Keep" || defs[0].Color != "green" {
		t.Errorf("defs[0] = %+v", defs[0])
	}
	if defs[1].Label != "trash" {
		t.Errorf("defs[1].Label = %q, want name fallback", defs[1].Label)
	}
}

func TestLoadCategories_Duplicate(t *testing.T) {
	path := filepath.Join(t.TempDir(), CategoriesFilename)
	content := "[[category]]\nname = \"a\"\n[[category]]\nname = \"a\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCategories(path); err == nil {
		t.Error("LoadCategories() should reject duplicate names")
	}
}
