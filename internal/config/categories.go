package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// CategoryDef names a category folder and how it is shown.
type CategoryDef struct {
	Name  string `toml:"name"`
	Label string `toml:"label"`
	Color string `toml:"color"`
}

// CategoryFile is the on-disk layout of config.toml:
//
//	[[category]]
//	name = "keep"
//	label = "Keep"
//	color = "green"
type CategoryFile struct {
	Categories []CategoryDef `toml:"category"`
}

// LoadCategories reads category defs from path. A missing file yields no
// defs and no error.
func LoadCategories(path string) ([]CategoryDef, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open categories: %w", err)
	}
	defer file.Close()

	var parsed CategoryFile
	if err := toml.NewDecoder(file).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parse categories: %w", err)
	}

	seen := make(map[string]bool, len(parsed.Categories))
	defs := make([]CategoryDef, 0, len(parsed.Categories))
	for i, def := range parsed.Categories {
		def.Name = strings.TrimSpace(def.Name)
		def.Label = strings.TrimSpace(def.Label)
		def.Color = strings.TrimSpace(def.Color)
		if def.Name == "" {
			return nil, fmt.Errorf("category %d: name is required", i+1)
		}
		if seen[def.Name] {
			return nil, fmt.Errorf("category %q declared twice", def.Name)
		}
		seen[def.Name] = true
		if def.Label == "" {
			def.Label = def.Name
		}
		defs = append(defs, def)
	}
	return defs, nil
}
