package organizer

import (
	"os"
	"path/filepath"
	"slices"
)

// Palette is cycled through to give each category a distinct border color.
var Palette = []string{
	"red",
	"green",
	"blue",
	"yellow",
	"purple",
	"orange",
	"pink",
	"brown",
	"cyan",
	"magenta",
	"lime",
	"maroon",
	"navy",
	"olive",
	"teal",
}

// ColorFor returns the palette color for the i-th category.
func ColorFor(i int) string {
	n := len(Palette)
	return Palette[(i%n+n)%n]
}

// Category is a drop target: a subfolder of the board root.
type Category struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Color string `json:"color"`
	Path  string `json:"path"`
}

// CategoryOverride changes the label or color of a category, or declares a
// category whose folder does not exist yet.
type CategoryOverride struct {
	Name  string
	Label string
	Color string
}

// listCategoryDirs returns the visible immediate subdirectories of root,
// sorted by name.
func listCategoryDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if isHidden(e.Name()) {
			continue
		}
		if e.IsDir() {
			names = append(names, e.Name())
			continue
		}
		if e.Type()&os.ModeSymlink != 0 {
			if fi, err := os.Stat(filepath.Join(root, e.Name())); err == nil && fi.IsDir() {
				names = append(names, e.Name())
			}
		}
	}
	slices.Sort(names)
	return names, nil
}

// resolveCategories merges the folders found on disk with configured
// overrides. Folders keep their on-disk order; override-only categories are
// appended in configuration order. The label defaults to the folder name.
func resolveCategories(root string, dirs []string, overrides []CategoryOverride) []Category {
	byName := make(map[string]CategoryOverride, len(overrides))
	for _, o := range overrides {
		byName[o.Name] = o
	}

	names := slices.Clone(dirs)
	for _, o := range overrides {
		if !slices.Contains(names, o.Name) {
			names = append(names, o.Name)
		}
	}

	cats := make([]Category, 0, len(names))
	for i, name := range names {
		c := Category{
			Name:  name,
			Label: name,
			Color: ColorFor(i),
			Path:  filepath.Join(root, name),
		}
		if o, ok := byName[name]; ok {
			if o.Label != "" {
				c.Label = o.Label
			}
			if o.Color != "" {
				c.Color = o.Color
			}
		}
		cats = append(cats, c)
	}
	return cats
}
