package organizer

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// Candidate is a file queued for sheet generation.
type Candidate struct {
	Path  string
	Group string
}

// listFiles returns the visible regular files directly inside dir, sorted,
// including symlinks to regular files. Every file counts; extensions are not
// checked.
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if isHidden(e.Name()) || e.IsDir() {
			continue
		}
		p := filepath.Join(dir, e.Name())
		fi, err := os.Stat(p)
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		files = append(files, p)
	}
	slices.Sort(files)
	return files, nil
}

// CollectFlat walks root recursively and returns every visible regular file,
// or symlink to one, in lexical order. Linked directories are not followed.
// Unreadable directories are skipped.
func CollectFlat(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil
		}
		if p != root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() || (d.Type()&fs.ModeSymlink != 0 && linksToFile(p)) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// collectCategories returns the files of every category folder, grouped by
// category name, in category order.
func collectCategories(cats []Category) []Candidate {
	var out []Candidate
	for _, c := range cats {
		files, err := listFiles(c.Path)
		if err != nil {
			continue
		}
		for _, f := range files {
			out = append(out, Candidate{Path: f, Group: c.Name})
		}
	}
	return out
}

func linksToFile(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.Mode().IsRegular()
}
