package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Item is one file or folder name to resolve.
type Item struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir,omitempty"`
}

// Discover walks root and returns the video files whose extension is in
// exts. With includeDirs the immediate subdirectories of root are returned
// as folder items too. Hidden entries are skipped. Output is sorted by path.
func Discover(root string, exts []string, includeDirs bool) ([]Item, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat library root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("library root %s is not a directory", root)
	}

	allowed := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			allowed[ext] = struct{}{}
		}
	}

	var items []Item
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if includeDirs && filepath.Dir(path) == filepath.Clean(root) {
				items = append(items, Item{Path: path, Name: name, IsDir: true})
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
		if _, ok := allowed[ext]; ok {
			items = append(items, Item{Path: path, Name: name})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk library root: %w", err)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })
	return items, nil
}

// ItemsFromNames wraps raw names given on the command line.
func ItemsFromNames(names []string, isDir bool) []Item {
	items := make([]Item, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		items = append(items, Item{Path: name, Name: filepath.Base(name), IsDir: isDir})
	}
	return items
}
