package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanDir walks dir and discovers transaction exports (.csv, .json, .jsonl).
// A missing directory yields no files and no error. Results are sorted by path.
func ScanDir(dir string) ([]DiscoveredFile, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		if f, ok := classify(dir); ok {
			return []DiscoveredFile{f}, nil
		}
		return nil, nil
	}

	var files []DiscoveredFile
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // skip unreadable entries
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if f, ok := classify(path); ok {
			files = append(files, f)
		}
		return nil
	})

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, err
}

func classify(path string) (DiscoveredFile, bool) {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return DiscoveredFile{}, false
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return DiscoveredFile{Path: path, Format: FormatCSV}, true
	case ".json":
		return DiscoveredFile{Path: path, Format: FormatJSON}, true
	case ".jsonl", ".ndjson":
		return DiscoveredFile{Path: path, Format: FormatJSONL}, true
	}
	return DiscoveredFile{}, false
}
