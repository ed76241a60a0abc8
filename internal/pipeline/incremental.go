package pipeline

import (
	"fmt"
	"slices"

	"github.com/theirongolddev/spendburn/internal/source"
	"github.com/theirongolddev/spendburn/internal/store"
)

// ImportResult summarizes an import run.
type ImportResult struct {
	TotalFiles  int
	ParsedFiles int
	CacheHits   int
	Reparsed    int
	Removed     int
	ParseErrors int
	FileErrors  int
	Imported    int
	Restored    int // cached files re-saved to restore rows they share with a removed owner
}

// Import discovers exports under dir, diffs them against the store's file
// tracker, and re-imports only new or changed files. Files that were tracked
// under dir but have disappeared have their transactions removed.
func Import(dir string, st *store.Store, defaults source.Defaults, progressFn ProgressFunc) (*ImportResult, error) {
	files, err := source.ScanDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	tracked, err := st.GetTrackedFiles()
	if err != nil {
		return nil, fmt.Errorf("reading file tracker: %w", err)
	}

	result := &ImportResult{TotalFiles: len(files)}

	seen := make(map[string]struct{}, len(files))
	var toParse []source.DiscoveredFile
	for _, f := range files {
		seen[f.Path] = struct{}{}
		mtime, size, err := statFile(f.Path)
		if err != nil {
			result.FileErrors++
			continue
		}
		if cached, ok := tracked[f.Path]; ok && cached.MtimeNs == mtime && cached.SizeBytes == size {
			result.CacheHits++
			continue
		}
		toParse = append(toParse, f)
	}
	result.Reparsed = len(toParse)

	for path := range tracked {
		if _, ok := seen[path]; ok || !withinDir(dir, path) {
			continue
		}
		if err := st.DeleteFile(path); err != nil {
			return result, fmt.Errorf("removing %s: %w", path, err)
		}
		result.Removed++
	}

	parsed := parseAll(toParse, defaults, result.CacheHits, result.TotalFiles, progressFn)
	if err := saveParsed(st, toParse, parsed, result); err != nil {
		return result, err
	}

	// An id owned by a removed or rewritten file may still be listed by a
	// file that was cached. Re-save those so the rows come back.
	orphans, err := st.OrphanedFiles()
	if err != nil {
		return result, fmt.Errorf("checking orphaned rows: %w", err)
	}
	var restore []source.DiscoveredFile
	for _, f := range files {
		if slices.Contains(orphans, f.Path) {
			restore = append(restore, f)
		}
	}
	if len(restore) > 0 {
		result.Restored = len(restore)
		if err := saveParsed(st, restore, parseAll(restore, defaults, 0, len(restore), nil), result); err != nil {
			return result, err
		}
	}

	return result, nil
}

func saveParsed(st *store.Store, files []source.DiscoveredFile, parsed []source.ParseResult, result *ImportResult) error {
	for i, pr := range parsed {
		if pr.Err != nil {
			result.FileErrors++
			continue
		}
		result.ParsedFiles++
		result.ParseErrors += pr.ParseErrors

		mtime, size, err := statFile(files[i].Path)
		if err != nil {
			result.FileErrors++
			continue
		}
		n, err := st.SaveFile(files[i].Path, pr.Transactions, mtime, size)
		if err != nil {
			return fmt.Errorf("saving %s: %w", files[i].Path, err)
		}
		result.Imported += n
	}
	return nil
}
