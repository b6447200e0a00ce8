package retention

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

type candidate struct {
	name    string
	modTime time.Time
}

// Clean enforces a retention policy on dir: once more than maxCount
// files with the given extension exist, the oldest are deleted until
// only the keepCount newest remain. An empty extension matches every
// file. Returns the names of the deleted files.
func Clean(dir, extension string, maxCount, keepCount int) ([]string, error) {
	if keepCount > maxCount {
		keepCount = maxCount
	}
	if keepCount < 0 {
		keepCount = 0
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var files []candidate
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if extension != "" && !strings.EqualFold(filepath.Ext(entry.Name()), extension) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, candidate{name: entry.Name(), modTime: info.ModTime()})
	}

	if len(files) <= maxCount {
		return nil, nil
	}

	// Oldest first; everything beyond the keepCount newest goes.
	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.Before(files[j].modTime)
	})

	var deleted []string
	for _, file := range files[:len(files)-keepCount] {
		if err := os.Remove(filepath.Join(dir, file.name)); err != nil {
			return deleted, fmt.Errorf("remove %s: %w", file.name, err)
		}
		deleted = append(deleted, file.name)
	}
	return deleted, nil
}
