package util

import (
	"os"
	"path/filepath"
	"strings"
)

// CleanupPartialFiles removes leftovers of interrupted writes from dir and
// returns what was removed.
func CleanupPartialFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var removed []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), PartialSuffix) {
			continue
		}
		full := filepath.Join(dir, e.Name())
		if os.Remove(full) == nil {
			removed = append(removed, full)
		}
	}
	return removed
}

// RemoveIfEmpty deletes dir when it has no entries.
func RemoveIfEmpty(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return false
	}
	return os.Remove(dir) == nil
}

func CleanupFolder(path string) {
	_ = os.RemoveAll(path)
}
