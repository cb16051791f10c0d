package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// writeAtomic writes data to path by writing to a sibling temp file and
// renaming it into place, so a crash mid-write never leaves a subsequent
// load seeing a partially written file. Mirrors the corruption-avoidance
// intent of internal/marketplace/store.go's saveIndex, made atomic on the
// primary write path rather than only on corruption recovery.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
