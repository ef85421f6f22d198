// Package artifacts generates the derived outputs of a reconciliation run:
// the unified mapping, the search index, and grouped client-import
// collections.
package artifacts

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
)

// Writer performs idempotent artifact writes under a root directory.
//
// Content hashes are compared before writing so that re-running the pipeline
// with unchanged inputs touches nothing, keeping version control diffs
// empty.
type Writer struct {
	Root string
}

// Write stores data at relPath under the root. It returns changed=false when
// the existing file already carries identical content.
func (w *Writer) Write(relPath string, data []byte) (changed bool, err error) {
	target := filepath.Join(w.Root, filepath.FromSlash(relPath))

	if existing, err := os.ReadFile(target); err == nil {
		if sha256.Sum256(existing) == sha256.Sum256(data) {
			return false, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
		return false, fmt.Errorf("create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".specsync-*")
	if err != nil {
		return false, fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return false, fmt.Errorf("write artifact %s: %w", relPath, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return false, fmt.Errorf("close artifact %s: %w", relPath, err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		_ = os.Remove(tmpName)
		return false, fmt.Errorf("chmod artifact %s: %w", relPath, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return false, fmt.Errorf("replace artifact %s: %w", relPath, err)
	}
	return true, nil
}
