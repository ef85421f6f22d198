package docs

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"git.home.luguber.info/inful/specsync/internal/observability"
	"git.home.luguber.info/inful/specsync/internal/report"
)

// Scanner walks a documentation tree and parses every MDX/Markdown file.
type Scanner struct {
	// Root is the documentation root directory.
	Root string
	// Workers bounds the parse worker pool. Zero means GOMAXPROCS.
	Workers int
}

// ScanResult holds parsed documents in deterministic (path-sorted) order
// along with any per-file defects encountered.
type ScanResult struct {
	Documents []*Document
	Defects   []report.Defect
}

// Scan discovers and parses all documentation files under Root.
//
// Unreadable or undecodable files are recorded as defects and skipped; only
// total inability to read the root directory is fatal. Parsing is
// parallelized across files, but results are recombined by source path so
// output order never depends on worker completion order.
func (s *Scanner) Scan(ctx context.Context) (*ScanResult, error) {
	paths, err := s.collectPaths()
	if err != nil {
		return nil, err
	}

	workers := s.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(paths) && len(paths) > 0 {
		workers = len(paths)
	}

	type slot struct {
		doc    *Document
		defect *report.Defect
	}
	slots := make([]slot, len(paths))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				doc, defect := s.parseOne(ctx, paths[i])
				slots[i] = slot{doc: doc, defect: defect}
			}
		}()
	}

	for i := range paths {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &ScanResult{}
	for _, sl := range slots {
		if sl.defect != nil {
			result.Defects = append(result.Defects, *sl.defect)
		}
		if sl.doc != nil {
			result.Documents = append(result.Documents, sl.doc)
		}
	}
	return result, nil
}

func (s *Scanner) parseOne(ctx context.Context, relPath string) (*Document, *report.Defect) {
	ctx = observability.WithPath(ctx, relPath)

	content, err := os.ReadFile(filepath.Join(s.Root, filepath.FromSlash(relPath)))
	if err != nil {
		observability.WarnContext(ctx, "skipping unreadable document", slog.Any("error", err))
		return nil, &report.Defect{Path: relPath, Kind: report.KindUnreadableDocument, Message: err.Error()}
	}

	doc, err := Parse(relPath, content)
	if err != nil {
		observability.WarnContext(ctx, "skipping undecodable document", slog.Any("error", err))
		return nil, &report.Defect{Path: relPath, Kind: report.KindUnreadableDocument, Message: err.Error()}
	}

	return doc, nil
}

// collectPaths returns the relative paths of all documentation files under
// Root, sorted lexicographically.
func (s *Scanner) collectPaths() ([]string, error) {
	info, err := os.Stat(s.Root)
	if err != nil {
		return nil, fmt.Errorf("documentation root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("documentation root %s is not a directory", s.Root)
	}

	var paths []string
	err = filepath.WalkDir(s.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// A single unreadable subdirectory must not block the batch.
			slog.Warn("skipping unreadable path", slog.String("path", path), slog.Any("error", err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !isDocFile(path) {
			return nil
		}
		rel, err := filepath.Rel(s.Root, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}

func isDocFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mdx", ".md", ".markdown":
		return true
	default:
		return false
	}
}
