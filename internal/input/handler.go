// Package input gathers the source files a check run reads.
package input

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/chris-regnier/warden/internal/engine"
)

// Handler reads files from disk. Accept, when set, filters by path before
// anything is read.
type Handler struct {
	Accept func(path string) bool
	logger *slog.Logger
}

func NewHandler(accept func(string) bool, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Accept: accept, logger: logger}
}

func (h *Handler) accepts(path string) bool {
	return h.Accept == nil || h.Accept(path)
}

// Collect reads every accepted file named by paths. Directories are
// walked recursively, skipping hidden ones. The result is sorted by path
// and holds each file once.
func (h *Handler) Collect(paths []string) ([]engine.File, error) {
	seen := make(map[string]bool)
	var files []engine.File
	add := func(path string) error {
		path = filepath.Clean(path)
		if seen[path] || !h.accepts(path) {
			return nil
		}
		seen[path] = true
		f, ok, err := h.read(path)
		if err != nil {
			return err
		}
		if ok {
			files = append(files, f)
		}
		return nil
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		if !info.IsDir() {
			if err := add(p); err != nil {
				return nil, err
			}
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if strings.HasPrefix(d.Name(), ".") && path != p {
					return filepath.SkipDir
				}
				return nil
			}
			return add(path)
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", p, err)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (h *Handler) read(path string) (engine.File, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.File{}, false, fmt.Errorf("reading %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		h.logger.Warn("skipping file with invalid UTF-8", "path", path)
		return engine.File{}, false, nil
	}
	return engine.File{Path: path, Text: string(data)}, true, nil
}

// ChangedPaths lists the files a unified git diff leaves in place, in
// diff order. Deleted files are left out.
func ChangedPaths(diff string) []string {
	var paths []string
	current := ""
	flush := func() {
		if current != "" {
			paths = append(paths, current)
		}
		current = ""
	}
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "diff --git"):
			flush()
			if parts := strings.Fields(line); len(parts) >= 4 {
				current = strings.TrimPrefix(parts[len(parts)-1], "b/")
			}
		case strings.HasPrefix(line, "deleted file mode"):
			current = ""
		}
	}
	flush()
	return paths
}
