package moleprep

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// Stage relocates the sources under srcRoot/subpath into destDir.
//
// Each direct child of the subpath (file or directory) is moved
// individually by name; nothing below the top level is inspected.
// The destination is created if absent.
//
// Staging is a move, not a copy: after a successful run the subpath's
// entries no longer exist at their source. That also means Stage is
// not idempotent — a second invocation fails with a *StageError
// because the source subpath is gone.
func Stage(srcRoot, subpath, destDir string, logger *log.Logger) error {
	if logger == nil {
		logger = log.Default()
	}

	src := filepath.Join(srcRoot, filepath.FromSlash(subpath))

	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return &StageError{Path: src, Err: errors.New("source subpath missing")}
		}
		return &StageError{Path: src, Err: err}
	}
	if !info.IsDir() {
		return &StageError{Path: src, Err: errors.New("source subpath is not a directory")}
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return &StageError{Path: destDir, Err: err}
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return &StageError{Path: src, Err: err}
	}

	logger.Info("staging sources", "from", src, "to", destDir, "entries", len(entries))

	for _, entry := range entries {
		from := filepath.Join(src, entry.Name())
		to := filepath.Join(destDir, entry.Name())
		if err := moveEntry(from, to); err != nil {
			return &StageError{Path: from, Err: err}
		}
	}

	return nil
}
