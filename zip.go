package moleprep

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// ZipExtractor unpacks zip archives.
//
// Unlike TarXzExtractor, the archive file is deleted after a
// successful extraction. The asymmetry mirrors the two download
// lifecycles: the zip is a transient branch snapshot with no value
// once unpacked, the tarball is a versioned release kept for reruns.
type ZipExtractor struct {
	// Exists is the skip precondition, overridable in tests.
	Exists func(path string) bool

	Logger *log.Logger
}

// Name returns the extractor name.
func (e *ZipExtractor) Name() string {
	return "Zip"
}

// CanExtract reports whether format names a zip container.
func (e *ZipExtractor) CanExtract(format string) bool {
	return format == FormatZip
}

// Extract unpacks archive into destDir, skipping when destDir/outDir
// already exists. On success the archive file is removed.
func (e *ZipExtractor) Extract(archive, destDir, outDir string) error {
	exists := e.Exists
	if exists == nil {
		exists = dirExists
	}
	expected := filepath.Join(destDir, outDir)
	if exists(expected) {
		e.log().Info("already extracted, skipping", "dir", expected)
		return nil
	}

	e.log().Info("extracting", "archive", archive, "dest", destDir)

	r, err := zip.OpenReader(archive)
	if err != nil {
		return &ExtractError{Archive: archive, Format: FormatZip, Err: err}
	}

	for _, file := range r.File {
		if err := extractZipEntry(file, destDir); err != nil {
			r.Close()
			return &ExtractError{Archive: archive, Format: FormatZip, Err: err}
		}
	}

	if err := r.Close(); err != nil {
		return &ExtractError{Archive: archive, Format: FormatZip, Err: err}
	}

	// The zip is not kept; only the tarball download supports
	// skip-on-rerun. The extraction itself succeeded at this point, so
	// a removal failure is not an ExtractError.
	if err := os.Remove(archive); err != nil {
		return errors.Wrap(err, "remove zip archive after extraction")
	}

	return nil
}

func extractZipEntry(file *zip.File, destDir string) error {
	target, err := entryPath(destDir, file.Name)
	if err != nil {
		return err
	}

	if file.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.Mode())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}

func (e *ZipExtractor) log() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.Default()
}
