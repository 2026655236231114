package moleprep

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
)

// TarXzExtractor unpacks xz-compressed tarballs.
//
// The archive file is retained after extraction so a rerun can skip
// the download as well as the unpack.
type TarXzExtractor struct {
	// Exists is the skip precondition, overridable in tests.
	Exists func(path string) bool

	Logger *log.Logger
}

// Name returns the extractor name.
func (e *TarXzExtractor) Name() string {
	return "TarXz"
}

// CanExtract reports whether format names an xz tarball.
func (e *TarXzExtractor) CanExtract(format string) bool {
	return format == FormatTarXz
}

// Extract unpacks archive into destDir, skipping when destDir/outDir
// already exists.
func (e *TarXzExtractor) Extract(archive, destDir, outDir string) error {
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

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return &ExtractError{Archive: archive, Format: FormatTarXz, Err: err}
	}

	f, err := os.Open(archive)
	if err != nil {
		return &ExtractError{Archive: archive, Format: FormatTarXz, Err: err}
	}
	defer f.Close()

	xzr, err := xz.NewReader(f)
	if err != nil {
		return &ExtractError{Archive: archive, Format: FormatTarXz, Err: err}
	}

	tr := tar.NewReader(xzr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &ExtractError{Archive: archive, Format: FormatTarXz, Err: err}
		}

		target, err := entryPath(destDir, hdr.Name)
		if err != nil {
			return &ExtractError{Archive: archive, Format: FormatTarXz, Err: err}
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(hdr.Mode)); err != nil {
				return &ExtractError{Archive: archive, Format: FormatTarXz, Err: err}
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return &ExtractError{Archive: archive, Format: FormatTarXz, Err: err}
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode))
			if err != nil {
				return &ExtractError{Archive: archive, Format: FormatTarXz, Err: err}
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return &ExtractError{Archive: archive, Format: FormatTarXz, Err: err}
			}
			if err := out.Close(); err != nil {
				return &ExtractError{Archive: archive, Format: FormatTarXz, Err: err}
			}
		case tar.TypeSymlink:
			if err := checkLinkTarget(destDir, target, hdr.Linkname); err != nil {
				return &ExtractError{Archive: archive, Format: FormatTarXz, Err: err}
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil && !os.IsExist(err) {
				return &ExtractError{Archive: archive, Format: FormatTarXz, Err: err}
			}
		default:
			// Hard links and special files do not occur in source
			// tarballs we consume.
			return &ExtractError{
				Archive: archive,
				Format:  FormatTarXz,
				Err:     errors.Errorf("unsupported tar entry type %d for %s", hdr.Typeflag, hdr.Name),
			}
		}
	}

	return nil
}

func (e *TarXzExtractor) log() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.Default()
}
