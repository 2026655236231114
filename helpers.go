package moleprep

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// fileExists is the default skip precondition for downloads.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// dirExists is the default skip precondition for extractions and
// builds. Presence alone is trusted; a partially-written directory
// still counts as done and must be deleted manually to force a rerun.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// FormatForFilename maps an archive filename to the extractor format
// key, or "" when the extension is not recognized.
//
// The pipeline itself picks formats explicitly; this helper exists for
// callers driving the registry from user-supplied paths.
func FormatForFilename(filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".tar.xz"):
		return FormatTarXz
	case strings.HasSuffix(lower, ".zip"):
		return FormatZip
	}
	return ""
}

// entryPath resolves an archive entry name under destDir, rejecting
// names that escape the destination. Archives arrive from
// operator-overridable URLs, so entry names are untrusted input.
func entryPath(destDir, name string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(name))
	rel, err := filepath.Rel(destDir, target)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", errors.Errorf("entry %q escapes destination directory", name)
	}
	return target, nil
}

// checkLinkTarget rejects symlink targets that resolve outside
// destDir. symlinkPath is the location the link will be created at.
func checkLinkTarget(destDir, symlinkPath, linkname string) error {
	if filepath.IsAbs(linkname) {
		return errors.Errorf("symlink target %q is absolute", linkname)
	}
	resolved := filepath.Join(filepath.Dir(symlinkPath), linkname)
	rel, err := filepath.Rel(destDir, resolved)
	if err != nil || strings.HasPrefix(rel, "..") {
		return errors.Errorf("symlink target %q escapes destination directory", linkname)
	}
	return nil
}

// moveEntry relocates a file or directory, falling back to copy and
// remove when rename fails (typically a cross-device move).
func moveEntry(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	if info.IsDir() {
		if err := copyTree(src, dest); err != nil {
			return err
		}
	} else {
		if err := copyFile(src, dest, info.Mode()); err != nil {
			return err
		}
	}

	return os.RemoveAll(src)
}

func copyTree(src, dest string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		return copyFile(path, target, info.Mode())
	})
}

func copyFile(src, dest string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}
