package moleprep

import (
	"fmt"
	"strings"
)

// FetchError reports a failed or incomplete network transfer.
//
// The URL and destination path are carried verbatim so the host build
// log points at the exact resource that needs manual diagnosis.
type FetchError struct {
	URL  string
	Dest string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s -> %s: %v", e.URL, e.Dest, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ExtractError reports a corrupt or unreadable archive.
type ExtractError struct {
	Archive string
	Format  string
	Err     error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract %s archive %s: %v", e.Format, e.Archive, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// BuildError reports a non-zero exit from one of the delegated CMake
// phases. Phase identifies which of the two phases failed; Output
// holds the captured toolchain output for debugging.
type BuildError struct {
	Phase    string // PhaseConfigure or PhaseCompile
	ExitCode int
	Output   []string
	Err      error
}

func (e *BuildError) Error() string {
	msg := fmt.Sprintf("cmake %s phase failed with exit code %d", e.Phase, e.ExitCode)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Output) > 0 {
		msg = fmt.Sprintf("%s\n\nBuild output:\n%s", msg, strings.Join(e.Output, "\n"))
	}
	return msg
}

func (e *BuildError) Unwrap() error { return e.Err }

// StageError reports a missing source subpath or a filesystem failure
// while relocating staged sources.
type StageError struct {
	Path string
	Err  error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Path, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
