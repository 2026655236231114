package moleprep

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/magefile/mage/sh"
)

// Names of the two delegated build phases.
const (
	PhaseConfigure = "configure"
	PhaseCompile   = "compile"
)

// armadilloConfigureArgs are the fixed options applied at configure
// time: SuperLU and OpenMP support on, and the CMake minimum-version
// policy floor relaxed so Armadillo's older CMakeLists configures
// under current CMake releases.
var armadilloConfigureArgs = []string{
	"-DARMADILLO_USE_SUPERLU=ON",
	"-DARMADILLO_USE_OPENMP=ON",
	"-DCMAKE_POLICY_VERSION_MINIMUM=3.5",
}

// PhaseRunner executes one build phase in a directory and reports the
// toolchain's output and exit status.
//
// The production implementation shells out to cmake; tests substitute
// a recording fake. An error carrying an `ExitStatus() int` method (or
// an *exec.ExitError) propagates its exit code into the BuildError.
type PhaseRunner interface {
	RunPhase(ctx context.Context, dir, phase string, args []string) ([]string, error)
}

// ShellRunner runs build phases with the real cmake binary.
type ShellRunner struct{}

// RunPhase invokes cmake with the given arguments, capturing combined
// output. dir is the working directory; phase is only used for
// reporting.
func (r *ShellRunner) RunPhase(ctx context.Context, dir, phase string, args []string) ([]string, error) {
	cmd := exec.CommandContext(ctx, "cmake", args...)
	cmd.Dir = dir
	cmd.Env = os.Environ()

	output, err := cmd.CombinedOutput()
	lines := strings.Split(strings.TrimRight(string(output), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		lines = nil
	}
	return lines, err
}

// CMakeBuilder drives the two-phase CMake build of an extracted
// Armadillo source tree.
//
// The build directory (srcDir/build) doubles as the idempotency
// marker: when present, both phases are skipped. The toolchain's
// output is not validated beyond exit status.
type CMakeBuilder struct {
	// Runner executes the phases. Defaults to ShellRunner.
	Runner PhaseRunner

	// Exists is the skip precondition, overridable in tests.
	Exists func(path string) bool

	Logger *log.Logger
}

// RequiredTools returns the external tools the builder shells out to.
func (b *CMakeBuilder) RequiredTools() []ToolRequirement {
	return []ToolRequirement{
		{Name: "cmake", Purpose: "CMake build system"},
		{Name: "make", Alternatives: []string{"gmake", "ninja", "nmake"}, Optional: true, Purpose: "backing build tool"},
	}
}

// CheckTools verifies the required tools are on PATH.
func (b *CMakeBuilder) CheckTools() error {
	return CheckRequiredTools(b.RequiredTools())
}

// Build configures and compiles the source tree at srcDir, producing
// srcDir/build. Both phases must exit zero; the first non-zero exit
// surfaces as a *BuildError naming the failing phase.
func (b *CMakeBuilder) Build(ctx context.Context, srcDir string) error {
	exists := b.Exists
	if exists == nil {
		exists = dirExists
	}

	buildDir := filepath.Join(srcDir, BuildDirName)
	if exists(buildDir) {
		b.log().Info("already built, skipping", "dir", buildDir)
		return nil
	}

	// Preflight only applies when the real toolchain will run.
	if _, shell := b.runnerOrDefault().(*ShellRunner); shell {
		if err := b.CheckTools(); err != nil {
			return &BuildError{Phase: PhaseConfigure, ExitCode: -1, Err: err}
		}
	}

	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		return &BuildError{Phase: PhaseConfigure, ExitCode: -1, Err: err}
	}

	configureArgs := append([]string{"-S", srcDir, "-B", buildDir}, armadilloConfigureArgs...)

	b.log().Info("configuring", "src", srcDir)
	if err := b.runPhase(ctx, srcDir, PhaseConfigure, configureArgs); err != nil {
		return err
	}

	b.log().Info("compiling", "build", buildDir)
	return b.runPhase(ctx, srcDir, PhaseCompile, []string{"--build", buildDir, "--config", "Release"})
}

func (b *CMakeBuilder) runnerOrDefault() PhaseRunner {
	if b.Runner != nil {
		return b.Runner
	}
	return &ShellRunner{}
}

func (b *CMakeBuilder) runPhase(ctx context.Context, dir, phase string, args []string) error {
	output, err := b.runnerOrDefault().RunPhase(ctx, dir, phase, args)
	if err != nil {
		return &BuildError{
			Phase:    phase,
			ExitCode: sh.ExitStatus(err),
			Output:   output,
			Err:      err,
		}
	}
	return nil
}

func (b *CMakeBuilder) log() *log.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return log.Default()
}
