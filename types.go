package moleprep

import (
	"net/http"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// Fixed source locations and the directory names their archives
// produce. Both URLs can be overridden through Config for mirror
// setups; no automatic fallback is attempted.
const (
	// ArmadilloURL is the versioned Armadillo source tarball.
	ArmadilloURL = "https://sourceforge.net/projects/arma/files/armadillo-12.6.6.tar.xz"

	// ArmadilloArchive is the local filename of the downloaded tarball.
	ArmadilloArchive = "armadillo-12.6.6.tar.xz"

	// ArmadilloDir is the directory the tarball unpacks to.
	ArmadilloDir = "armadillo-12.6.6"

	// MoleURL is the MOLE main-branch archive.
	MoleURL = "https://github.com/csrc-sdsu/mole/archive/refs/heads/main.zip"

	// MoleArchive is the local filename of the downloaded zip.
	MoleArchive = "mole.zip"

	// MoleDir is the directory the zip unpacks to.
	MoleDir = "mole-main"

	// MoleSourceSubpath is the subtree of MOLE staged into the host.
	MoleSourceSubpath = "src/cpp"

	// BuildDirName is the build-output directory CMake populates inside
	// an extracted source tree. Its presence skips a rebuild.
	BuildDirName = "build"
)

// Config describes one pipeline run.
//
// Path layout under BaseDir:
//   - WorkDir: scratch workspace holding downloads and the transient
//     MOLE extraction; removed on every exit path.
//   - DepsDir: persistent location for the extracted and built
//     Armadillo tree. The host build links against it in place.
//   - StageDir: permanent destination for MOLE's src/cpp sources.
//
// Zero-value hooks (Client, Runner, Logger) fall back to working
// defaults, so DefaultConfig output is usable as is.
type Config struct {
	// BaseDir is the host project root. All relative defaults hang off it.
	BaseDir string

	WorkDir  string // scratch workspace (default BaseDir/temp_build)
	DepsDir  string // Armadillo home (default BaseDir/src/mole/deps)
	StageDir string // staged MOLE sources (default BaseDir/src/mole/cpp)

	// Source overrides
	ArmadilloURL string // default ArmadilloURL constant
	MoleURL      string // default MoleURL constant

	// Client performs the downloads. Defaults to http.DefaultClient.
	Client *http.Client

	// Runner executes the CMake phases. Defaults to a runner shelling
	// out to the real cmake binary.
	Runner PhaseRunner

	// Logger receives progress output. Defaults to log.Default().
	Logger *log.Logger
}

// DefaultConfig returns the standard layout rooted at baseDir.
func DefaultConfig(baseDir string) Config {
	return Config{
		BaseDir:      baseDir,
		WorkDir:      filepath.Join(baseDir, "temp_build"),
		DepsDir:      filepath.Join(baseDir, "src", "mole", "deps"),
		StageDir:     filepath.Join(baseDir, "src", "mole", "cpp"),
		ArmadilloURL: ArmadilloURL,
		MoleURL:      MoleURL,
	}
}

// Validate reports the first missing required field.
func (c *Config) Validate() error {
	switch {
	case c.BaseDir == "":
		return errors.New("config: BaseDir is required")
	case c.WorkDir == "":
		return errors.New("config: WorkDir is required")
	case c.DepsDir == "":
		return errors.New("config: DepsDir is required")
	case c.StageDir == "":
		return errors.New("config: StageDir is required")
	case c.ArmadilloURL == "":
		return errors.New("config: ArmadilloURL is required")
	case c.MoleURL == "":
		return errors.New("config: MoleURL is required")
	}
	return nil
}

func (c *Config) client() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return http.DefaultClient
}

func (c *Config) runner() PhaseRunner {
	if c.Runner != nil {
		return c.Runner
	}
	return &ShellRunner{}
}

func (c *Config) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}
