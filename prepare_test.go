package moleprep

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// prepareEnv is a full pipeline harness: an HTTP server with archive
// fixtures, a counting transport, and a fake toolchain runner.
type prepareEnv struct {
	cfg       Config
	transport *countingTransport
	runner    *fakeRunner

	// Failure injection, checked at request time.
	failArmadillo bool
	failMole      bool
}

type envOpts struct {
	corruptArmadillo   bool
	moleWithoutSubpath bool
}

func newPrepareEnv(t *testing.T, opts envOpts) *prepareEnv {
	t.Helper()

	fixtures := t.TempDir()

	armaPath := filepath.Join(fixtures, ArmadilloArchive)
	if opts.corruptArmadillo {
		require.NoError(t, os.WriteFile(armaPath, []byte("definitely not xz"), 0o644))
	} else {
		writeTarXz(t, armaPath, []fixtureEntry{
			{name: ArmadilloDir, dir: true},
			{name: ArmadilloDir + "/CMakeLists.txt", body: "project(armadillo)"},
			{name: ArmadilloDir + "/include", dir: true},
			{name: ArmadilloDir + "/include/armadillo", body: "// armadillo header"},
		})
	}

	moleEntries := []fixtureEntry{
		{name: MoleDir + "/README.md", body: "# MOLE"},
	}
	if !opts.moleWithoutSubpath {
		moleEntries = append(moleEntries,
			fixtureEntry{name: MoleDir + "/src/cpp/gradient.cpp", body: "// gradient impl"},
			fixtureEntry{name: MoleDir + "/src/cpp/gradient.h", body: "// gradient decl"},
			fixtureEntry{name: MoleDir + "/src/cpp/operators/divergence.cpp", body: "// divergence"},
		)
	}
	molePath := filepath.Join(fixtures, MoleArchive)
	writeZip(t, molePath, moleEntries)

	env := &prepareEnv{
		transport: &countingTransport{},
		runner:    &fakeRunner{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/"+ArmadilloArchive, func(w http.ResponseWriter, r *http.Request) {
		if env.failArmadillo {
			http.Error(w, "mirror unavailable", http.StatusInternalServerError)
			return
		}
		http.ServeFile(w, r, armaPath)
	})
	mux.HandleFunc("/"+MoleArchive, func(w http.ResponseWriter, r *http.Request) {
		if env.failMole {
			http.Error(w, "mirror unavailable", http.StatusInternalServerError)
			return
		}
		http.ServeFile(w, r, molePath)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	cfg := DefaultConfig(t.TempDir())
	cfg.ArmadilloURL = server.URL + "/" + ArmadilloArchive
	cfg.MoleURL = server.URL + "/" + MoleArchive
	cfg.Client = &http.Client{Transport: env.transport}
	cfg.Runner = env.runner
	cfg.Logger = log.New(io.Discard)
	env.cfg = cfg

	return env
}

func TestPrepareEndToEnd(t *testing.T) {
	env := newPrepareEnv(t, envOpts{})

	require.NoError(t, Prepare(context.Background(), env.cfg))

	// Staged MOLE sources: every direct child of src/cpp, byte for byte.
	data, err := os.ReadFile(filepath.Join(env.cfg.StageDir, "gradient.cpp"))
	require.NoError(t, err)
	assert.Equal(t, "// gradient impl", string(data))
	assert.FileExists(t, filepath.Join(env.cfg.StageDir, "gradient.h"))
	data, err = os.ReadFile(filepath.Join(env.cfg.StageDir, "operators", "divergence.cpp"))
	require.NoError(t, err)
	assert.Equal(t, "// divergence", string(data))

	// Only the src/cpp subtree is staged.
	assert.NoFileExists(t, filepath.Join(env.cfg.StageDir, "README.md"))

	// Armadillo stays at its extraction location with its build output.
	srcDir := filepath.Join(env.cfg.DepsDir, ArmadilloDir)
	assert.FileExists(t, filepath.Join(srcDir, "CMakeLists.txt"))
	assert.DirExists(t, filepath.Join(srcDir, BuildDirName))
	require.Len(t, env.runner.calls, 2)
	assert.Equal(t, PhaseConfigure, env.runner.calls[0].phase)
	assert.Equal(t, PhaseCompile, env.runner.calls[1].phase)

	// One download per artifact, and no scratch workspace left behind.
	assert.Equal(t, 2, env.transport.calls)
	assert.NoDirExists(t, env.cfg.WorkDir)
}

func TestPrepareSecondRunIsIdempotent(t *testing.T) {
	env := newPrepareEnv(t, envOpts{})
	require.NoError(t, Prepare(context.Background(), env.cfg))

	env.transport.calls = 0
	env.runner.calls = nil

	require.NoError(t, Prepare(context.Background(), env.cfg))

	// All idempotency markers exist: zero network and build operations.
	assert.Equal(t, 0, env.transport.calls)
	assert.Empty(t, env.runner.calls)
	assert.NoDirExists(t, env.cfg.WorkDir)
}

func TestPrepareCleanupOnFailure(t *testing.T) {
	t.Run("armadillo fetch", func(t *testing.T) {
		env := newPrepareEnv(t, envOpts{})
		env.failArmadillo = true

		err := Prepare(context.Background(), env.cfg)
		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.NoDirExists(t, env.cfg.WorkDir)
	})

	t.Run("armadillo extract", func(t *testing.T) {
		env := newPrepareEnv(t, envOpts{corruptArmadillo: true})

		err := Prepare(context.Background(), env.cfg)
		var extractErr *ExtractError
		require.ErrorAs(t, err, &extractErr)
		assert.NoDirExists(t, env.cfg.WorkDir)
	})

	t.Run("armadillo build", func(t *testing.T) {
		env := newPrepareEnv(t, envOpts{})
		env.runner.failPhase = PhaseCompile
		env.runner.failCode = 2

		err := Prepare(context.Background(), env.cfg)
		var buildErr *BuildError
		require.ErrorAs(t, err, &buildErr)
		assert.Equal(t, PhaseCompile, buildErr.Phase)
		assert.NoDirExists(t, env.cfg.WorkDir)

		// The staging leg never ran.
		assert.NoDirExists(t, env.cfg.StageDir)
	})

	t.Run("mole fetch", func(t *testing.T) {
		env := newPrepareEnv(t, envOpts{})
		env.failMole = true

		err := Prepare(context.Background(), env.cfg)
		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.NoDirExists(t, env.cfg.WorkDir)

		// Armadillo completed before the failure: partial outcome is
		// allowed, only the workspace has a guarantee.
		assert.DirExists(t, filepath.Join(env.cfg.DepsDir, ArmadilloDir))
	})

	t.Run("mole stage", func(t *testing.T) {
		env := newPrepareEnv(t, envOpts{moleWithoutSubpath: true})

		err := Prepare(context.Background(), env.cfg)
		var stageErr *StageError
		require.ErrorAs(t, err, &stageErr)
		assert.NoDirExists(t, env.cfg.WorkDir)
	})
}

func TestPrepareRejectsInvalidConfig(t *testing.T) {
	err := Prepare(context.Background(), Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BaseDir")
}
