package moleprep

import (
	"context"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// pipeline bundles the components of one Prepare run.
type pipeline struct {
	cfg     Config
	fetcher *Fetcher
	reg     *ExtractorRegistry
	builder *CMakeBuilder
	logger  *log.Logger
}

// Prepare runs the full acquisition pipeline described by cfg:
// Armadillo is downloaded, extracted, and built under cfg.DepsDir,
// then MOLE is downloaded and its src/cpp sources staged into
// cfg.StageDir.
//
// The scratch workspace at cfg.WorkDir is created on entry and
// removed on every exit path, including failure. The first component
// failure aborts the sequence and propagates with its typed error
// (FetchError, ExtractError, BuildError, StageError) intact.
//
// Prepare is idempotent at the step level: existing downloads,
// extraction directories, the Armadillo build directory, and a
// populated staging directory each cause their step to be skipped. A
// second run against a fully prepared tree performs no network or
// build operations. The checks are directory-presence only; delete a
// marker to force re-execution.
//
// Running two Prepare invocations concurrently against the same
// workspace or target is undefined.
func Prepare(ctx context.Context, cfg Config) (err error) {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := cfg.logger()

	reg := &ExtractorRegistry{}
	reg.Register(&TarXzExtractor{Logger: logger})
	reg.Register(&ZipExtractor{Logger: logger})

	p := &pipeline{
		cfg:     cfg,
		fetcher: &Fetcher{Client: cfg.client(), Logger: logger},
		reg:     reg,
		builder: &CMakeBuilder{Runner: cfg.runner(), Logger: logger},
		logger:  logger,
	}

	if err := os.MkdirAll(cfg.WorkDir, 0o755); err != nil {
		return errors.Wrap(err, "create scratch workspace")
	}
	defer func() {
		// Guaranteed release: the workspace never outlives the run.
		if rmErr := os.RemoveAll(cfg.WorkDir); rmErr != nil && err == nil {
			err = errors.Wrap(rmErr, "remove scratch workspace")
		}
	}()

	if err := p.prepareArmadillo(ctx); err != nil {
		return errors.Wrap(err, "prepare armadillo")
	}

	if err := p.prepareMole(ctx); err != nil {
		return errors.Wrap(err, "prepare mole")
	}

	logger.Info("build prerequisites ready", "deps", cfg.DepsDir, "staged", cfg.StageDir)
	return nil
}

// prepareArmadillo downloads, extracts, and builds the numerical
// library. An existing extraction directory short-circuits the fetch
// as well, so a fully prepared tree costs no network round trip even
// though the archive itself was removed with a prior workspace.
func (p *pipeline) prepareArmadillo(ctx context.Context) error {
	srcDir := filepath.Join(p.cfg.DepsDir, ArmadilloDir)

	if dirExists(srcDir) {
		p.logger.Info("armadillo already extracted, skipping download", "dir", srcDir)
	} else {
		archive := filepath.Join(p.cfg.WorkDir, ArmadilloArchive)

		if err := p.fetcher.Fetch(ctx, p.cfg.ArmadilloURL, archive); err != nil {
			return err
		}

		if err := p.reg.Extract(FormatTarXz, archive, p.cfg.DepsDir, ArmadilloDir); err != nil {
			return err
		}
	}

	return p.builder.Build(ctx, srcDir)
}

// prepareMole downloads the MOLE branch archive into the workspace,
// extracts it there, and stages src/cpp into the host tree. A
// populated staging directory marks the whole leg as done; the
// transient extraction cannot serve as a marker because it lives in
// the workspace.
func (p *pipeline) prepareMole(ctx context.Context) error {
	if dirExists(p.cfg.StageDir) {
		p.logger.Info("mole sources already staged, skipping", "dir", p.cfg.StageDir)
		return nil
	}

	archive := filepath.Join(p.cfg.WorkDir, MoleArchive)

	if err := p.fetcher.Fetch(ctx, p.cfg.MoleURL, archive); err != nil {
		return err
	}

	if err := p.reg.Extract(FormatZip, archive, p.cfg.WorkDir, MoleDir); err != nil {
		return err
	}

	return Stage(filepath.Join(p.cfg.WorkDir, MoleDir), MoleSourceSubpath, p.cfg.StageDir, p.logger)
}
