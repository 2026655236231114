// Package main implements the moleprep command line tool.
package main

import (
	"context"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/molebind/moleprep"
)

// Version is the semantic version (set via -ldflags).
var Version = "dev"

var (
	verbose bool

	rootCmd = &cobra.Command{
		Use:   "moleprep [base-dir]",
		Short: "Fetch and build the MOLE native prerequisites",
		Long: `moleprep prepares the native build prerequisites of a host package
embedding the MOLE mimetic-operators library: it downloads and builds
Armadillo with CMake, downloads MOLE, and stages its src/cpp sources
into the host tree. Run it once before the host's own build step.

All steps are idempotent: existing downloads, extraction directories,
and build output are skipped. Delete a directory to force that step
to run again.

Source URLs and paths can be overridden by flags or MOLEPREP_*
environment variables (e.g. MOLEPREP_ARMADILLO_URL for a mirror).`,
		Args: cobra.MaximumNArgs(1),
		RunE: runPrepare,
	}
)

func init() {
	rootCmd.Flags().String("work-dir", "", "scratch workspace (default <base-dir>/temp_build)")
	rootCmd.Flags().String("deps-dir", "", "armadillo install tree (default <base-dir>/src/mole/deps)")
	rootCmd.Flags().String("stage-dir", "", "staged MOLE sources (default <base-dir>/src/mole/cpp)")
	rootCmd.Flags().String("armadillo-url", moleprep.ArmadilloURL, "armadillo source archive URL")
	rootCmd.Flags().String("mole-url", moleprep.MoleURL, "MOLE branch archive URL")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
}

func runPrepare(cmd *cobra.Command, args []string) error {
	baseDir := "."
	if len(args) == 1 {
		baseDir = args[0]
	}

	v := viper.New()
	v.SetEnvPrefix("MOLEPREP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "moleprep",
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}

	cfg := moleprep.DefaultConfig(baseDir)
	cfg.Logger = logger
	cfg.ArmadilloURL = v.GetString("armadillo-url")
	cfg.MoleURL = v.GetString("mole-url")
	if dir := v.GetString("work-dir"); dir != "" {
		cfg.WorkDir = dir
	}
	if dir := v.GetString("deps-dir"); dir != "" {
		cfg.DepsDir = dir
	}
	if dir := v.GetString("stage-dir"); dir != "" {
		cfg.StageDir = dir
	}

	return moleprep.Prepare(cmd.Context(), cfg)
}

func execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
