package main

import (
	"fmt"
	"io"
	"os"

	"github.com/aretw0/reel/internal/cli"
	"github.com/aretw0/reel/internal/config"
	"github.com/aretw0/reel/pkg/domain"
	"github.com/aretw0/reel/pkg/observability"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "reel",
	Short:         "reel is a movie recommendation dialogue agent and user simulator",
	Long:          `reel recommends movies through a slot-filling dialogue and simulates users to evaluate it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Settings file (YAML or JSON)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logs")
	rootCmd.PersistentFlags().Int64("seed", 0, "Random seed (0 draws one)")
}

// env holds what every command needs, built from the persistent flags.
type env struct {
	settings   *config.Settings
	components *cli.Components
	closers    []io.Closer
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		_ = e.closers[i].Close()
	}
}

func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	path, _ := cmd.Flags().GetString("config")
	s, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	if seed, _ := cmd.Flags().GetInt64("seed"); seed != 0 {
		s.Simulation.Seed = uint64(seed)
	}
	return s, nil
}

// setup loads the settings and the shared components. Debug runs log every
// lifecycle event on top of extra.
func setup(cmd *cobra.Command, extra domain.LifecycleHooks) (*env, error) {
	return setupHooks(cmd, extra, nil)
}

// setupWith applies command flags to the settings before the components
// are built.
func setupWith(cmd *cobra.Command, override func(*env)) (*env, error) {
	return setupHooks(cmd, domain.LifecycleHooks{}, override)
}

func setupHooks(cmd *cobra.Command, extra domain.LifecycleHooks, override func(*env)) (*env, error) {
	s, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	debug, _ := cmd.Flags().GetBool("debug")
	logger, logCloser, err := cli.NewLogger(s, debug)
	if err != nil {
		return nil, err
	}
	e := &env{settings: s, closers: []io.Closer{logCloser}}
	if override != nil {
		override(e)
	}

	hooks := extra
	if debug {
		hooks = hooks.Merge(observability.LogHooks(logger))
	}
	c, err := cli.NewComponents(s, logger, hooks)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.components = c
	e.closers = append(e.closers, c)
	return e, nil
}
