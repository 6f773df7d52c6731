package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	logging "github.com/ipfs/go-log/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"vroot/internal/backend"
	"vroot/internal/config"
	"vroot/internal/location"
	"vroot/internal/secret"
	"vroot/internal/vfs"
)

var log = logging.Logger("vroot/cli")

// app is what every subcommand works against. It is built once the global
// flags are parsed.
type app struct {
	cfg     *config.Config
	reg     *location.Registry
	mux     *vfs.Mux
	metrics *prometheus.Registry
}

// NewRootCmd returns the root cobra command for the vroot CLI.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "vroot",
		Short:         "Browse every storage location through one virtual root",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	addGlobalFlags(cmd)

	cmd.AddCommand(newLocationsCmd(a, stdout))
	cmd.AddCommand(newLsCmd(a, stdout))
	cmd.AddCommand(newStatCmd(a, stdout))
	cmd.AddCommand(newCatCmd(a, stdout))
	cmd.AddCommand(newDfCmd(a, stdout))
	cmd.AddCommand(newMkdirCmd(a))
	cmd.AddCommand(newRmCmd(a))
	cmd.AddCommand(newMvCmd(a))
	cmd.AddCommand(newCpCmd(a, stdout))
	cmd.AddCommand(newTruncateCmd(a))
	cmd.AddCommand(newTouchCmd(a))
	cmd.AddCommand(newWatchCmd(a, stdout))

	return cmd
}

// Execute runs the CLI with the process stdio.
func Execute() int {
	root := NewRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func (a *app) setup(cmd *cobra.Command) error {
	opts := getGlobalOptions(cmd)

	cfg, err := config.NewManagerAt(opts.ConfigPath).Load()
	if err != nil {
		return err
	}
	configureLogging(cfg.Log.Level, opts.Debug)

	var store secret.Store
	if cfg.Sources.Network.Enabled {
		store = secret.Open()
	}

	a.cfg = cfg
	a.metrics = prometheus.NewRegistry()
	enum := backend.NewEnumerator(backend.SourcesFromConfig(cfg, store)...)
	a.reg = location.NewRegistry(enum,
		location.WithExtraHidden(cfg.Locations.ExtraHidden...),
		location.WithMetrics(location.NewMetrics(a.metrics)),
	)
	a.mux = vfs.NewMux(a.reg, vfs.WithShowHidden(opts.ShowHidden || cfg.Locations.ShowHidden))
	return nil
}

func configureLogging(level string, debug bool) {
	if debug {
		logging.SetAllLoggers(logging.LevelDebug)
		return
	}
	lvl, err := logging.LevelFromString(level)
	if err != nil {
		lvl = logging.LevelWarn
	}
	logging.SetAllLoggers(lvl)
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
