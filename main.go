package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"descstats/internal/config"
	"descstats/internal/descriptive"
	"descstats/internal/logging"
	"descstats/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app carries what every subcommand shares once flags are parsed.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	opts    descriptive.DecodeOptions
	migrate bool
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "descstats",
		Short:        "Descriptive statistics for samples and grouped interval data",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().BoolVar(&a.migrate, "migrate", false, "create database tables before starting")

	root.AddCommand(
		newDescribeCmd(a),
		newProcessCmd(a),
		newServeCmd(a),
		newWorkCmd(a),
	)
	return root
}

func (a *app) init() error {
	// Load environment from .env files for local development.
	config.LoadDotEnv("../.env", ".env")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.ParseLevel(cfg.LogLevel))
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger
	a.opts = descriptive.DecodeOptions{RequireContiguous: cfg.Stats.RequireContiguous}
	return nil
}

func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	if err := a.cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, a.cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if a.migrate {
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, err
		}
	}
	return st, nil
}

func (a *app) worker(st datasetStore) *worker {
	return &worker{store: st, opts: a.opts, log: a.log}
}
