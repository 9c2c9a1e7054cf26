package main

import (
	"github.com/spf13/cobra"
)

func newDescribeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe [file]",
		Short: "Print the report of a .json or .xlsx dataset file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return describeFile(cmd.OutOrStdout(), args[0], a.opts)
		},
	}
}

func newProcessCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "process [dataset-id...]",
		Short: "Describe stored datasets and save their reports",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseDatasetIDs(args)
			if err != nil {
				return err
			}
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			return a.worker(st).processBatch(cmd.Context(), ids, a.cfg.Stats.BatchConcurrency)
		},
	}
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			return runHTTP(cmd.Context(), a.cfg.Server.Addr, st, a.opts, a.log)
		},
	}
}

func newWorkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "work",
		Short: "Run as background service listening to the Sidekiq queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			return runService(cmd.Context(), a.worker(st), a.cfg.Queue)
		},
	}
}
