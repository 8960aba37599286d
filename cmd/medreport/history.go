package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/medreport/internal/common"
	"github.com/joseph-ayodele/medreport/internal/entity"
	"github.com/joseph-ayodele/medreport/internal/repository"
)

var errHistoryDisabled = errors.New("run history is not configured: set MEDREPORT_HISTORY_DSN or --history")

func newHistoryCmd(cfg *common.Config, opts *rootOptions, stdout, stderr io.Writer) *cobra.Command {
	var (
		limit int
		ping  bool
	)

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recent runs, or show the rows stored for one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(stderr, cfg, opts.debug)
			if opts.history == "" {
				return errHistoryDisabled
			}
			ctx := cmd.Context()
			db, err := repository.Open(ctx, repository.Config{
				DSN:         opts.history,
				MaxConns:    cfg.History.MaxConns,
				DialTimeout: cfg.History.DialTimeout,
			}, logger)
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer db.Close(logger)
			if ping {
				if err := db.HealthCheck(ctx, cfg.History.DialTimeout); err != nil {
					return fmt.Errorf("run history health: %w", err)
				}
				fmt.Fprintf(stdout, "run history (%s): OK\n", db.Dialect)
				return nil
			}
			runs := repository.NewRunRepository(db, logger)

			if len(args) == 0 {
				list, err := runs.ListRecent(ctx, limit)
				if err != nil {
					return err
				}
				renderRuns(stdout, list)
				return nil
			}

			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid run id %q: %w", args[0], err)
			}
			run, err := runs.Get(ctx, id)
			if err != nil {
				return err
			}
			rows, err := runs.Rows(ctx, id)
			if err != nil {
				return err
			}
			renderRuns(stdout, []*entity.Run{run})
			if run.ErrorMessage != nil {
				fmt.Fprintf(stdout, "Failed: %s\n", *run.ErrorMessage)
			}
			renderRows(stdout, rows, 0)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of runs to list")
	cmd.Flags().BoolVar(&ping, "ping", false, "Only check that the history store is reachable")
	return cmd
}
