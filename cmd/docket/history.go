package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/docket/internal/core"
)

func (a *app) historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [IMPORT_ID]",
		Short: "List past imports or show one import report",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runHistory,
	}
	cmd.Flags().Int("limit", 20, "number of imports to list")
	cmd.Flags().Duration("purge", 0, "delete imports older than this before listing (e.g. 2160h)")
	_ = a.v.BindPFlags(cmd.Flags())
	return cmd
}

func (a *app) runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, st, err := a.openRegistry(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	out := newPrinter(cmd.OutOrStdout(), a.v.GetBool("json"))

	if len(args) == 1 {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("%w: %q", core.ErrImportNotFound, args[0])
		}
		run, err := svc.Run(ctx, id)
		if err != nil {
			return err
		}
		return out.run(run)
	}

	if retention := a.v.GetDuration("purge"); retention > 0 {
		n, err := svc.PurgeHistory(ctx, retention)
		if err != nil {
			return err
		}
		if !out.json {
			fmt.Fprintf(out.w, "purged %d import(s)\n", n)
		}
	}

	runs, err := svc.History(ctx, a.v.GetInt("limit"))
	if err != nil {
		return err
	}
	return out.runs(runs)
}
