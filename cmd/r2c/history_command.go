package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"research2crossref/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var filter journal.Filter

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded outcomes from previous runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := journal.Open(cfg.JournalPath())
			if err != nil {
				return err
			}
			defer store.Close()

			attempts, err := store.Attempts(cmd.Context(), filter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(attempts) == 0 {
				fmt.Fprintln(out, "No attempts recorded")
				return nil
			}
			rows := make([][]string, 0, len(attempts))
			for _, a := range attempts {
				rows = append(rows, []string{
					a.CreatedAt.Local().Format(time.DateTime),
					shortID(a.RunID),
					a.CrisID,
					a.RegistrationID,
					a.State,
					a.ErrorKind,
					a.ErrorMessage,
				})
			}
			fmt.Fprintln(out, renderTable([]column{
				{header: "Time"},
				{header: "Run"},
				{header: "CRIS ID"},
				{header: "DOI"},
				{header: "State"},
				{header: "Kind"},
				{header: "Message", width: 50},
			}, rows))
			return nil
		},
	}

	cmd.Flags().IntVarP(&filter.Limit, "limit", "n", 50, "Maximum attempts to show")
	cmd.Flags().StringVar(&filter.RunID, "run", "", "Only attempts from this run id")
	cmd.Flags().StringVar(&filter.CrisID, "pubid", "", "Only attempts for this CRIS publication id")
	cmd.Flags().StringVar(&filter.State, "state", "", "Only attempts that ended in this state")

	cmd.AddCommand(newHistoryRunsCommand(ctx))
	return cmd
}

func newHistoryRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List previous runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := journal.Open(cfg.JournalPath())
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				finished := "running"
				if r.Finished() {
					finished = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
				}
				rows = append(rows, []string{
					r.StartedAt.Local().Format(time.DateTime),
					r.ID,
					r.Mode,
					finished,
					strconv.Itoa(r.Counts.Fetched),
					strconv.Itoa(r.Counts.Submitted),
					strconv.Itoa(r.Counts.Skipped),
					strconv.Itoa(r.Counts.Failed),
					r.Error,
				})
			}
			fmt.Fprintln(out, renderTable([]column{
				{header: "Started"},
				{header: "Run"},
				{header: "Mode"},
				{header: "Duration"},
				{header: "Fetched", align: alignRight},
				{header: "Submitted", align: alignRight},
				{header: "Skipped", align: alignRight},
				{header: "Failed", align: alignRight},
				{header: "Error", width: 40},
			}, rows))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
