package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"research2crossref/internal/ledger"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the submission ledger",
	}
	ledgerCmd.AddCommand(newLedgerListCommand(ctx))
	return ledgerCmd
}

func newLedgerListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var crisID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered publications, newest last",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			led, err := ledger.Open(cfg.LedgerPath())
			if err != nil {
				return err
			}

			entries := led.Entries()
			if crisID != "" {
				filtered := entries[:0]
				for _, e := range entries {
					if e.CrisID == crisID {
						filtered = append(filtered, e)
					}
				}
				entries = filtered
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No registrations recorded")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				registered := "-"
				if !e.CreatedAt.IsZero() {
					registered = e.CreatedAt.Local().Format(time.DateTime)
				}
				rows = append(rows, []string{e.CrisID, e.RegistrationID, registered})
			}
			fmt.Fprintln(out, renderTable([]column{
				{header: "CRIS ID"},
				{header: "DOI"},
				{header: "Registered"},
			}, rows))
			fmt.Fprintf(out, "%d of %d registrations\n", len(entries), led.Len())
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show only the last N entries")
	cmd.Flags().StringVar(&crisID, "pubid", "", "Show only entries for this CRIS publication id")
	return cmd
}
