package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"research2crossref/internal/preflight"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Check directories, state files and endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			out := cmd.OutOrStdout()
			for _, r := range results {
				status := "ok"
				if !r.Passed {
					status = "FAIL"
				}
				fmt.Fprintf(out, "%-4s  %-18s %s\n", status, r.Name, r.Detail)
			}
			if preflight.Failed(results) {
				return errors.New("preflight checks failed")
			}
			return nil
		},
	}
}
