package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"research2crossref/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var crisID string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the r2c log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			opts := logs.TailOptions{Offset: -1, Limit: lines, Match: logs.RecordTerms(crisID)}
			for {
				result, err := logs.Tail(cmd.Context(), cfg.LogPath(), opts)
				for _, line := range result.Lines {
					fmt.Fprintln(out, line)
				}
				if err != nil {
					if errors.Is(err, cmd.Context().Err()) {
						return nil
					}
					return err
				}
				if !follow {
					return nil
				}
				opts.Offset = result.Offset
				opts.Wait = time.Minute
			}
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().StringVar(&crisID, "pubid", "", "Only lines for this CRIS publication id")
	return cmd
}
