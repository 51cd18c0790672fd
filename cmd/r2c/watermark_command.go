package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"research2crossref/internal/watermark"
)

func newWatermarkCommand(ctx *commandContext) *cobra.Command {
	wmCmd := &cobra.Command{
		Use:   "watermark",
		Short: "Show or set the batch lower bound",
	}
	wmCmd.AddCommand(newWatermarkShowCommand(ctx))
	wmCmd.AddCommand(newWatermarkSetCommand(ctx))
	return wmCmd
}

func newWatermarkShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored watermark",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			ts, ok, err := watermark.New(cfg.WatermarkPath()).Load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !ok {
				if initial, set := cfg.CreatedSince(); set {
					fmt.Fprintf(out, "not set (next batch starts from created_since %s)\n", initial.Format(time.RFC3339))
				} else {
					fmt.Fprintln(out, "not set (next batch is unbounded)")
				}
				return nil
			}
			fmt.Fprintln(out, ts.Format(time.RFC3339))
			return nil
		},
	}
}

func newWatermarkSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <time>",
		Short: "Overwrite the stored watermark (RFC3339 or YYYY-MM-DD)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			ts, err := watermark.Parse(args[0])
			if err != nil {
				return err
			}
			if err := watermark.New(cfg.WatermarkPath()).Save(ts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Watermark set to %s\n", ts.UTC().Format(time.RFC3339))
			return nil
		},
	}
}
