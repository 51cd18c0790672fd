package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"research2crossref/internal/logging"
	"research2crossref/internal/record"
	"research2crossref/internal/watermark"
	"research2crossref/internal/workflow"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var noUpdateCRIS bool
	var maxRecords int
	var since string
	var pubType string

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Register every new publication since the last run",
		Long: "Fetch validated publications created after the stored watermark, build and deposit\n" +
			"a Crossref document for each, and write the DOI back to the CRIS record.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			opts := workflow.RunOptions{
				CreateDOI:  cfg.Workflow.CreateDOI && !dryRun,
				UpdateCRIS: cfg.Workflow.UpdateCRIS && !noUpdateCRIS,
				Max:        maxRecords,
			}
			if strings.TrimSpace(since) != "" {
				ts, err := watermark.Parse(since)
				if err != nil {
					return fmt.Errorf("--since: %w", err)
				}
				opts.Since = ts
			}
			if strings.TrimSpace(pubType) != "" {
				t, err := record.ParseType(pubType)
				if err != nil {
					return fmt.Errorf("--pubtype: %w", err)
				}
				opts.PublicationType = t
			}
			if opts.CreateDOI {
				if err := cfg.ValidateDeposit(); err != nil {
					return err
				}
			}

			logger, closer, err := ctx.newLogger(cmd, cfg)
			if err != nil {
				return err
			}
			defer logging.CloseQuietly(closer)

			manager, closeManager, err := workflow.NewFromConfig(cfg, logger)
			if err != nil {
				return err
			}
			defer closeManager()

			summary, runErr := manager.Run(cmd.Context(), opts)
			if summary != nil {
				printSummary(cmd.OutOrStdout(), summary, opts)
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Write deposit documents without submitting them")
	cmd.Flags().BoolVar(&noUpdateCRIS, "no-update-cris", false, "Do not write registered DOIs back to the CRIS")
	cmd.Flags().IntVar(&maxRecords, "max", 0, "Maximum records to fetch (default from config)")
	cmd.Flags().StringVar(&since, "since", "", "Override the watermark (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&pubType, "pubtype", "", "Crossref publication type for fetched records")
	return cmd
}

func printSummary(out io.Writer, s *workflow.Summary, opts workflow.RunOptions) {
	if len(s.Outcomes) > 0 {
		rows := make([][]string, 0, len(s.Outcomes))
		for _, o := range s.Outcomes {
			rows = append(rows, []string{o.CrisID, o.RegistrationID, string(o.State), outcomeDetail(o)})
		}
		fmt.Fprintln(out, renderTable([]column{
			{header: "CRIS ID"},
			{header: "DOI"},
			{header: "State"},
			{header: "Detail", width: 60},
		}, rows))
	}

	fmt.Fprintf(out, "Fetched %d, submitted %d, written %d, skipped %d, failed %d",
		s.Fetched, s.Submitted, s.Written, s.Skipped, s.Failed)
	if s.ReconcileFailed > 0 {
		fmt.Fprintf(out, ", CRIS update failed %d", s.ReconcileFailed)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Deposit: %s, CRIS update: %s\n", yesNo(opts.CreateDOI), yesNo(opts.UpdateCRIS))
	if s.WatermarkAdvanced {
		fmt.Fprintf(out, "Watermark advanced to %s\n", s.Watermark.Format("2006-01-02T15:04:05Z07:00"))
	}
}

func outcomeDetail(o workflow.Outcome) string {
	if o.Err != nil {
		return o.Err.Error()
	}
	if o.Detail != "" {
		return o.Detail
	}
	return o.ArtifactPath
}
