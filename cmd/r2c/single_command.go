package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"research2crossref/internal/config"
	"research2crossref/internal/logging"
	"research2crossref/internal/record"
	"research2crossref/internal/workflow"
)

func newSingleCommand(ctx *commandContext) *cobra.Command {
	var pubID string
	var suffix string
	var pubType string
	var updateCRIS string
	var dryRun bool
	var assumeYes bool

	cmd := &cobra.Command{
		Use:   "single",
		Short: "Register one publication under an explicit DOI suffix",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			req := workflow.SingleRequest{
				CrisID:     pubID,
				Suffix:     suffix,
				CreateDOI:  cfg.Workflow.CreateDOI && !dryRun,
				UpdateCRIS: cfg.Workflow.UpdateCRIS,
			}
			if strings.TrimSpace(pubType) != "" {
				t, err := record.ParseType(pubType)
				if err != nil {
					return fmt.Errorf("--pubtype: %w", err)
				}
				req.Type = t
			}
			if strings.TrimSpace(updateCRIS) != "" {
				v, err := config.ParseToggle(updateCRIS)
				if err != nil {
					return fmt.Errorf("--update-cris: %w", err)
				}
				req.UpdateCRIS = v
			}
			if req.CreateDOI {
				if err := cfg.ValidateDeposit(); err != nil {
					return err
				}
			}
			confirm, err := confirmerFor(cmd, assumeYes)
			if err != nil {
				return err
			}
			req.Confirm = confirm

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

			outcome, err := manager.RunSingle(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s\n", outcome.CrisID, outcome.State)
			if outcome.RegistrationID != "" {
				fmt.Fprintf(out, "DOI: %s\n", outcome.RegistrationID)
			}
			if outcome.ArtifactPath != "" {
				fmt.Fprintf(out, "Document: %s\n", outcome.ArtifactPath)
			}
			if detail := outcomeDetail(outcome); detail != "" && detail != outcome.ArtifactPath {
				fmt.Fprintf(out, "Detail: %s\n", detail)
			}
			if outcome.State.Failed() {
				return fmt.Errorf("publication %s: %s", outcome.CrisID, outcome.State)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&pubID, "pubid", "", "CRIS publication id")
	cmd.Flags().StringVar(&suffix, "doi", "", "DOI suffix to register (prefix optional)")
	cmd.Flags().StringVar(&pubType, "pubtype", "", "Crossref publication type (dissertation, book, preprint, report, proceeding)")
	cmd.Flags().StringVar(&updateCRIS, "update-cris", "", "Write the DOI back to the CRIS record (y|n, default from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Write the deposit document without submitting it")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Submit without asking for confirmation")
	_ = cmd.MarkFlagRequired("pubid")
	_ = cmd.MarkFlagRequired("doi")
	return cmd
}

var errConfirmationRequired = errors.New("confirmation required: stdin is not a terminal; pass --yes to submit")

func confirmerFor(cmd *cobra.Command, assumeYes bool) (workflow.Confirmer, error) {
	if assumeYes {
		return workflow.AutoConfirm, nil
	}
	in := cmd.InOrStdin()
	file, ok := in.(*os.File)
	if !ok || !(isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())) {
		return nil, errConfirmationRequired
	}
	return promptConfirmer(in, cmd.OutOrStdout()), nil
}

// promptConfirmer asks on out and reads the answer from in. An empty answer
// accepts; end of input declines.
func promptConfirmer(in io.Reader, out io.Writer) workflow.Confirmer {
	reader := bufio.NewReader(in)
	return func(ctx context.Context, p workflow.Proposal) (bool, error) {
		fmt.Fprintf(out, "Publication: %s\n", p.CrisID)
		fmt.Fprintf(out, "Title:       %s\n", p.Title)
		if p.SourceType != "" {
			fmt.Fprintf(out, "CRIS type:   %s\n", p.SourceType)
		}
		fmt.Fprintf(out, "Crossref:    %s\n", p.Type)
		fmt.Fprintf(out, "DOI:         %s\n", p.RegistrationID)
		fmt.Fprintf(out, "Deposit: %s, CRIS update: %s\n", yesNo(p.CreateDOI), yesNo(p.UpdateCRIS))
		for {
			if err := ctx.Err(); err != nil {
				return false, err
			}
			fmt.Fprint(out, "Proceed? [Y/n] ")
			line, err := reader.ReadString('\n')
			if answer, ok := parseAnswer(line); ok && (err == nil || line != "") {
				return answer, nil
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					fmt.Fprintln(out)
					return false, nil
				}
				return false, err
			}
			fmt.Fprintln(out, "Please answer yes or no.")
		}
	}
}

func parseAnswer(line string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "yes", "y", "ye", "j", "ja":
		return true, true
	case "no", "n", "nej":
		return false, true
	default:
		return false, false
	}
}
