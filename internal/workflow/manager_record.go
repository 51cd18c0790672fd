package workflow

import (
	"context"
	"path/filepath"

	"github.com/google/uuid"

	"research2crossref/internal/crossref"
	"research2crossref/internal/fileutil"
	"research2crossref/internal/logging"
	"research2crossref/internal/record"
	"research2crossref/internal/services"
)

const artifactMode = 0o644

// processRecord drives one publication through the state machine. It never
// returns an error; failures are captured in the outcome so the batch can
// continue with the next record.
func (m *Manager) processRecord(ctx context.Context, pub record.Publication, opts recordOptions) Outcome {
	ctx = services.WithRecordID(ctx, pub.ID)
	ctx = services.WithRequestID(ctx, uuid.NewString())

	pub.Type = opts.pubType
	outcome := Outcome{CrisID: pub.ID, Type: opts.pubType, State: StateFetched}
	hadDOI := pub.HasDOI()

	normalized, err := m.deps.Normalizer.Normalize(services.WithStage(ctx, "normalize"), pub)
	if err != nil {
		outcome.State = StateBuildFailed
		outcome.Err = err
		return outcome
	}
	outcome.State = StateNormalized

	var buildOpts []crossref.BuildOption
	if opts.suffix != "" {
		buildOpts = append(buildOpts, crossref.WithSuffix(opts.suffix))
	}
	doc, err := m.deps.Builder.Build(normalized, buildOpts...)
	if err != nil {
		outcome.State = StateBuildFailed
		outcome.Err = err
		return outcome
	}
	outcome.RegistrationID = doc.RegistrationID()
	outcome.State = StateBuilt

	if m.deps.Ledger.AlreadySubmitted(pub.ID, outcome.RegistrationID) {
		outcome.State = StateSkipped
		outcome.Detail = "already registered"
		return outcome
	}

	confirm := opts.confirm
	if confirm == nil {
		confirm = AutoConfirm
	}
	ok, err := confirm(ctx, Proposal{
		CrisID:         pub.ID,
		RegistrationID: outcome.RegistrationID,
		Title:          normalized.Title,
		SourceType:     normalized.SubType,
		Type:           opts.pubType,
		CreateDOI:      opts.createDOI,
		UpdateCRIS:     opts.updateCRIS,
	})
	if err != nil || !ok {
		outcome.State = StateDeclined
		outcome.Err = err
		outcome.Detail = "submission not confirmed"
		return outcome
	}

	name := doc.FileName()
	if opts.naming == nameByTimestamp {
		name = doc.TimestampFileName()
	}
	path := filepath.Join(m.cfg.Paths.OutputDir, name)
	if err := fileutil.WriteFileAtomic(path, doc.Bytes(), artifactMode); err != nil {
		outcome.State = StateSubmissionFailed
		outcome.Err = services.Wrap(services.ErrTransport, "write", "artifact", path, err)
		return outcome
	}
	outcome.ArtifactPath = path

	if !opts.createDOI {
		outcome.State = StateWritten
		outcome.Detail = "deposit disabled"
		return outcome
	}

	receipt, err := m.deps.Depositor.Deposit(services.WithStage(ctx, "deposit"), name, doc.Bytes())
	if err != nil {
		outcome.State = StateSubmissionFailed
		outcome.Err = err
		return outcome
	}
	outcome.Receipt = receipt
	outcome.State = StateSubmitted

	if err := m.deps.Ledger.Record(pub.ID, outcome.RegistrationID, m.now()); err != nil {
		logging.ErrorWithContext(logging.WithContext(ctx, m.logger), "ledger append failed", "ledger_write_failed",
			logging.String(logging.FieldRegistrationID, outcome.RegistrationID),
			logging.Error(err),
			logging.Alert("ledger_write_failed"),
			logging.String(logging.FieldErrorHint, "append the pair to "+m.deps.Ledger.Path()+" by hand before the next run"),
		)
	}

	switch {
	case hadDOI:
		outcome.State = StateRegistrationUpdateSkipped
		outcome.Detail = "record already carries a DOI"
	case !opts.updateCRIS:
		outcome.State = StateRegistrationUpdateSkipped
		outcome.Detail = "CRIS update disabled"
	default:
		if err := m.deps.Reconciler.AppendIdentifier(services.WithStage(ctx, "reconcile"), pub.ID, outcome.RegistrationID); err != nil {
			outcome.State = StateRegistrationUpdateFailed
			outcome.Err = err
			return outcome
		}
		outcome.State = StateRegistrationUpdated
	}
	return outcome
}
