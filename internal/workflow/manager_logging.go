package workflow

import (
	"context"
	"errors"
	"strings"

	"research2crossref/internal/crossref"
	"research2crossref/internal/journal"
	"research2crossref/internal/logging"
	"research2crossref/internal/services"
)

// reportOutcome logs the final state of a record and persists it to the
// run journal.
func (m *Manager) reportOutcome(ctx context.Context, runID string, o Outcome) {
	ctx = services.WithRecordID(ctx, o.CrisID)
	logger := logging.WithContext(ctx, m.logger)

	attrs := logging.RecordAttrs(o.CrisID, o.RegistrationID)
	attrs = append(attrs,
		logging.String(logging.FieldEventType, "record_outcome"),
		logging.String(logging.FieldState, string(o.State)),
		logging.String("publication_type", string(o.Type)),
	)
	if o.Detail != "" {
		attrs = append(attrs, logging.String("detail", o.Detail))
	}
	if o.ArtifactPath != "" {
		attrs = append(attrs, logging.String("artifact", o.ArtifactPath))
	}
	if o.Receipt != nil {
		attrs = append(attrs, logging.Int("http_status", o.Receipt.StatusCode))
	}

	kind := services.Kind(o.Err)
	if o.Err != nil {
		attrs = append(attrs,
			logging.String(logging.FieldErrorKind, string(kind)),
			logging.String(logging.FieldErrorHint, services.Hint(kind)),
			logging.Error(o.Err),
		)
		var verr *crossref.ValidationError
		if errors.As(o.Err, &verr) {
			attrs = append(attrs, logging.String("missing_field", verr.Field))
		}
	}

	switch {
	case kind == services.KindAuth:
		attrs = append(attrs, logging.Alert("deposit_auth_failed"))
		logger.Error("deposit rejected credentials", logging.Args(attrs...)...)
	case o.State.Failed():
		logger.Error("record failed", logging.Args(attrs...)...)
	case o.State == StateRegistrationUpdateFailed:
		attrs = append(attrs, logging.String(logging.FieldImpact, "DOI registered but the CRIS record does not carry it"))
		logging.WarnWithContext(logger, "CRIS update failed", "record_outcome", attrs...)
	default:
		logger.Info("record processed", logging.Args(attrs...)...)
	}

	m.recordAttempt(ctx, runID, o, kind)
}

func (m *Manager) recordAttempt(ctx context.Context, runID string, o Outcome, kind services.ErrorKind) {
	if m.deps.Journal == nil {
		return
	}
	attempt := journal.Attempt{
		RunID:           runID,
		CrisID:          o.CrisID,
		RegistrationID:  o.RegistrationID,
		PublicationType: string(o.Type),
		State:           string(o.State),
		ErrorKind:       string(kind),
		ArtifactPath:    o.ArtifactPath,
		CreatedAt:       m.now(),
	}
	if o.Err != nil {
		attempt.ErrorMessage = strings.TrimSpace(o.Err.Error())
	} else if o.Detail != "" {
		attempt.ErrorMessage = o.Detail
	}
	if _, err := m.deps.Journal.RecordAttempt(context.WithoutCancel(ctx), attempt); err != nil {
		m.journalFailed(ctx, "record attempt", err)
	}
}
