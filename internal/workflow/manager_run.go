package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"research2crossref/internal/journal"
	"research2crossref/internal/logging"
	"research2crossref/internal/record"
	"research2crossref/internal/services"
	"research2crossref/internal/services/cris"
	"research2crossref/internal/watermark"
)

const (
	modeBatch  = "batch"
	modeSingle = "single"
)

// Run executes one incremental batch. The returned error is non-nil only when
// the run could not start, the fetch failed, the context was cancelled, or
// the watermark could not be saved; per-record failures are reported in the
// summary.
func (m *Manager) Run(ctx context.Context, opts RunOptions) (*Summary, error) {
	if err := m.checkToggles(opts.CreateDOI, opts.UpdateCRIS); err != nil {
		return nil, err
	}
	lock, err := m.acquireLock()
	if err != nil {
		return nil, err
	}
	defer m.releaseLock(lock)

	summary := &Summary{RunID: uuid.NewString(), StartedAt: m.now()}
	ctx = services.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, m.logger)

	since, err := m.since(opts.Since)
	if err != nil {
		return summary, err
	}
	summary.Since = since

	pubType := opts.PublicationType
	if pubType == "" {
		pubType = m.cfg.DefaultPublicationType()
	}
	limit := opts.Max
	if limit <= 0 {
		limit = m.cfg.CRIS.MaxRecords
	}

	m.startRun(ctx, summary.RunID, modeBatch, summary.StartedAt)
	logger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_start"),
		logging.String("publication_type", string(pubType)),
		logging.String("since", formatSince(since)),
		logging.Int("max", limit),
		logging.Bool("create_doi", opts.CreateDOI),
		logging.Bool("update_cris", opts.UpdateCRIS),
	)

	filter := cris.DefaultFilter(m.cfg.CRIS.PublicationTypeID, since, limit)
	pubs, err := m.deps.Source.Query(services.WithStage(ctx, "fetch"), filter)
	if err != nil {
		kind := services.Kind(err)
		logging.ErrorWithContext(logger, "batch fetch failed", "batch_fetch_failed",
			logging.String(logging.FieldErrorKind, string(kind)),
			logging.String(logging.FieldErrorHint, services.Hint(kind)),
			logging.Error(err),
		)
		m.finishRun(ctx, summary, "", err)
		return summary, err
	}
	summary.Fetched = len(pubs)

	recOpts := recordOptions{
		pubType:    pubType,
		createDOI:  opts.CreateDOI,
		updateCRIS: opts.UpdateCRIS,
		confirm:    AutoConfirm,
		naming:     nameBySuffix,
	}
	for _, pub := range pubs {
		if err := ctx.Err(); err != nil {
			logger.Warn("batch interrupted",
				logging.String(logging.FieldEventType, "batch_interrupted"),
				logging.Int("processed", len(summary.Outcomes)),
				logging.String(logging.FieldErrorHint, "rerun the batch; registered records are skipped"),
				logging.String(logging.FieldImpact, "watermark not advanced"),
			)
			m.finishRun(ctx, summary, "", err)
			return summary, err
		}
		outcome := m.processRecord(ctx, pub, recOpts)
		summary.add(outcome)
		m.reportOutcome(ctx, summary.RunID, outcome)
	}

	var saveErr error
	if opts.CreateDOI {
		next := watermark.Advance(summary.StartedAt, m.cfg.WatermarkMargin())
		if err := m.deps.Watermark.Save(next); err != nil {
			saveErr = fmt.Errorf("save watermark: %w", err)
			logging.ErrorWithContext(logger, "watermark not saved", "watermark_save_failed",
				logging.Error(err),
				logging.Alert("watermark_save_failed"),
				logging.String(logging.FieldErrorHint, "set it with r2c watermark set before the next run"),
			)
		} else {
			summary.Watermark = next
			summary.WatermarkAdvanced = true
		}
	} else {
		logger.Info("watermark unchanged",
			logging.String(logging.FieldEventType, "watermark_unchanged"),
			logging.String("reason", "deposit disabled for this run"),
		)
	}

	if summary.Submitted > 0 {
		if err := m.deps.Sleep(ctx, m.cfg.BatchDelay()); err != nil && !errors.Is(err, context.Canceled) {
			logger.Debug("batch delay interrupted", logging.Error(err))
		}
	}

	wm := ""
	if summary.WatermarkAdvanced {
		wm = summary.Watermark.Format(time.RFC3339)
	}
	m.finishRun(ctx, summary, wm, saveErr)
	logger.Info("batch complete",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("fetched", summary.Fetched),
		logging.Int("submitted", summary.Submitted),
		logging.Int("written", summary.Written),
		logging.Int("skipped", summary.Skipped),
		logging.Int("declined", summary.Declined),
		logging.Int("failed", summary.Failed),
		logging.Int("reconcile_failed", summary.ReconcileFailed),
		logging.String("watermark", wm),
	)
	return summary, saveErr
}

// RunSingle processes one record by id with an explicit suffix. The
// watermark is never read or written.
func (m *Manager) RunSingle(ctx context.Context, req SingleRequest) (Outcome, error) {
	req.CrisID = strings.TrimSpace(req.CrisID)
	req.Suffix = strings.TrimSpace(req.Suffix)
	if req.CrisID == "" {
		return Outcome{}, services.Wrap(services.ErrConfiguration, "single", "start", "publication id is required", nil)
	}
	if req.Suffix == "" {
		return Outcome{}, services.Wrap(services.ErrConfiguration, "single", "start", "DOI suffix is required", nil)
	}
	if req.Type == "" {
		req.Type = m.cfg.DefaultPublicationType()
	}
	pubType, err := record.ParseType(string(req.Type))
	if err != nil {
		return Outcome{}, services.Wrap(services.ErrConfiguration, "single", "start", "unsupported publication type", err)
	}
	req.Type = pubType
	if err := m.checkToggles(req.CreateDOI, req.UpdateCRIS); err != nil {
		return Outcome{}, err
	}

	lock, err := m.acquireLock()
	if err != nil {
		return Outcome{}, err
	}
	defer m.releaseLock(lock)

	summary := &Summary{RunID: uuid.NewString(), StartedAt: m.now()}
	ctx = services.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, m.logger)
	m.startRun(ctx, summary.RunID, modeSingle, summary.StartedAt)

	pub, err := m.deps.Source.Get(services.WithStage(ctx, "fetch"), req.CrisID)
	if err != nil {
		kind := services.Kind(err)
		logging.ErrorWithContext(logger, "record fetch failed", "single_fetch_failed",
			logging.String(logging.FieldCrisID, req.CrisID),
			logging.String(logging.FieldErrorKind, string(kind)),
			logging.String(logging.FieldErrorHint, services.Hint(kind)),
			logging.Error(err),
		)
		m.finishRun(ctx, summary, "", err)
		return Outcome{CrisID: req.CrisID, Type: req.Type, State: StateFetched, Err: err}, err
	}
	summary.Fetched = 1

	outcome := m.processRecord(ctx, pub, recordOptions{
		pubType:    req.Type,
		suffix:     req.Suffix,
		createDOI:  req.CreateDOI,
		updateCRIS: req.UpdateCRIS,
		confirm:    req.Confirm,
		naming:     nameByTimestamp,
	})
	summary.add(outcome)
	m.reportOutcome(ctx, summary.RunID, outcome)
	m.finishRun(ctx, summary, "", nil)
	return outcome, nil
}

// since picks the lower creation bound: explicit override, stored watermark,
// configured initial bound, or unbounded.
func (m *Manager) since(override time.Time) (time.Time, error) {
	if !override.IsZero() {
		return override.UTC(), nil
	}
	ts, ok, err := m.deps.Watermark.Load()
	if err != nil {
		return time.Time{}, fmt.Errorf("load watermark: %w", err)
	}
	if ok {
		return ts, nil
	}
	if ts, ok := m.cfg.CreatedSince(); ok {
		return ts, nil
	}
	return time.Time{}, nil
}

func formatSince(ts time.Time) string {
	if ts.IsZero() {
		return "*"
	}
	return ts.Format(time.RFC3339)
}

func (m *Manager) startRun(ctx context.Context, runID, mode string, startedAt time.Time) {
	if m.deps.Journal == nil {
		return
	}
	err := m.deps.Journal.StartRun(context.WithoutCancel(ctx), journal.Run{ID: runID, Mode: mode, StartedAt: startedAt})
	if err != nil {
		m.journalFailed(ctx, "start run", err)
	}
}

func (m *Manager) finishRun(ctx context.Context, s *Summary, wm string, runErr error) {
	if m.deps.Journal == nil {
		return
	}
	counts := journal.Counts{
		Fetched:   s.Fetched,
		Submitted: s.Submitted,
		Skipped:   s.Skipped + s.Written + s.Declined,
		Failed:    s.Failed,
	}
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	if err := m.deps.Journal.FinishRun(context.WithoutCancel(ctx), s.RunID, m.now(), counts, wm, msg); err != nil {
		m.journalFailed(ctx, "finish run", err)
	}
}

func (m *Manager) journalFailed(ctx context.Context, op string, err error) {
	logging.WarnWithContext(logging.WithContext(ctx, m.logger), "run journal write failed", "journal_write_failed",
		logging.String("operation", op),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check "+m.cfg.JournalPath()),
		logging.String(logging.FieldImpact, "r2c history will be incomplete"),
	)
}
