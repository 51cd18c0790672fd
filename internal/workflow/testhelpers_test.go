package workflow_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"research2crossref/internal/config"
	"research2crossref/internal/crossref"
	"research2crossref/internal/journal"
	"research2crossref/internal/ledger"
	"research2crossref/internal/logging"
	"research2crossref/internal/normalize"
	"research2crossref/internal/record"
	"research2crossref/internal/testsupport"
	"research2crossref/internal/watermark"
	"research2crossref/internal/workflow"
)

var fixedNow = time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)

type harness struct {
	cfg        *config.Config
	manager    *workflow.Manager
	source     *testsupport.FakeSource
	depositor  *testsupport.FakeDepositor
	reconciler *testsupport.FakeReconciler
	ledger     *ledger.Ledger
	watermark  *watermark.Store
	journal    *journal.Journal
	sleeps     []time.Duration
	logs       *bytes.Buffer
}

type harnessOption func(*workflow.Dependencies)

func newHarness(t *testing.T, pubs []testPub, opts ...harnessOption) *harness {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	h := &harness{
		cfg:        cfg,
		source:     &testsupport.FakeSource{},
		depositor:  &testsupport.FakeDepositor{},
		reconciler: &testsupport.FakeReconciler{},
		ledger:     testsupport.MustOpenLedger(t, cfg),
		watermark:  watermark.New(cfg.WatermarkPath()),
		journal:    testsupport.MustOpenJournal(t, cfg),
		logs:       &bytes.Buffer{},
	}
	for _, p := range pubs {
		h.source.Pubs = append(h.source.Pubs, p.build())
	}

	builder, err := crossref.NewBuilder(crossref.Config{
		Depositor: crossref.Depositor{Name: cfg.Depositor.Name, Email: cfg.Depositor.Email},
		Home: crossref.HomeInstitution{
			Name:  cfg.Institution.Name,
			Place: cfg.Institution.Place,
			RORID: cfg.Institution.RORID,
		},
		DOIPrefix:       cfg.Crossref.DOIPrefix,
		ResourceBaseURL: cfg.CRIS.BaseURL,
		Now:             func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}

	deps := workflow.Dependencies{
		Source: h.source,
		Normalizer: normalize.New(h.source, normalize.Options{
			OrgTypeMarker:  cfg.Institution.OrgTypeMarker,
			ThesisSeriesID: cfg.Institution.ThesisSeriesID,
		}, nil),
		Builder:    builder,
		Depositor:  h.depositor,
		Reconciler: h.reconciler,
		Ledger:     h.ledger,
		Watermark:  h.watermark,
		Journal:    h.journal,
		Sleep: func(_ context.Context, d time.Duration) error {
			h.sleeps = append(h.sleeps, d)
			return nil
		},
		Now: func() time.Time { return fixedNow },
	}
	for _, opt := range opts {
		opt(&deps)
	}

	logger, _, err := logging.New(logging.Options{Level: "info", Format: "console", Console: h.logs})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	manager, err := workflow.NewManager(cfg, deps, logger)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	h.manager = manager
	return h
}

// testPub describes a thesis fixture; blank title means the record fails to build.
type testPub struct {
	id     string
	isbn   string
	title  string
	doi    string
	broken bool
}

func (p testPub) build() record.Publication {
	pub := testsupport.Thesis(p.id, p.isbn)
	if p.title != "" {
		pub.Title = p.title
	}
	if p.broken {
		pub.Title = "   "
	}
	pub.DOI = p.doi
	return pub
}

func (h *harness) run(t *testing.T, opts workflow.RunOptions) *workflow.Summary {
	t.Helper()

	summary, err := h.manager.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return summary
}

func fullRun() workflow.RunOptions {
	return workflow.RunOptions{CreateDOI: true, UpdateCRIS: true}
}

func outcomeFor(t *testing.T, s *workflow.Summary, crisID string) workflow.Outcome {
	t.Helper()

	for _, o := range s.Outcomes {
		if o.CrisID == crisID {
			return o
		}
	}
	t.Fatalf("no outcome for %s", crisID)
	return workflow.Outcome{}
}
