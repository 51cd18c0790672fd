package workflow

import (
	"fmt"
	"log/slog"

	"research2crossref/internal/config"
	"research2crossref/internal/crossref"
	"research2crossref/internal/journal"
	"research2crossref/internal/ledger"
	"research2crossref/internal/logging"
	"research2crossref/internal/normalize"
	"research2crossref/internal/services/cris"
	crossrefapi "research2crossref/internal/services/crossref"
	"research2crossref/internal/watermark"
)

// NewFromConfig wires the production collaborators described by cfg. The
// returned close function releases the run journal.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Manager, func() error, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, nil, err
	}

	crisClient := cris.NewClient(cris.Config{
		APIURL:              cfg.CRIS.APIURL,
		Token:               cfg.CRIS.APIToken,
		Timeout:             cfg.RequestTimeout(),
		UpdatedBy:           cfg.CRIS.UpdatedBy,
		DOIIdentifierTypeID: cfg.CRIS.DOIIdentifierTypeID,
	})

	home := normalize.HomeInstitution{
		Name:  cfg.Institution.Name,
		Place: cfg.Institution.Place,
		RORID: cfg.Institution.RORID,
	}
	normalizer := normalize.New(
		normalize.NewCachingResolver(crisClient, normalize.DefaultResolverTTL),
		normalize.Options{
			Home:           home,
			OrgTypeMarker:  cfg.Institution.OrgTypeMarker,
			ThesisSeriesID: cfg.Institution.ThesisSeriesID,
		},
		logger,
	)

	builder, err := crossref.NewBuilder(crossref.Config{
		Depositor: crossref.Depositor{
			Name:  cfg.Depositor.Name,
			Email: cfg.Depositor.Email,
		},
		Home: crossref.HomeInstitution{
			Name:  cfg.Institution.Name,
			Place: cfg.Institution.Place,
			RORID: cfg.Institution.RORID,
		},
		DOIPrefix:       cfg.Crossref.DOIPrefix,
		ResourceBaseURL: cfg.CRIS.BaseURL,
	})
	if err != nil {
		return nil, nil, err
	}

	led, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		return nil, nil, fmt.Errorf("open ledger: %w", err)
	}

	deps := Dependencies{
		Source:     crisClient,
		Normalizer: normalizer,
		Builder:    builder,
		Depositor: crossrefapi.NewClient(crossrefapi.Config{
			DepositURL:        cfg.Crossref.DepositURL,
			Username:          cfg.Crossref.Username,
			Password:          cfg.Crossref.Password,
			Timeout:           cfg.RequestTimeout(),
			RequestsPerSecond: cfg.Crossref.RequestsPerSecond,
		}),
		Reconciler: crisClient,
		Ledger:     led,
		Watermark:  watermark.New(cfg.WatermarkPath()),
	}

	closer := func() error { return nil }
	store, err := journal.Open(cfg.JournalPath())
	if err != nil {
		logging.WarnWithContext(logger, "run journal unavailable", "journal_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check "+cfg.JournalPath()),
			logging.String(logging.FieldImpact, "this run will not appear in r2c history"),
		)
	} else {
		deps.Journal = store
		closer = store.Close
	}

	manager, err := NewManager(cfg, deps, logger)
	if err != nil {
		_ = closer()
		return nil, nil, err
	}
	return manager, closer, nil
}
