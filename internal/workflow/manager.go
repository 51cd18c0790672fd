package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"research2crossref/internal/config"
	"research2crossref/internal/crossref"
	"research2crossref/internal/journal"
	"research2crossref/internal/ledger"
	"research2crossref/internal/logging"
	"research2crossref/internal/services"
	"research2crossref/internal/watermark"
)

// ErrLocked is returned when another run holds the state directory lock.
var ErrLocked = errors.New("another r2c run is already in progress")

// Journal persists run and attempt history. Failures never change a
// record's outcome.
type Journal interface {
	StartRun(ctx context.Context, run journal.Run) error
	FinishRun(ctx context.Context, id string, finishedAt time.Time, counts journal.Counts, watermark, errMsg string) error
	RecordAttempt(ctx context.Context, a journal.Attempt) (int64, error)
}

// Dependencies are the collaborators a Manager drives. Depositor and
// Reconciler may be nil when the matching toggle is off for every run;
// Journal may be nil to disable history.
type Dependencies struct {
	Source     Source
	Normalizer Normalizer
	Builder    *crossref.Builder
	Depositor  Depositor
	Reconciler Reconciler
	Ledger     *ledger.Ledger
	Watermark  *watermark.Store
	Journal    Journal
	// Sleep waits between batches; nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

// Manager runs the submission workflow against injected collaborators.
type Manager struct {
	cfg    *config.Config
	deps   Dependencies
	logger *slog.Logger
}

// NewManager validates deps and returns a Manager bound to cfg.
func NewManager(cfg *config.Config, deps Dependencies, logger *slog.Logger) (*Manager, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "init", "config is required", nil)
	}
	switch {
	case deps.Source == nil:
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "init", "record source is required", nil)
	case deps.Normalizer == nil:
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "init", "normalizer is required", nil)
	case deps.Builder == nil:
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "init", "document builder is required", nil)
	case deps.Ledger == nil:
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "init", "ledger is required", nil)
	case deps.Watermark == nil:
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "init", "watermark store is required", nil)
	}
	if deps.Sleep == nil {
		deps.Sleep = sleepContext
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Manager{
		cfg:    cfg,
		deps:   deps,
		logger: logging.NewComponentLogger(logger, "workflow"),
	}, nil
}

func (m *Manager) now() time.Time {
	return m.deps.Now().UTC()
}

// acquireLock takes the run lock without blocking.
func (m *Manager) acquireLock() (*flock.Flock, error) {
	path := m.cfg.LockPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return lock, nil
}

func (m *Manager) releaseLock(lock *flock.Flock) {
	if err := lock.Unlock(); err != nil {
		m.logger.Warn("failed to release run lock",
			logging.Error(err),
			logging.String(logging.FieldEventType, "lock_release_failed"),
			logging.String(logging.FieldErrorHint, "remove "+lock.Path()+" if no run is active"),
			logging.String(logging.FieldImpact, "the next run may report a held lock"),
		)
	}
}

// checkToggles rejects a run whose toggles need a collaborator that was not wired.
func (m *Manager) checkToggles(createDOI, updateCRIS bool) error {
	if createDOI && m.deps.Depositor == nil {
		return services.Wrap(services.ErrConfiguration, "workflow", "start", "deposit enabled but no depositor configured", nil)
	}
	if createDOI && updateCRIS && m.deps.Reconciler == nil {
		return services.Wrap(services.ErrConfiguration, "workflow", "start", "CRIS update enabled but no reconciler configured", nil)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
