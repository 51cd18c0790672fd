package journal_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"research2crossref/internal/journal"
)

func openJournal(t *testing.T) *journal.Journal {
	t.Helper()
	j, err := journal.Open(filepath.Join(t.TempDir(), "state", "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestJournalRecordsRunAndAttempts(t *testing.T) {
	j := openJournal(t)
	ctx := context.Background()
	started := time.Date(2024, 5, 17, 9, 0, 0, 0, time.UTC)

	if err := j.StartRun(ctx, journal.Run{ID: "run-1", Mode: "batch", StartedAt: started}); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	attempts := []journal.Attempt{
		{RunID: "run-1", CrisID: "a", RegistrationID: "10.1/a", PublicationType: "dissertation", State: "registration_updated", ArtifactPath: "/out/a.xml"},
		{RunID: "run-1", CrisID: "b", State: "build_failed", ErrorKind: "validation", ErrorMessage: "validation: missing title"},
	}
	for _, a := range attempts {
		if _, err := j.RecordAttempt(ctx, a); err != nil {
			t.Fatalf("RecordAttempt: %v", err)
		}
	}
	if err := j.FinishRun(ctx, "run-1", started.Add(time.Minute), journal.Counts{Fetched: 2, Submitted: 1, Failed: 1}, "2024-05-16T09:00:00Z", ""); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	got, err := j.Attempts(ctx, journal.Filter{RunID: "run-1"})
	if err != nil {
		t.Fatalf("Attempts: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(got))
	}
	if got[0].CrisID != "b" || got[0].ErrorKind != "validation" || got[0].RegistrationID != "" {
		t.Fatalf("unexpected newest attempt %+v", got[0])
	}
	if got[1].ArtifactPath != "/out/a.xml" || got[1].CreatedAt.IsZero() {
		t.Fatalf("unexpected oldest attempt %+v", got[1])
	}

	failed, err := j.Attempts(ctx, journal.Filter{State: "build_failed", Limit: 10})
	if err != nil {
		t.Fatalf("Attempts by state: %v", err)
	}
	if len(failed) != 1 || failed[0].CrisID != "b" {
		t.Fatalf("unexpected state filter result %+v", failed)
	}

	runs, err := j.Runs(ctx, 5)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 || !runs[0].Finished() {
		t.Fatalf("unexpected runs %+v", runs)
	}
	if runs[0].Counts.Submitted != 1 || runs[0].Watermark != "2024-05-16T09:00:00Z" || !runs[0].StartedAt.Equal(started) {
		t.Fatalf("unexpected run %+v", runs[0])
	}
}

func TestJournalReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := journal.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx := context.Background()
	if err := j.StartRun(ctx, journal.Run{ID: "r", Mode: "single"}); err != nil {
		t.Fatal(err)
	}
	if _, err := j.RecordAttempt(ctx, journal.Attempt{RunID: "r", CrisID: "x", State: "declined"}); err != nil {
		t.Fatal(err)
	}
	if err := j.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := journal.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Attempts(ctx, journal.Filter{CrisID: "x"})
	if err != nil || len(got) != 1 || got[0].State != "declined" {
		t.Fatalf("unexpected attempts after reopen: %+v, %v", got, err)
	}
	runs, err := reopened.Runs(ctx, 0)
	if err != nil || len(runs) != 1 || runs[0].Finished() {
		t.Fatalf("unexpected runs after reopen: %+v, %v", runs, err)
	}
}

func TestJournalValidatesInput(t *testing.T) {
	j := openJournal(t)
	ctx := context.Background()
	if err := j.StartRun(ctx, journal.Run{}); err == nil {
		t.Fatal("expected error for missing run id")
	}
	if _, err := j.RecordAttempt(ctx, journal.Attempt{RunID: "r"}); err == nil {
		t.Fatal("expected error for missing state")
	}
	if _, err := j.RecordAttempt(ctx, journal.Attempt{RunID: "missing", CrisID: "x", State: "skipped"}); err == nil {
		t.Fatal("expected foreign key violation for unknown run")
	}
	if err := j.FinishRun(ctx, "missing", time.Now(), journal.Counts{}, "", ""); err == nil {
		t.Fatal("expected error for unknown run")
	}
}
