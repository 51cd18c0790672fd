package workflow

import (
	"context"
	"time"

	"research2crossref/internal/record"
	"research2crossref/internal/services/cris"
	crossrefapi "research2crossref/internal/services/crossref"
)

// State is the position of a record in the submission state machine.
type State string

const (
	StateFetched                   State = "fetched"
	StateNormalized                State = "normalized"
	StateBuilt                     State = "built"
	StateSkipped                   State = "skipped"
	StateDeclined                  State = "declined"
	StateWritten                   State = "written"
	StateSubmitted                 State = "submitted"
	StateRegistrationUpdateSkipped State = "registration_update_skipped"
	StateRegistrationUpdated       State = "registration_updated"
	StateRegistrationUpdateFailed  State = "registration_update_failed"
	StateBuildFailed               State = "build_failed"
	StateSubmissionFailed          State = "submission_failed"
)

// Registered reports whether the registration agency accepted the deposit.
// Reconciliation outcomes are subordinate to it.
func (s State) Registered() bool {
	switch s {
	case StateSubmitted, StateRegistrationUpdateSkipped, StateRegistrationUpdated, StateRegistrationUpdateFailed:
		return true
	default:
		return false
	}
}

// Failed reports whether the record ended without a registration because of
// an error.
func (s State) Failed() bool {
	return s == StateBuildFailed || s == StateSubmissionFailed
}

// Source fetches publications from the CRIS.
type Source interface {
	Query(ctx context.Context, f cris.Filter) ([]record.Publication, error)
	Get(ctx context.Context, id string) (record.Publication, error)
}

// Normalizer derives the cleaned record the builder consumes.
type Normalizer interface {
	Normalize(ctx context.Context, pub record.Publication) (record.Normalized, error)
}

// Depositor submits a serialized document to the registration agency.
type Depositor interface {
	Deposit(ctx context.Context, fileName string, body []byte) (*crossrefapi.Receipt, error)
}

// Reconciler writes a registered DOI back to the CRIS record.
type Reconciler interface {
	AppendIdentifier(ctx context.Context, id, doi string) error
}

// Proposal describes a submission awaiting confirmation.
type Proposal struct {
	CrisID         string
	RegistrationID string
	Title          string
	SourceType     string
	Type           record.PublicationType
	CreateDOI      bool
	UpdateCRIS     bool
}

// Confirmer decides whether a proposed submission proceeds.
type Confirmer func(ctx context.Context, p Proposal) (bool, error)

// AutoConfirm approves every proposal; batch runs use it.
func AutoConfirm(context.Context, Proposal) (bool, error) {
	return true, nil
}

// Outcome is the final state of one record.
type Outcome struct {
	CrisID         string
	RegistrationID string
	Type           record.PublicationType
	State          State
	// Detail explains skips that are not errors, such as a disabled update.
	Detail       string
	Err          error
	ArtifactPath string
	Receipt      *crossrefapi.Receipt
}

// Summary aggregates a batch run.
type Summary struct {
	RunID             string
	StartedAt         time.Time
	Since             time.Time
	Fetched           int
	Submitted         int
	Skipped           int
	Written           int
	Declined          int
	Failed            int
	ReconcileFailed   int
	Outcomes          []Outcome
	Watermark         time.Time
	WatermarkAdvanced bool
}

func (s *Summary) add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
	switch {
	case o.State.Registered():
		s.Submitted++
		if o.State == StateRegistrationUpdateFailed {
			s.ReconcileFailed++
		}
	case o.State.Failed():
		s.Failed++
	case o.State == StateWritten:
		s.Written++
	case o.State == StateDeclined:
		s.Declined++
	default:
		s.Skipped++
	}
}

// RunOptions carries the per-invocation toggles of a batch run. Toggles are
// run-level; no record overrides them.
type RunOptions struct {
	CreateDOI       bool
	UpdateCRIS      bool
	Max             int
	Since           time.Time
	PublicationType record.PublicationType
}

// SingleRequest describes a one-record run.
type SingleRequest struct {
	CrisID     string
	Suffix     string
	Type       record.PublicationType
	CreateDOI  bool
	UpdateCRIS bool
	Confirm    Confirmer
}

type artifactNaming int

const (
	nameBySuffix artifactNaming = iota
	nameByTimestamp
)

type recordOptions struct {
	pubType    record.PublicationType
	suffix     string
	createDOI  bool
	updateCRIS bool
	confirm    Confirmer
	naming     artifactNaming
}
