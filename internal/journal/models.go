package journal

import "time"

// Counts summarizes the outcomes of one run.
type Counts struct {
	Fetched   int
	Submitted int
	Skipped   int
	Failed    int
}

// Run is one invocation of the batch or single workflow.
type Run struct {
	ID         string
	Mode       string
	StartedAt  time.Time
	FinishedAt *time.Time
	Counts     Counts
	Watermark  string
	Error      string
}

// Finished reports whether the run recorded a completion.
func (r Run) Finished() bool {
	return r.FinishedAt != nil
}

// Attempt is the recorded outcome of one record within a run.
type Attempt struct {
	ID              int64
	RunID           string
	CrisID          string
	RegistrationID  string
	PublicationType string
	State           string
	ErrorKind       string
	ErrorMessage    string
	ArtifactPath    string
	CreatedAt       time.Time
}

// Filter narrows attempt listings. Zero values match everything.
type Filter struct {
	RunID  string
	CrisID string
	State  string
	Limit  int
}
