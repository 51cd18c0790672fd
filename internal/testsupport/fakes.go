package testsupport

import (
	"context"
	"sync"

	"research2crossref/internal/record"
	"research2crossref/internal/services"
	"research2crossref/internal/services/cris"
	crossrefapi "research2crossref/internal/services/crossref"
)

// FakeSource serves a fixed set of publications.
type FakeSource struct {
	mu       sync.Mutex
	Pubs     []record.Publication
	QueryErr error
	Filters  []cris.Filter
}

// Query returns every publication, or QueryErr.
func (s *FakeSource) Query(_ context.Context, f cris.Filter) ([]record.Publication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Filters = append(s.Filters, f)
	if s.QueryErr != nil {
		return nil, s.QueryErr
	}
	return append([]record.Publication(nil), s.Pubs...), nil
}

// Get returns the publication with id or a fetch error.
func (s *FakeSource) Get(_ context.Context, id string) (record.Publication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pub := range s.Pubs {
		if pub.ID == id {
			return pub, nil
		}
	}
	return record.Publication{}, services.Wrap(services.ErrFetch, "cris", "get", "publication "+id+" not found", nil)
}

// ResolveDOI reports the DOI of a known publication.
func (s *FakeSource) ResolveDOI(_ context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pub := range s.Pubs {
		if pub.ID == id {
			return pub.DOI, nil
		}
	}
	return "", nil
}

// FakeDepositor records uploads. Errs maps a file name to the error its
// upload returns.
type FakeDepositor struct {
	mu     sync.Mutex
	Errs   map[string]error
	Err    error
	Files  []string
	Bodies map[string][]byte
}

// Deposit records the upload and returns the configured error.
func (d *FakeDepositor) Deposit(_ context.Context, fileName string, body []byte) (*crossrefapi.Receipt, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.Errs[fileName]; err != nil {
		return nil, err
	}
	if d.Err != nil {
		return nil, d.Err
	}
	d.Files = append(d.Files, fileName)
	if d.Bodies == nil {
		d.Bodies = make(map[string][]byte)
	}
	d.Bodies[fileName] = append([]byte(nil), body...)
	return &crossrefapi.Receipt{StatusCode: 200, Body: "accepted"}, nil
}

// Calls returns the number of successful uploads.
func (d *FakeDepositor) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Files)
}

// IdentifierUpdate is one reconciliation call.
type IdentifierUpdate struct {
	CrisID string
	DOI    string
}

// FakeReconciler records identifier updates.
type FakeReconciler struct {
	mu      sync.Mutex
	Err     error
	Updates []IdentifierUpdate
}

// AppendIdentifier records the update and returns Err.
func (r *FakeReconciler) AppendIdentifier(_ context.Context, id, doi string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Updates = append(r.Updates, IdentifierUpdate{CrisID: id, DOI: doi})
	return nil
}
