package services_test

import (
	"errors"
	"strings"
	"testing"

	"research2crossref/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransport, "deposit", "post", "crossref unreachable", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"deposit", "post", "crossref unreachable"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport marker by default, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestKindMapping(t *testing.T) {
	cases := []struct {
		err  error
		want services.ErrorKind
	}{
		{nil, services.KindNone},
		{services.Wrap(services.ErrFetch, "cris", "query", "", nil), services.KindFetch},
		{services.Wrap(services.ErrValidation, "build", "", "missing title", nil), services.KindValidation},
		{services.Wrap(services.ErrAuth, "deposit", "", "", nil), services.KindAuth},
		{services.Wrap(services.ErrReconciliation, "cris", "update", "", services.ErrTransport), services.KindReconciliation},
		{services.Wrap(services.ErrTransport, "deposit", "", "", nil), services.KindTransport},
		{services.Wrap(services.ErrResolution, "", "", "", nil), services.KindResolution},
		{errors.New("plain"), services.KindUnknown},
	}
	for _, tc := range cases {
		if got := services.Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
		if services.Hint(services.Kind(tc.err)) == "" {
			t.Fatalf("expected hint for %q", tc.want)
		}
	}
}
