package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrFetch          = errors.New("fetch error")
	ErrResolution     = errors.New("resolution error")
	ErrValidation     = errors.New("validation error")
	ErrAuth           = errors.New("authentication error")
	ErrTransport      = errors.New("transport error")
	ErrReconciliation = errors.New("reconciliation error")
	ErrConfiguration  = errors.New("configuration error")
)

// ErrorKind is the short classification persisted with failed records.
type ErrorKind string

const (
	KindNone           ErrorKind = ""
	KindFetch          ErrorKind = "fetch"
	KindResolution     ErrorKind = "resolution"
	KindValidation     ErrorKind = "validation"
	KindAuth           ErrorKind = "auth"
	KindTransport      ErrorKind = "transport"
	KindReconciliation ErrorKind = "reconciliation"
	KindConfiguration  ErrorKind = "configuration"
	KindUnknown        ErrorKind = "unknown"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind maps an error to its classification. Auth is checked before transport
// because deposit failures may carry both markers.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrFetch):
		return KindFetch
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrAuth):
		return KindAuth
	case errors.Is(err, ErrReconciliation):
		return KindReconciliation
	case errors.Is(err, ErrTransport):
		return KindTransport
	case errors.Is(err, ErrResolution):
		return KindResolution
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	default:
		return KindUnknown
	}
}

// Hint returns operator guidance for an error classification.
func Hint(kind ErrorKind) string {
	switch kind {
	case KindFetch:
		return "check cris.api_url and CRIS availability; nothing was processed"
	case KindValidation:
		return "complete the record in the CRIS and rerun"
	case KindAuth:
		return "verify crossref.username and crossref.password"
	case KindTransport:
		return "external service unreachable or rejected the request; rerun later"
	case KindReconciliation:
		return "DOI is registered; add it to the CRIS record manually or rerun reconciliation"
	case KindResolution:
		return "included paper DOI could not be resolved"
	case KindConfiguration:
		return "fix the configuration file"
	default:
		return "check logs for details"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
