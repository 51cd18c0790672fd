package textutil

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

var (
	stripPolicy = bluemonday.StrictPolicy()
	// Block-level closers become spaces so adjacent paragraphs don't fuse.
	blockBoundary = regexp.MustCompile(`(?i)</(p|div|li|h[1-6]|blockquote|tr)>|<br\s*/?>`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// CleanText strips markup from CRIS free text and collapses it to a single
// line of plain text. The result is NFC normalized. An empty return value
// means the field should be treated as absent.
func CleanText(value string) string {
	value = strings.TrimSpace(strings.Trim(value, "\r\n"))
	if value == "" {
		return ""
	}
	value = blockBoundary.ReplaceAllString(value, " ")
	value = stripPolicy.Sanitize(value)
	// bluemonday escapes what it keeps; undo it to get plain text.
	value = html.UnescapeString(value)
	value = whitespaceRun.ReplaceAllString(value, " ")
	return norm.NFC.String(strings.TrimSpace(value))
}

// CompactIdentifier removes hyphens and whitespace from identifiers such as
// ISBNs so they can be used as DOI suffixes and file names.
func CompactIdentifier(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range strings.TrimSpace(value) {
		switch r {
		case '-', ' ', '\t', '‐', '‑', '–':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FirstNonEmpty returns the first value that is not blank after trimming.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
