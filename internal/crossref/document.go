package crossref

import (
	"time"

	"research2crossref/internal/record"
	"research2crossref/internal/textutil"
)

// Document is a serialized deposit ready to be written and submitted.
type Document struct {
	registrationID string
	suffix         string
	data           []byte
	builtAt        time.Time
	pubType        record.PublicationType
}

// RegistrationID returns the full DOI the document registers.
func (d *Document) RegistrationID() string { return d.registrationID }

// Suffix returns the part of the DOI after the prefix.
func (d *Document) Suffix() string { return d.suffix }

// Type returns the publication type the document was built for.
func (d *Document) Type() record.PublicationType { return d.pubType }

// BuiltAt returns the build timestamp embedded in the document head.
func (d *Document) BuiltAt() time.Time { return d.builtAt }

// Bytes returns a copy of the UTF-8 encoded document.
func (d *Document) Bytes() []byte {
	out := make([]byte, len(d.data))
	copy(out, d.data)
	return out
}

// FileName names the artifact after the DOI suffix.
func (d *Document) FileName() string {
	return textutil.SanitizeFileName(d.suffix) + ".xml"
}

// TimestampFileName names the artifact after the build time.
func (d *Document) TimestampFileName() string {
	return d.builtAt.Format(timestampLayout) + ".xml"
}
