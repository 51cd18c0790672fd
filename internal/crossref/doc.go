// Package crossref builds Crossref deposit documents (schema 5.4.0) from
// normalized records.
//
// Each publication type maps to a FieldPolicy that selects the body skeleton,
// the contributor role and which optional elements are emitted. Adding a type
// is a table edit in policy.go. The builder performs no I/O; writing and
// submitting documents is the workflow's job.
package crossref
