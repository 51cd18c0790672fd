// Package record holds the typed view of a CRIS publication record and its
// normalized derivative.
//
// Publication values are produced by the CRIS client and treated as read-only
// by everything downstream: the normalizer derives a fresh Normalized copy and
// the document builder only ever reads from that copy. Keep wire concerns
// (JSON field names, query projections) in the cris package so this model
// stays independent of how records are fetched.
package record
