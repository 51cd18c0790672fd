// Package services defines shared utilities consumed by the workflow and the
// external integrations (CRIS and Crossref clients).
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, CRIS record IDs, stage names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into the error taxonomy the workflow routes on (fetch, validation,
//     auth, transport, reconciliation).
//
// Use these helpers when wiring new integrations so failure classification
// and observability stay uniform across the pipeline.
package services
