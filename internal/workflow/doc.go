// Package workflow drives publication records from the CRIS through
// normalization, document building, deposit and reconciliation.
//
// A Manager runs either an incremental batch (Run) bounded below by the
// stored watermark, or a single record (RunSingle) with an explicit DOI
// suffix and a confirmation step. Each record ends in exactly one State;
// a failing record never stops the batch. Only a failed fetch, a held run
// lock or a missing collaborator abort a run before records are processed.
//
// The ledger is consulted before any deposit and appended to immediately
// after one succeeds, so reruns are idempotent. The watermark moves only at
// the end of a batch that had deposits enabled.
package workflow
