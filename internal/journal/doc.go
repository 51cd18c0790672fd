// Package journal keeps an SQLite audit trail of workflow runs.
//
// Every record processed by a run produces one attempt row carrying the final
// state, the error classification and the artifact path. The journal is
// informational: the ledger file remains the idempotency source of truth,
// and journal write failures never change a record's outcome.
package journal
