// Package ledger persists the idempotency record of deposits as a
// tab-separated, append-only file.
//
// Each line holds cris_id, registration_id and an RFC3339 created_at. Older
// two column files are read as-is. Writes append one line and fsync. A
// trailing fragment left by a crash is ignored on load and cut before the
// next append; complete lines are never rewritten.
package ledger
