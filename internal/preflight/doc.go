// Package preflight provides readiness checks for the CRIS endpoint, the
// deposit configuration and the local state r2c depends on.
//
// The CLI "r2c preflight" command runs RunAll and prints one line per
// check. Deposit checks are gated by create_doi.
package preflight
