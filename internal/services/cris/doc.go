// Package cris provides a client for the institutional research information
// system's publication API.
//
// It covers the three lookups the workflow needs (candidate query, single
// record, included-paper DOI) and the reconciliation write that appends a
// newly registered DOI to a publication. Lookup failures carry
// services.ErrFetch or services.ErrResolution, write-back failures carry
// services.ErrReconciliation.
package cris
