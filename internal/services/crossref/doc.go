// Package crossref uploads deposit documents to the Crossref deposit
// servlet. Uploads are paced with a token bucket so consecutive deposits
// stay well below the agency's abuse thresholds.
package crossref
