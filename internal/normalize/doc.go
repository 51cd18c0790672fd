// Package normalize turns fetched CRIS publications into cleaned records the
// document builder can map without further lookups.
//
// Free text is stripped of markup, thesis series item numbers and degree
// abbreviations are derived, home-institution affiliations receive the fixed
// institutional identity, and included papers are resolved to DOIs through an
// injected Resolver so the package never performs network I/O itself.
package normalize
