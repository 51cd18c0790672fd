// Package config loads, normalizes, and validates r2c configuration data.
//
// It supplies repository defaults (including the home institution identity
// and depositor), expands user paths, reads TOML files, and honours the
// environment variables operators already export for the deposit scripts
// (CROSSREF_UID, CROSSREF_PW, DOI_PREFIX, CRIS_API_EP and friends).
//
// Always obtain settings through this package so the workflow receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
