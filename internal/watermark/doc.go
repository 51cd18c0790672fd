// Package watermark persists the incremental fetch cursor. The file holds a
// single RFC3339 timestamp and is replaced atomically.
package watermark
