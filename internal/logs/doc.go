// Package logs reads the r2c log file for the "r2c logs" command: the last
// N lines, lines mentioning one publication, or new lines as they arrive.
package logs
