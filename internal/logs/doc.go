// Package logs reads the salescope log file for the `salescope logs` command.
//
// It returns the last N lines with bounded memory, continues from a byte
// offset in follow mode, and filters lines by minimum level and by run, shop or
// video values. Both the console and JSON log formats are understood.
package logs
