// Package logging assembles structured slog loggers for salescope.
//
// It owns the console and JSON handlers, routes output to stderr plus the
// optional log file, and exposes context helpers so analysis code can tag
// every line with the run ID, shop, and video being processed. A no-op logger
// is provided for tests and wiring code that cannot fail.
package logging
