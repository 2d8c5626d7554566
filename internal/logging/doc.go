// Package logging assembles the structured slog loggers used across
// mixwheel components.
//
// It owns the console and JSON handlers, centralizes level plumbing, and
// exposes attribute helpers so pipeline code tags log lines consistently
// (component, source index, rotation step). A no-op logger is provided
// for tests and wiring code that cannot fail.
package logging
