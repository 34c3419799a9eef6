// Package logging configures the client's logrus logger.
//
// The terminal belongs to the TUI, so log entries go to a file as JSON lines.
// The in-app log view tails the same file.
package logging
