// Package logtail reads the end of the client log and parses its entries.
//
// # Overview
//
// The client writes logrus JSON lines to a file because the TUI owns the
// terminal. The logs view shows the tail of that file, so this package
// provides two things:
//
//  1. Read: the last N lines of a file in a single pass
//  2. Parse/Format: turn a JSON line into an Entry and back into a compact
//     "15:04:05 LEVEL message key=value" line
//
// # Reading Log Files
//
// Read keeps a ring buffer of maxLines strings while scanning the file, so
// memory stays O(maxLines) regardless of file size. Lines come back oldest
// first. A non-positive maxLines returns the whole file.
//
//	lines, err := logtail.Read(cfg.LogPath, 400)
//
// # Entries
//
// Parse uses gjson so that a malformed or partially written last line never
// fails the view. Lines that are not JSON objects (a panic trace, for
// example) come back unstructured with the raw text as the message. The
// time, level and msg keys are lifted into fields; every other key becomes a
// Field, sorted by name.
//
// # Error Handling
//
// Read returns nil, nil for a missing file: the log may not exist until the
// first entry is written. Other I/O errors are returned wrapped. Parse and
// Format never fail.
package logtail
