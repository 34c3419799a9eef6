// Package ui is the Bubble Tea front end for the VeriAccess client.
//
// # Overview
//
// The UI never polls the backend itself. The app poller fills a state.Store
// and the UI reads a snapshot on every tick. User actions that write to the
// backend (sign in, sign out, visitor status changes, marking notifications
// read) go through the Backend interface as tea.Cmds and come back as
// messages, so Update never blocks.
//
// # Views
//
//   - Login: username and password inputs. Shown at start without a stored
//     session, after sign-out, and whenever a poll or action fails with
//     api.ErrSessionExpired. The normalized error message is shown above
//     the form.
//   - Dashboard: occupancy and counts in the header, a visitor table and a
//     recent access table side by side, and a notification strip.
//   - Logs: the tail of the client's own log file, re-read on each tick
//     while following.
//
// A help overlay lists every binding (bubbles/help over keyMap).
//
// # Theming
//
// Dracula and Slate palettes; T cycles them and the choice is saved with
// the prefs package together with the last username used to sign in.
package ui
