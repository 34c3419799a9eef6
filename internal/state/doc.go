// Package state holds the dashboard data shared by the poller and the UI.
//
// # Overview
//
// The background poller writes one Dashboard per tick with Store.Update and
// the UI reads Store.Snapshot on every render. Snapshots are copies, so the
// UI can sort or mutate them freely.
//
//	Producer (poller):              Consumer (UI):
//	┌──────────────────┐           ┌──────────────────┐
//	│ CurrentOccupancy │           │                  │
//	│ Visitors         │           │                  │
//	│ RecentAccessLogs │           │                  │
//	│ Notifications    │           │                  │
//	│       ↓          │           │                  │
//	│ store.Update()   │──────────→│ store.Snapshot() │
//	└──────────────────┘  (mutex)  └──────────────────┘
//
// # Failure Tracking
//
// A failed poll keeps the previous data and records the error. After two
// consecutive failures IsOffline reports true and the header shows an
// offline badge. An error wrapping api.ErrSessionExpired is different: the
// data belonged to a session that no longer exists, so it is discarded and
// SessionExpired is set. The UI answers that flag with the login form.
//
// # Local Edits
//
// MarkRead and Reset let the UI reflect an action immediately instead of
// waiting for the next poll.
package state
