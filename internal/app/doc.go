// Package app is the composition root of the VeriAccess client.
//
// # Overview
//
// Run wires configuration, logging, the token store, the HTTP pipeline, the
// service client, the dashboard poller and the UI, then blocks until the
// user quits or the context is cancelled.
//
//  1. config.Load: TOML file, .env, VERIACCESS_* environment
//  2. logging.New: logrus JSON lines into the client log file
//  3. session.OpenFile + session.NewStore: persisted credentials
//  4. api.New: request pipeline with metrics, optional rate limit and the
//     visitor listing fallback
//  5. veriaccess.New: typed service calls
//  6. verifySession: GET /auth/me/ for a stored session, retried while the
//     server is unreachable
//  7. Poller.Start, then ui.Run (blocks)
//
// # Data Flow
//
//	┌──────────────┐          ┌─────────────┐          ┌───────────┐
//	│ Poller       │ Update() │ state.Store │ Snapshot │ ui.Model  │
//	│ (errgroup of │─────────→│             │─────────→│           │
//	│  4 fetches)  │          └─────────────┘          │ actions   │
//	└──────┬───────┘                                   └─────┬─────┘
//	       │                                                 │
//	       └──────────→ veriaccess.Client ←──────────────────┘
//	                          │
//	                     api.Client (hooks, refresh, fallback)
//	                          │
//	                     session.Store
//
// # Polling Behavior
//
// While a user is signed in the poller fetches occupancy, visitors, the
// recent access log and notifications concurrently. Any failure keeps the
// previous dashboard and counts as one failed poll; the next poll waits
// base * 2^failures, capped at 30 seconds. A failure wrapping
// api.ErrSessionExpired marks the snapshot so the UI returns to the login
// form. Nothing is polled while signed out, and Kick forces an immediate
// poll after login or a write action.
//
// # Error Handling
//
// Fatal errors returned from Run: unreadable or invalid configuration, an
// unwritable log file, an unreadable session file and an invalid API base
// URL. Everything after startup is logged and surfaced in the UI instead.
//
// # Metrics
//
// Pipeline metrics are registered on a private Prometheus registry. The
// client serves no HTTP endpoint, so the counters are summarized in the log
// at shutdown.
package app
