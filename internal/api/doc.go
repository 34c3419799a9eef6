// Package api is the HTTP client for the VeriAccess backend.
//
// # Overview
//
// Every call made by the domain services goes through one Client. The client
// attaches the stored bearer token, recovers from an expired access token by
// refreshing it and replaying the request once, turns error responses into
// human-readable messages, and can degrade selected read-only listings to a
// fixed body when the backend is down.
//
// # Pipeline
//
// A call is an ordered list of hooks around a single round trip.
//
// Outbound, in order:
//
//   - requestID: sets X-Request-ID when the caller did not
//   - bearer: sets Authorization from the session store, overwriting any
//     header the caller set
//   - rateLimit: waits on the configured rate.Limiter (optional)
//
// Inbound, in order:
//
//   - observe: debug log line and Prometheus metrics for every round trip
//   - refresh: on 401, exchange the refresh token and replay once
//   - normalize: attach the extracted message to *ResponseError and log it
//   - fallback: substitute a configured body for GET failures on listed paths
//
// A hook settles the call to stop the hooks after it. The refresh hook
// settles with the result of the replay, which has already been through the
// whole pipeline.
//
// # Token Refresh
//
// A 401 triggers a refresh unless the request was already retried, targets
// /auth/login/, or the session store is unavailable. The exchange is a plain
// POST /auth/refresh/ {"refresh": ...} that bypasses the hooks. On success the
// new access token is stored and the request replayed with Retried set. On any
// failure the session is cleared and the caller gets an error wrapping
// ErrSessionExpired:
//
//	_, err := client.Do(ctx, req)
//	if errors.Is(err, api.ErrSessionExpired) {
//		// show the login form
//	}
//
// Concurrent 401s share one exchange per refresh token. A request whose
// token was rotated while it was in flight replays with the stored token
// without exchanging again.
//
// # Errors
//
// Failures reach the caller as one of:
//
//   - *ResponseError: any status >= 400, Message set from the body
//   - *NetworkError: no response at all
//   - an error wrapping ErrSessionExpired
//
// Normalize maps each to a NormalizedError with a Kind:
//
//	400 → ValidationError    401 → AuthExpired    403 → Forbidden
//	404 → NotFound           5xx → ServerError    no response → NetworkUnavailable
//
// The message is taken from the first of: a plain string body, "detail",
// "error", then field errors joined as "field: m1, m2; other: m3" in body
// order.
//
// # Fallbacks
//
// DefaultFallbacks answers GET /access/visitors/ with [] when the server is
// unreachable or returns 5xx. Matching is on exact method and path; the query
// string is ignored. Writes are never masked.
package api
