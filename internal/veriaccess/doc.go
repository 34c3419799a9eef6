// Package veriaccess provides typed calls for the VeriAccess backend
// resources.
//
// # Overview
//
// Each resource family gets a file with its calls; the shared types live in
// types.go. All requests go through an *api.Client, so they carry the bearer
// token, survive one access-token refresh, and fail with errors that
// api.Normalize understands.
//
//   - auth.go: login, register, logout, profile, password, session check
//   - access.go: access points, zones, logs, visitors, passes, occupancy
//   - parking.go: vehicles, areas, logs, grants, entry and exit
//   - security.go: incidents, protocols, emergency events, rounds
//   - notifications.go: messages and delivery preferences
//   - reports.go: definitions, generated reports, schedules
//
// # Usage
//
//	apiClient, err := api.New(api.Options{BaseURL: cfg.APIURL, Session: store})
//	if err != nil {
//		return err
//	}
//	client, err := veriaccess.New(apiClient, logger)
//	if err != nil {
//		return err
//	}
//	if _, err := client.Login(ctx, "guard", "secret"); err != nil {
//		fmt.Println(api.Message(err))
//	}
//	visitors, err := client.Visitors(ctx)
//
// # Lists
//
// The backend answers collections either as a bare array or as a paginated
// envelope {count, next, previous, results}. List decodes both; the list
// calls return only the items of the first page.
//
// # Session Side Effects
//
// Login persists the token pair and user. Register persists them only when
// the response carries both tokens. Me and UpdateProfile refresh the cached
// user. Logout always clears the local session, even when the backend call
// fails.
package veriaccess
