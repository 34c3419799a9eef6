// Package config loads the VeriAccess client settings.
//
// # Overview
//
// Settings come from three layers, later layers winning:
//
//  1. A TOML file: the path passed to Load, or ~/.config/veriaccess/config.toml
//  2. A .env file in the working directory (variables already set in the
//     process environment are not overwritten)
//  3. VERIACCESS_* environment variables
//
// A missing config file or .env file is not an error; defaults apply. This
// lets the client start against a local backend with no setup.
//
// # Default Values
//
//   - api_url: http://localhost:8000/api
//   - timeout: 30s
//   - session_path: ~/.local/state/veriaccess/session.toml
//   - log_path: ~/.local/state/veriaccess/veriaccess.log
//   - log_level: info
//   - requests_per_second: 0 (no client-side limit)
//   - visitor_fallback: true
//   - poll_interval: 5s
//
// # TOML Format
//
//	api_url = "https://access.example.com/api"
//	timeout = "20s"
//	log_level = "debug"
//	visitor_fallback = false
//
// Durations use Go syntax ("500ms", "30s"). Values are trimmed and paths
// support ~ expansion.
//
// # Environment
//
//   - VERIACCESS_API_URL
//   - VERIACCESS_TIMEOUT
//   - VERIACCESS_SESSION_PATH
//   - VERIACCESS_LOG_PATH
//   - VERIACCESS_LOG_LEVEL
//   - VERIACCESS_REQUESTS_PER_SECOND
//
// Empty variables are ignored.
//
// # Error Handling
//
// Load returns errors for unreadable files, TOML syntax errors, malformed
// durations, and settings rejected by Validate.
package config
