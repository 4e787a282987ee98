// Package api implements the HTTP REST API and WebSocket server for Topic Lab.
//
// This package provides:
//   - REST endpoints that drive the MQTT session (connect, publish, subscribe)
//   - Load/save/delete of the stored connection profiles
//   - Button presses and saved subscriptions with variable substitution
//   - A WebSocket hub that pushes mqtt-status and mqtt-message events
//   - JWT authentication and a per-client rate limiter
//
// # Security
//
// When security.jwt.secret is empty every request is treated as an admin
// and the server should only listen on loopback. Otherwise requests carry
// "Authorization: Bearer <token>"; WebSocket clients, which cannot set
// headers from a browser, pass ?token= instead.
//
// # Errors
//
// Failures are JSON bodies of the form {"status", "code", "message"}.
// Session failures use the session package's stable codes
// (not_connected, client_error, connection_error).
package api
