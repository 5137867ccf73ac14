// Package http exposes the LiveBoard REST API over a chi router.
//
// Public routes:
//   - POST /api/auth/login {emailOrUsername|username|email, password}:
//     200 {token, expiresAt, user}; 400 on missing fields; 401 on bad credentials.
//   - POST /api/auth/register: 201 {token, expiresAt, user}; 409 when the
//     username or email is taken.
//   - GET /api/schedule[?date,room,faculty,search], GET /api/schedule/{id}.
//   - GET /api/announcements[?all=true], GET /api/announcements/{id}.
//   - GET /api/settings, GET /api/settings/{category}.
//   - GET /health, GET /metrics, and the websocket endpoint at /ws.
//
// Every other route requires an "Authorization: Bearer <token>" header and
// answers 401 without one. Error bodies are {"error", "error_code"?, "errors"?}.
//
// Request and response shapes live in package wire so the realtime channel
// shares them.
package http
