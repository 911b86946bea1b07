// Package server exposes the practice tracker as a JSON API.
//
// # Routing
//
// The [Router] interface wraps a [chi.Mux] through [ChiRouter]. Groups of endpoints implement [Handler]
// and register themselves with Routes, so each handler owns its URL layout.
//
// Public endpoints:
//   - GET /healthz
//   - GET /metrics (Prometheus text format)
//
// Everything below /api requires the auth header (X-Auth-Email by default) and is rate limited:
//   - /api/songs, /api/songs/{id}, /api/songs/{id}/elements
//   - /api/instruments, /api/instruments/{id}/elements
//   - /api/levels, /api/evaluate/{elementID}/{instrumentID}, /api/evaluations
//   - /api/stats, /api/stats/activity, /api/stats/export.{format}
//
// # Authentication
//
// Sign-in is handled by an auth proxy in front of the server. [Authenticate] trusts the configured
// header, creates the user on first sight and stores it on the request context, see [UserFromContext].
//
// # Requests & Errors
//
// Bodies may be JSON or URL-encoded forms. Requests are bound with go-chi/render and checked with
// go-playground/validator. Failures are rendered as [APIError] with a stable error code.
package server
