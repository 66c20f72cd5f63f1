// Package httpserver exposes the API router over HTTP.
//
// Routes:
//
//	GET  /health, /ready      unauthenticated liveness
//	GET  /metrics             Prometheus exposition, metrics or admin key
//	GET  /v1/methods          method catalogue
//	POST /v1/call/{method}    one router call; list methods return one page
//
// Middleware order: Recover, RequestID, NetworkACL, RateLimit, Audit, Auth.
package httpserver
