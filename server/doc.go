// Package server provides the HTTP server for draftd using Gin with h2c
// support.
//
// Transport middleware (server/middleware) wraps the root mux:
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: request ID generation and propagation
//   - CORS: cross-origin resource sharing
//   - BodySizeLimit: request body size limits
//   - RequestLogger: request logging with duration tracking
//   - Auth: Bearer token authentication
//
// Route-aware middleware runs inside Gin: Observe (tracing and request
// metrics) and RateLimit.
//
// Built-in endpoints (server/endpoint): /health, /alive, /ready, /info and
// /version.
package server
