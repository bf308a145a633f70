// Package auth provides the authentication contracts used by draftd.
//
//   - auth/jwt      JWT token service over golang-jwt, generic in the claims type
//   - auth/authctx  type-safe request context propagation for claims
//
// The top-level package defines TokenValidator, the contract the HTTP auth
// middleware depends on, and Config, loaded from the service config:
//
//	auth:
//	  enabled: true
//	  jwt:
//	    secret: "my-secret"
//	    issuer: "draftd"
package auth
