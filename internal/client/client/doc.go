// Package client is the gRPC client of the users service used by the admin
// CLI.
//
// GRPCClient keeps the session and access tokens of the last login, attaches
// the access token and the admin key to outgoing calls, and refreshes the
// access token once when the server reports it expired. Status codes are
// mapped to the sentinel errors in errors.go; ReasonOf exposes the
// machine-readable reason the server attached.
package client
