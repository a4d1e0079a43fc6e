// Package common contains shared constants and sentinel errors used across
// the users service and its clients.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// AdminKeyHeaderName is the gRPC metadata key carrying the operator key
// required by administrative methods.
const AdminKeyHeaderName = "admin_key"

// SessionTokenBytes is the entropy of an opaque session token.
const SessionTokenBytes = 32
