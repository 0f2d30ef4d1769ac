// Package authclient is the client side of the taskboard auth service.
//
// GRPCClient keeps the caller's token pair, attaches the access token to
// protected calls and, when the server rejects it, renews it once with the
// refresh token before retrying. gRPC status codes are mapped to the sentinel
// errors in errors.go so callers can match them with errors.Is.
//
// FileStore persists the token pair between CLI invocations.
package authclient
