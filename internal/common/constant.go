package common

// AuthorizationHeaderName is the gRPC metadata key carrying the access token
// as "Bearer <token>".
const AuthorizationHeaderName = "authorization"

// BearerPrefix precedes the token in the authorization header.
const BearerPrefix = "Bearer "

// Token kinds embedded in the "type" claim.
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)
