package authapi

import "time"

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPairResponse is returned by Register, Login and Refresh.
type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutResponse struct{}

type MeRequest struct{}

type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type LogoutAllRequest struct{}

type LogoutAllResponse struct {
	Revoked int64 `json:"revoked"`
}

type ListSessionsRequest struct {
	Offset int32 `json:"offset"`
	Limit  int32 `json:"limit"`
}

// Session describes one stored refresh token of the caller.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
}

type ListSessionsResponse struct {
	Sessions []*Session `json:"sessions"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}
