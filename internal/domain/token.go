package domain

import "time"

// TokenPair is the opaque access/refresh pair issued by the backend. The
// refresh token may be empty when the backend reissues only the access token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Claims is the identity claim set carried by an access token. The client
// decodes it without verifying the signature; verification is the backend's
// job.
type Claims struct {
	ID        int64
	Username  string
	ExpiresAt time.Time
}

// Valid reports whether the claims describe a live session: expiry strictly
// in the future.
func (c *Claims) Valid(now time.Time) bool {
	return c != nil && c.ExpiresAt.After(now)
}
