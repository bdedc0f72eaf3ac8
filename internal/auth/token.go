package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vilatvok/rentbot/internal/domain"
)

// DecodeToken extracts the identity claims from an access token without
// verifying the signature. Verification is the backend's job; the client only
// needs id, username and expiry.
func DecodeToken(token string) (*domain.Claims, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type %T", parsed.Claims)
	}

	id, ok := claims["id"].(float64)
	if !ok {
		return nil, fmt.Errorf("token claims missing id")
	}
	username, ok := claims["username"].(string)
	if !ok {
		return nil, fmt.Errorf("token claims missing username")
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, fmt.Errorf("token claims missing exp")
	}

	return &domain.Claims{
		ID:        int64(id),
		Username:  username,
		ExpiresAt: time.Unix(int64(exp), 0),
	}, nil
}
