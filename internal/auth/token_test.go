package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, id int64, username string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"username": username,
		"exp":      exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestDecodeToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signToken(t, 42, "alice", exp)

	claims, err := DecodeToken(token)
	require.NoError(t, err)
	require.Equal(t, int64(42), claims.ID)
	require.Equal(t, "alice", claims.Username)
	require.True(t, claims.ExpiresAt.Equal(exp))
}

func TestDecodeToken_Garbage(t *testing.T) {
	_, err := DecodeToken("not-a-jwt")
	require.Error(t, err)
}

func TestClaimsValid(t *testing.T) {
	now := time.Now()

	claims, err := DecodeToken(signToken(t, 1, "bob", now.Add(time.Minute)))
	require.NoError(t, err)
	require.True(t, claims.Valid(now))
	require.False(t, claims.Valid(now.Add(2*time.Minute)))
}
