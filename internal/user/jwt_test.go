package user

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func TestGenerateJWT_SignsClaimsWithDefaultTTL(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_TTL_HOURS", "")

	signed, err := generateJWT(42)
	assert.NoError(t, err)

	claims := &JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	assert.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, uint(42), claims.Id)

	ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	assert.Equal(t, defaultTokenTTL, ttl)
}

func TestTokenTTL_EnvOverride(t *testing.T) {
	t.Setenv("JWT_TTL_HOURS", "12")
	assert.Equal(t, 12*time.Hour, tokenTTL())

	t.Setenv("JWT_TTL_HOURS", "not-a-number")
	assert.Equal(t, defaultTokenTTL, tokenTTL())

	t.Setenv("JWT_TTL_HOURS", "-3")
	assert.Equal(t, defaultTokenTTL, tokenTTL())
}
