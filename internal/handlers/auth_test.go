package handlers

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueJWTRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	h := &AuthHandler{jwtSecret: secret}

	signed, err := h.issueJWT("eco@example.com")
	require.NoError(t, err)

	parsed, err := jwt.Parse(signed, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "eco@example.com", claims["sub"])

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	remaining := time.Until(exp.Time)
	assert.Greater(t, remaining, 29*24*time.Hour)
	assert.LessOrEqual(t, remaining, 30*24*time.Hour)
}

func TestIssueJWTRejectsWrongSecret(t *testing.T) {
	h := &AuthHandler{jwtSecret: []byte("right")}
	signed, err := h.issueJWT("eco@example.com")
	require.NoError(t, err)

	_, err = jwt.Parse(signed, func(token *jwt.Token) (interface{}, error) {
		return []byte("wrong"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcde...", truncate("abcdefghij", 5))
	assert.Equal(t, "", truncate("", 5))

	// Multi-byte text is cut on rune boundaries, never mid-character.
	assert.Equal(t, "日本語...", truncate("日本語のテキスト", 3))
	assert.True(t, utf8.ValidString(truncate("héllo wörld", 6)))
}
