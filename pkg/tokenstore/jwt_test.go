package tokenstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/go-resource/pkg/tokenstore"
)

func signedJWT(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user",
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func TestSkipExpiredJWT(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	valid := signedJWT(t, time.Now().Add(time.Hour))
	expired := signedJWT(t, time.Now().Add(-time.Hour))
	expiresSoon := signedJWT(t, time.Now().Add(30*time.Second))
	s := tokenstore.SkipExpiredJWT(tokenstore.NewMemoryStore(map[string]string{
		"valid":       valid,
		"expired":     expired,
		"expiresSoon": expiresSoon,
		"plain":       "abc",
	}), time.Minute)

	token, found, err := s.Get(ctx, "valid")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, valid, token)

	token, found, err = s.Get(ctx, "expired")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, token)

	_, found, err = s.Get(ctx, "expiresSoon")
	require.NoError(t, err)
	assert.False(t, found)

	token, found, err = s.Get(ctx, "plain")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "abc", token)

	_, found, err = s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSkipExpiredJWT_Error(t *testing.T) {
	t.Parallel()
	s := tokenstore.SkipExpiredJWT(tokenstore.StoreFunc(func(context.Context, string) (string, bool, error) {
		return "", false, errors.New("store is down")
	}), 0)
	_, _, err := s.Get(context.Background(), "accessToken")
	assert.EqualError(t, err, "store is down")
}
