package tokenstore

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SkipExpiredJWT wraps the store, a JWT token whose "exp" claim is not after now plus the leeway is reported as not found.
// The signature is not verified, tokens which are not JWTs are returned unchanged.
func SkipExpiredJWT(store Store, leeway time.Duration) Store {
	parser := jwt.NewParser()
	return StoreFunc(func(ctx context.Context, key string) (string, bool, error) {
		token, found, err := store.Get(ctx, key)
		if err != nil || !found {
			return token, found, err
		}

		claims := &jwt.RegisteredClaims{}
		if _, _, err := parser.ParseUnverified(token, claims); err != nil {
			return token, true, nil
		}

		if claims.ExpiresAt != nil && !claims.ExpiresAt.After(time.Now().Add(leeway)) {
			return "", false, nil
		}
		return token, true, nil
	})
}
