package resource

import (
	"context"
	"fmt"

	"github.com/keboola/go-resource/pkg/tokenstore"
)

// Authenticate returns a copy of the Config with the access token header set,
// if the authentication is enabled and the store contains a non-empty token under the Config.TokenKey.
// Otherwise, the Config is returned unchanged.
//
// The header is set, not appended, so repeated calls give the same result.
// An error is returned, if the store cannot be read.
func Authenticate(ctx context.Context, cfg Config, store tokenstore.Store) (Config, error) {
	if !cfg.Auth || store == nil {
		return cfg, nil
	}

	tokenKey := cfg.TokenKey
	if tokenKey == "" {
		tokenKey = DefaultTokenKey
	}

	token, found, err := store.Get(ctx, tokenKey)
	if err != nil {
		return cfg, fmt.Errorf(`cannot authenticate, token "%s" cannot be read: %w`, tokenKey, err)
	}
	if !found || token == "" {
		return cfg, nil
	}

	header := cfg.AuthHeader
	if header == "" {
		header = DefaultAuthHeader
	}

	out := cfg.Clone()
	out.Headers.Set(header, token)
	return out, nil
}
