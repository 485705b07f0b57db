package tokenstore

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// TokenSourceStore serves tokens from oauth2.TokenSource values, one source per key.
// Tokens are cached by the source until they expire.
type TokenSourceStore struct {
	sources map[string]oauth2.TokenSource
}

func NewTokenSourceStore(sources map[string]oauth2.TokenSource) TokenSourceStore {
	s := TokenSourceStore{sources: make(map[string]oauth2.TokenSource, len(sources))}
	for key, src := range sources {
		s.sources[key] = oauth2.ReuseTokenSource(nil, src)
	}
	return s
}

func (s TokenSourceStore) Get(_ context.Context, key string) (string, bool, error) {
	src, found := s.sources[key]
	if !found {
		return "", false, nil
	}

	token, err := src.Token()
	if err != nil {
		return "", false, fmt.Errorf(`cannot get token "%s": %w`, key, err)
	}
	if !token.Valid() {
		return "", false, nil
	}
	return token.AccessToken, true, nil
}
