// Package tokenstore provides the storage of access tokens used to authenticate requests.
//
// A Store is read once per authenticated request, the token is looked up by the key
// configured for the resource, see resource.Config.TokenKey.
package tokenstore

import (
	"context"
)

// Store reads access tokens by key.
// If the token does not exist, found is false and err is nil.
// An error is returned only if the store cannot be read.
type Store interface {
	Get(ctx context.Context, key string) (token string, found bool, err error)
}

// StoreFunc adapts a function to the Store interface.
type StoreFunc func(ctx context.Context, key string) (string, bool, error)

func (fn StoreFunc) Get(ctx context.Context, key string) (string, bool, error) {
	return fn(ctx, key)
}

// Chain returns a Store that reads stores in the order, the first found token wins.
// A read error stops the lookup.
func Chain(stores ...Store) Store {
	return StoreFunc(func(ctx context.Context, key string) (string, bool, error) {
		for _, s := range stores {
			if s == nil {
				continue
			}
			token, found, err := s.Get(ctx, key)
			if err != nil {
				return "", false, err
			}
			if found {
				return token, true, nil
			}
		}
		return "", false, nil
	})
}
