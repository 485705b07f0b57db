package tokenstore

import (
	"context"
	"os"
	"strings"

	"github.com/umisama/go-regexpcache"
)

// EnvStore reads tokens from environment variables.
//
// The key is converted to upper snake case and prefixed, for example,
// the key "accessToken" with the prefix "APP_" is read from "APP_ACCESS_TOKEN".
type EnvStore struct {
	prefix string
	lookup func(string) (string, bool)
}

func NewEnvStore(prefix string) EnvStore {
	return EnvStore{prefix: prefix, lookup: os.LookupEnv}
}

// VarName returns the name of the environment variable for the key.
func (s EnvStore) VarName(key string) string {
	name := regexpcache.MustCompile(`([a-z0-9])([A-Z])`).ReplaceAllString(key, "${1}_${2}")
	name = regexpcache.MustCompile(`[^A-Za-z0-9]+`).ReplaceAllString(name, "_")
	return s.prefix + strings.ToUpper(name)
}

func (s EnvStore) Get(_ context.Context, key string) (string, bool, error) {
	token, found := s.lookup(s.VarName(key))
	return token, found, nil
}

// WithLookup returns a copy of the store which reads variables by the function, instead of os.LookupEnv.
func (s EnvStore) WithLookup(fn func(string) (string, bool)) EnvStore {
	s.lookup = fn
	return s
}
