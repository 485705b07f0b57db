package tokenstore

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
)

// NewDotenvStore reads tokens from dotenv files, variable names are mapped from keys as in EnvStore.
// Files are read once, later files override variables of the earlier ones.
func NewDotenvStore(prefix string, paths ...string) (EnvStore, error) {
	vars := make(map[string]string)
	for _, path := range paths {
		fileVars, err := godotenv.Read(path)
		if err != nil {
			return EnvStore{}, fmt.Errorf(`cannot read env file "%s": %w`, path, err)
		}
		for k, v := range fileVars {
			vars[k] = v
		}
	}
	return NewEnvStore(prefix).WithLookup(lookupMap(vars)), nil
}

// ParseDotenv is like NewDotenvStore, but it reads variables from the content.
func ParseDotenv(prefix, content string) (EnvStore, error) {
	vars, err := godotenv.Parse(strings.NewReader(content))
	if err != nil {
		return EnvStore{}, fmt.Errorf("cannot parse env content: %w", err)
	}
	return NewEnvStore(prefix).WithLookup(lookupMap(vars)), nil
}

func lookupMap(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}
