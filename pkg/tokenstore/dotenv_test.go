package tokenstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/go-resource/pkg/tokenstore"
)

func TestNewDotenvStore(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	first := filepath.Join(dir, "first.env")
	second := filepath.Join(dir, "second.env")
	require.NoError(t, os.WriteFile(first, []byte("APP_ACCESS_TOKEN=abc\nAPP_REFRESH_TOKEN=def\n"), 0o600))
	require.NoError(t, os.WriteFile(second, []byte("# local override\nAPP_ACCESS_TOKEN=\"xyz\"\n"), 0o600))

	s, err := tokenstore.NewDotenvStore("APP_", first, second)
	require.NoError(t, err)

	token, found, err := s.Get(context.Background(), "accessToken")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "xyz", token)

	token, found, err = s.Get(context.Background(), "refreshToken")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "def", token)

	_, found, err = s.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNewDotenvStore_MissingFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "missing.env")
	_, err := tokenstore.NewDotenvStore("APP_", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `cannot read env file "`+path+`"`)
}

func TestParseDotenv(t *testing.T) {
	t.Parallel()
	s, err := tokenstore.ParseDotenv("", "export ACCESS_TOKEN=abc")
	require.NoError(t, err)
	token, found, err := s.Get(context.Background(), "accessToken")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "abc", token)
}
