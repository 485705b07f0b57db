package tokenstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/memblob"

	"github.com/keboola/go-resource/pkg/tokenstore"
)

func TestBlobStore_SetGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	s := tokenstore.NewBlobStore(memblob.OpenBucket(nil), tokenstore.WithKeyPrefix("tokens/"), tokenstore.WithClock(func() time.Time { return now }))
	defer func() { assert.NoError(t, s.Close()) }()

	// Missing
	_, found, err := s.Get(ctx, "accessToken")
	require.NoError(t, err)
	assert.False(t, found)

	// Without expiration
	require.NoError(t, s.Set(ctx, "accessToken", "abc", time.Time{}))
	token, found, err := s.Get(ctx, "accessToken")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "abc", token)

	// Valid
	require.NoError(t, s.Set(ctx, "valid", "def", now.Add(time.Hour)))
	token, found, err = s.Get(ctx, "valid")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "def", token)

	// Expired
	require.NoError(t, s.Set(ctx, "expired", "ghi", now.Add(-time.Second)))
	_, found, err = s.Get(ctx, "expired")
	require.NoError(t, err)
	assert.False(t, found)

	// Deleted
	require.NoError(t, s.Delete(ctx, "accessToken"))
	require.NoError(t, s.Delete(ctx, "accessToken"))
	_, found, err = s.Get(ctx, "accessToken")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBlobStore_FileBucket(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "plain"), []byte("abc\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "document"), []byte(`{"token":"def","expiresAt":"2999-01-01T00:00:00Z"}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "expired"), []byte(`{"token":"ghi","expiresAt":"2001-01-01T00:00:00Z"}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty"), []byte("  "), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "invalid"), []byte(`{"token":`), 0o600))

	bucket, err := fileblob.OpenBucket(dir, nil)
	require.NoError(t, err)
	s := tokenstore.NewBlobStore(bucket)
	defer func() { assert.NoError(t, s.Close()) }()

	cases := []struct {
		key   string
		token string
		found bool
	}{
		{key: "plain", token: "abc", found: true},
		{key: "document", token: "def", found: true},
		{key: "expired"},
		{key: "empty"},
		{key: "missing"},
	}
	for _, tc := range cases {
		token, found, err := s.Get(ctx, tc.key)
		require.NoError(t, err, tc.key)
		assert.Equal(t, tc.found, found, tc.key)
		assert.Equal(t, tc.token, token, tc.key)
	}

	_, _, err = s.Get(ctx, "invalid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `cannot decode token "invalid"`)
}

func TestOpenBlobStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, err := tokenstore.OpenBlobStore(ctx, "mem://")
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "accessToken", "abc", time.Time{}))
	token, found, err := s.Get(ctx, "accessToken")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "abc", token)
	assert.NoError(t, s.Close())

	_, err = tokenstore.OpenBlobStore(ctx, "unknown://bucket")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `cannot open bucket "unknown://bucket"`)
}
