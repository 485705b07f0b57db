package tokenstore

import (
	"bytes"
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/relvacode/iso8601"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// scheme for OpenBlobStore
	_ "gocloud.dev/blob/memblob"  // mem:// scheme for OpenBlobStore
	"gocloud.dev/gcerrors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// BlobStore reads tokens from a bucket, one object per key.
//
// The object contains the plain token or a JSON document:
//
//	{"token": "...", "expiresAt": "2024-01-01T10:00:00Z"}
//
// An expired token is reported as not found.
type BlobStore struct {
	bucket *blob.Bucket
	prefix string
	now    func() time.Time
}

type BlobOption func(s *BlobStore)

// WithKeyPrefix sets the prefix of object keys, for example "tokens/".
func WithKeyPrefix(prefix string) BlobOption {
	return func(s *BlobStore) {
		s.prefix = prefix
	}
}

// WithClock sets the time source used to check the expiration.
func WithClock(now func() time.Time) BlobOption {
	return func(s *BlobStore) {
		s.now = now
	}
}

type tokenDocument struct {
	Token     string        `json:"token"`
	ExpiresAt *iso8601.Time `json:"expiresAt,omitempty"`
}

func NewBlobStore(bucket *blob.Bucket, opts ...BlobOption) *BlobStore {
	s := &BlobStore{bucket: bucket, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// OpenBlobStore opens the bucket by URL, for example "file:///var/tokens" or "mem://".
// Cloud schemes are available if the driver is registered, see the s3 and gcs packages.
func OpenBlobStore(ctx context.Context, bucketURL string, opts ...BlobOption) (*BlobStore, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf(`cannot open bucket "%s": %w`, bucketURL, err)
	}
	return NewBlobStore(bucket, opts...), nil
}

func (s *BlobStore) Get(ctx context.Context, key string) (string, bool, error) {
	content, err := s.bucket.ReadAll(ctx, s.objectKey(key))
	if gcerrors.Code(err) == gcerrors.NotFound {
		return "", false, nil
	} else if err != nil {
		return "", false, fmt.Errorf(`cannot read token "%s": %w`, key, err)
	}

	content = bytes.TrimSpace(content)
	if len(content) == 0 {
		return "", false, nil
	}

	// Plain token
	if content[0] != '{' {
		return string(content), true, nil
	}

	doc := tokenDocument{}
	if err := json.Unmarshal(content, &doc); err != nil {
		return "", false, fmt.Errorf(`cannot decode token "%s": %w`, key, err)
	}
	if doc.ExpiresAt != nil && !s.now().Before(doc.ExpiresAt.Time) {
		return "", false, nil
	}
	return doc.Token, doc.Token != "", nil
}

// Set writes the token, a zero expiresAt means the token does not expire.
func (s *BlobStore) Set(ctx context.Context, key, token string, expiresAt time.Time) error {
	doc := tokenDocument{Token: token}
	if !expiresAt.IsZero() {
		doc.ExpiresAt = &iso8601.Time{Time: expiresAt.UTC()}
	}

	content, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	opts := &blob.WriterOptions{ContentType: "application/json"}
	if err := s.bucket.WriteAll(ctx, s.objectKey(key), content, opts); err != nil {
		return fmt.Errorf(`cannot write token "%s": %w`, key, err)
	}
	return nil
}

// Delete removes the token, a missing token is not an error.
func (s *BlobStore) Delete(ctx context.Context, key string) error {
	err := s.bucket.Delete(ctx, s.objectKey(key))
	if err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return fmt.Errorf(`cannot delete token "%s": %w`, key, err)
	}
	return nil
}

// Close closes the underlying bucket.
func (s *BlobStore) Close() error {
	return s.bucket.Close()
}

func (s *BlobStore) objectKey(key string) string {
	return s.prefix + key
}
