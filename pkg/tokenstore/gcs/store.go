// Package gcs opens a tokenstore.BlobStore backed by a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"github.com/googleapis/gax-go/v2"
	"gocloud.dev/blob/gcsblob"
	"gocloud.dev/gcp"
	"golang.org/x/oauth2"

	"github.com/keboola/go-resource/pkg/tokenstore"
)

type openConfig struct {
	transport http.RoundTripper
	backoff   gax.Backoff
	storeOpts []tokenstore.BlobOption
}

type Option func(c *openConfig)

func WithTransport(transport http.RoundTripper) Option {
	return func(c *openConfig) {
		c.transport = transport
	}
}

// WithBackoff sets the retry backoff of the storage client, reads are retried as idempotent operations.
func WithBackoff(backoff gax.Backoff) Option {
	return func(c *openConfig) {
		c.backoff = backoff
	}
}

func WithStoreOptions(opts ...tokenstore.BlobOption) Option {
	return func(c *openConfig) {
		c.storeOpts = append(c.storeOpts, opts...)
	}
}

// StaticToken returns a token source with a fixed bearer access token.
func StaticToken(accessToken string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
}

// Open creates the store reading tokens from the bucket, requests are authorized by the token source.
func Open(ctx context.Context, bucket string, tokenSource oauth2.TokenSource, opts ...Option) (*tokenstore.BlobStore, error) {
	c := openConfig{backoff: gax.Backoff{Initial: 100 * time.Millisecond, Max: 5 * time.Second, Multiplier: 2}}
	for _, o := range opts {
		o(&c)
	}

	transport := c.transport
	if transport == nil {
		transport = gcp.DefaultTransport()
	}

	client, err := gcp.NewHTTPClient(transport, tokenSource)
	if err != nil {
		return nil, err
	}

	b, err := gcsblob.OpenBucket(ctx, client, bucket, nil)
	if err != nil {
		return nil, fmt.Errorf(`cannot open bucket "%s": %w`, bucket, err)
	}

	var gcsClient *storage.Client
	if b.As(&gcsClient) {
		gcsClient.SetRetry(
			storage.WithBackoff(c.backoff),
			storage.WithPolicy(storage.RetryIdempotent),
		)
	}

	return tokenstore.NewBlobStore(b, c.storeOpts...), nil
}
