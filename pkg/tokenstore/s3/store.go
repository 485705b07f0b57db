// Package s3 opens a tokenstore.BlobStore backed by an AWS S3 bucket.
package s3

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"gocloud.dev/blob/s3blob"

	"github.com/keboola/go-resource/pkg/tokenstore"
)

type openConfig struct {
	transport   http.RoundTripper
	credentials aws.CredentialsProvider
	storeOpts   []tokenstore.BlobOption
}

type Option func(c *openConfig)

// WithStaticCredentials uses the given credentials instead of the default AWS credentials chain.
func WithStaticCredentials(accessKeyID, secretAccessKey, sessionToken string) Option {
	return func(c *openConfig) {
		c.credentials = credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, sessionToken)
	}
}

func WithTransport(transport http.RoundTripper) Option {
	return func(c *openConfig) {
		c.transport = transport
	}
}

func WithStoreOptions(opts ...tokenstore.BlobOption) Option {
	return func(c *openConfig) {
		c.storeOpts = append(c.storeOpts, opts...)
	}
}

// Open creates the store reading tokens from the bucket in the region.
func Open(ctx context.Context, bucket, region string, opts ...Option) (*tokenstore.BlobStore, error) {
	c := openConfig{}
	for _, o := range opts {
		o(&c)
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if c.credentials != nil {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(c.credentials))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("cannot load AWS config: %w", err)
	}

	// Set after loading, a custom CA bundle from the environment requires the default buildable client
	if c.transport != nil {
		cfg.HTTPClient = &http.Client{Transport: c.transport}
	}

	b, err := s3blob.OpenBucketV2(ctx, s3.NewFromConfig(cfg), bucket, nil)
	if err != nil {
		return nil, fmt.Errorf(`cannot open bucket "%s": %w`, bucket, err)
	}

	return tokenstore.NewBlobStore(b, c.storeOpts...), nil
}
