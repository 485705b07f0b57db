// Package abs opens a tokenstore.BlobStore backed by an Azure Blob Storage container.
package abs

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"gocloud.dev/blob/azureblob"

	"github.com/keboola/go-resource/pkg/tokenstore"
)

type openConfig struct {
	transport http.RoundTripper
	retry     policy.RetryOptions
	storeOpts []tokenstore.BlobOption
}

type Option func(c *openConfig)

func WithTransport(transport http.RoundTripper) Option {
	return func(c *openConfig) {
		c.transport = transport
	}
}

// WithRetry sets the retry policy of the container client, a negative MaxRetries disables retries.
func WithRetry(retry policy.RetryOptions) Option {
	return func(c *openConfig) {
		c.retry = retry
	}
}

func WithStoreOptions(opts ...tokenstore.BlobOption) Option {
	return func(c *openConfig) {
		c.storeOpts = append(c.storeOpts, opts...)
	}
}

// Open creates the store reading tokens from the container.
// The containerURL must carry a SAS token, for example "https://account.blob.core.windows.net/tokens?sv=...".
func Open(ctx context.Context, containerURL string, opts ...Option) (*tokenstore.BlobStore, error) {
	c := openConfig{}
	for _, o := range opts {
		o(&c)
	}

	clientOpts := &container.ClientOptions{ClientOptions: azcore.ClientOptions{Retry: c.retry}}
	if c.transport != nil {
		clientOpts.Transport = &http.Client{Transport: c.transport}
	}

	client, err := container.NewClientWithNoCredential(containerURL, clientOpts)
	if err != nil {
		return nil, fmt.Errorf(`cannot create container client "%s": %w`, containerURL, err)
	}

	b, err := azureblob.OpenBucket(ctx, client, nil)
	if err != nil {
		return nil, fmt.Errorf(`cannot open container "%s": %w`, containerURL, err)
	}

	return tokenstore.NewBlobStore(b, c.storeOpts...), nil
}
