package client_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/http2"

	"github.com/keboola/go-resource/pkg/client"
)

func TestDefaultTransport(t *testing.T) {
	t.Parallel()

	transport, ok := client.DefaultTransport().(*http.Transport)
	require.True(t, ok)
	assert.True(t, transport.ForceAttemptHTTP2)
	assert.Equal(t, client.MaxConnectionsPerHost, transport.MaxConnsPerHost)
	assert.Equal(t, client.MaxConnectionsPerHost, transport.MaxIdleConnsPerHost)
	assert.Equal(t, client.TLSHandshakeTimeout, transport.TLSHandshakeTimeout)
	assert.NotNil(t, transport.DialContext)

	// Each call returns a new transport, so the connection pools are not shared
	assert.NotSame(t, transport, client.DefaultTransport())
}

func TestHTTP2Transport(t *testing.T) {
	t.Parallel()

	transport, ok := client.HTTP2Transport().(*http2.Transport)
	require.True(t, ok)
	assert.NotNil(t, transport.DialTLSContext)
}

func TestWithTransport_Nil(t *testing.T) {
	t.Parallel()
	assert.PanicsWithError(t, "transport cannot be nil", func() {
		client.New().WithTransport(nil)
	})
}
