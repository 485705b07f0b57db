package trace_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/keboola/go-utils/pkg/wildcards"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/go-resource/pkg/client"
	"github.com/keboola/go-resource/pkg/client/trace"
	"github.com/keboola/go-resource/pkg/request"
)

func TestDumpTracer(t *testing.T) {
	t.Parallel()

	// Mocked response
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", `https://example.com`, httpmock.ResponderFromMultipleResponses([]*http.Response{
		{StatusCode: http.StatusLocked},
		{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("OK"))},
	}))

	// Logs for trace testing
	var logs strings.Builder

	// Create client
	ctx := context.Background()
	c := client.New().
		WithTransport(transport).
		WithRetry(client.TestingRetry()).
		AndTrace(trace.DumpTracer(&logs))

	// Expected trace
	expected := `
>>>>>> HTTP DUMP
GET / HTTP/1.1
Host: example.com
User-Agent: keboola-go-resource
Accept-Encoding: gzip, br
------
HTTP/0.0 423 Locked
Content-Length: 0
<<<<<< HTTP DUMP END

>>>>>> HTTP RETRY | ATTEMPT: 1 | DELAY: 1ms | GET / 423 | ERROR: <nil>

>>>>>> HTTP DUMP
GET / HTTP/1.1
Host: example.com
User-Agent: keboola-go-resource
Accept-Encoding: gzip, br
------
HTTP/0.0 200 OK
Content-Length: 0
------
OK
<<<<<< HTTP DUMP END

>>>>>> HTTP REQUEST PROCESSED | GET / 200 | ERROR: <nil> | HEADERS AT: %s | DONE AT: %s
`

	// Test
	str := ""
	_, result, err := request.NewHTTPRequest(c).WithGet("https://example.com").WithResult(&str).Send(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "OK", *result.(*string))
	wildcards.Assert(t, strings.TrimLeft(expected, "\n"), logs.String())
}

func TestDumpTracer_GzipBody(t *testing.T) {
	t.Parallel()

	var body bytes.Buffer
	w := gzip.NewWriter(&body)
	_, err := w.Write([]byte(`{"foo":"bar"}`))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", `https://example.com`, func(req *http.Request) (*http.Response, error) {
		res := httpmock.NewBytesResponse(http.StatusOK, body.Bytes())
		res.Header.Set("Content-Encoding", "gzip")
		res.Header.Set("Content-Type", "application/json")
		return res, nil
	})

	var logs strings.Builder
	c := client.New().WithTransport(transport).AndTrace(trace.DumpTracer(&logs))

	// The body is dumped decoded, the client still gets the full body
	result := make(map[string]any)
	_, _, err = request.NewHTTPRequest(c).WithGet("https://example.com").WithResult(&result).Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"foo": "bar"}, result)
	assert.Contains(t, logs.String(), "------\n{\"foo\":\"bar\"}\n<<<<<< HTTP DUMP END")
}
