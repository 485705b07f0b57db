package trace_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"

	. "github.com/keboola/go-resource/pkg/client"
	. "github.com/keboola/go-resource/pkg/client/trace"
	. "github.com/keboola/go-resource/pkg/request"
)

func dump(v any) string {
	s := spew.NewDefaultConfig()
	s.DisablePointerAddresses = true
	s.DisableCapacities = true
	return strings.TrimSpace(s.Sdump(v))
}

func redirectResponder(location string) httpmock.Responder {
	return func(request *http.Request) (*http.Response, error) {
		header := make(http.Header)
		header.Set("Location", location)
		return &http.Response{StatusCode: http.StatusMovedPermanently, Header: header}, nil
	}
}

func TestTrace(t *testing.T) {
	t.Parallel()

	// Mocked responses, 2x redirect, 2x retry
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", `https://example.com/redirect1`, redirectResponder("https://example.com/redirect2"))
	transport.RegisterResponder("GET", `https://example.com/redirect2`, redirectResponder("https://example.com/index"))
	transport.RegisterResponder("GET", `https://example.com/index`, httpmock.ResponderFromMultipleResponses([]*http.Response{
		{StatusCode: http.StatusLocked},
		{StatusCode: http.StatusTooManyRequests},
		{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("OK"))},
	}))

	// Logs for trace testing
	var logs strings.Builder

	// Create client
	ctx := context.Background()
	c := New().
		WithTransport(transport).
		WithRetry(RetryConfig{
			Condition:     DefaultRetryCondition(),
			Count:         3,
			WaitTimeStart: 1 * time.Microsecond,
			WaitTimeMax:   20 * time.Microsecond,
		}).
		AndTrace(func(ctx context.Context, reqDef HTTPRequest) (context.Context, *ClientTrace) {
			logs.WriteString(fmt.Sprintf("GotRequest        %s %s\n", reqDef.Method(), reqDef.URL()))
			return ctx, &ClientTrace{
				HTTPRequestStart: func(request *http.Request) {
					logs.WriteString(fmt.Sprintf("HTTPRequestStart  %s %s\n", request.Method, request.URL))
				},
				HTTPResponse: func(response *http.Response, err error) {
					logs.WriteString(fmt.Sprintf("HTTPResponse      %d %s err=%v\n", response.StatusCode, http.StatusText(response.StatusCode), err))
				},
				HTTPRequestDone: func(response *http.Response, sent, received int64, err error) {
					logs.WriteString(fmt.Sprintf("HTTPRequestDone   %d sent=%d received=%d err=%v\n", response.StatusCode, sent, received, err))
				},
				RetryDelay: func(attempt int, delay time.Duration) {
					logs.WriteString(fmt.Sprintf("RetryDelay        attempt=%d delay=%s\n", attempt, delay))
				},
				BodyParseStart: func(response *http.Response) {
					logs.WriteString(fmt.Sprintf("BodyParseStart    %d\n", response.StatusCode))
				},
				BodyParseDone: func(response *http.Response, result any, err error, parseErr error) {
					logs.WriteString(fmt.Sprintf("BodyParseDone     result=%s err=%v parseErr=%v\n", dump(result), err, parseErr))
				},
				RequestProcessed: func(result any, err error) {
					logs.WriteString(fmt.Sprintf("RequestProcessed  result=%s err=%v\n", dump(result), err))
				},
			}
		})

	// Expected events
	expected := `
GotRequest        GET https://example.com/redirect1
HTTPRequestStart  GET https://example.com/redirect1
HTTPResponse      301 Moved Permanently err=<nil>
HTTPRequestDone   301 sent=0 received=0 err=<nil>
HTTPRequestStart  GET https://example.com/redirect2
HTTPResponse      301 Moved Permanently err=<nil>
HTTPRequestDone   301 sent=0 received=0 err=<nil>
HTTPRequestStart  GET https://example.com/index
HTTPResponse      423 Locked err=<nil>
HTTPRequestDone   423 sent=0 received=0 err=<nil>
RetryDelay        attempt=1 delay=1µs
HTTPRequestStart  GET https://example.com/index
HTTPResponse      429 Too Many Requests err=<nil>
HTTPRequestDone   429 sent=0 received=0 err=<nil>
RetryDelay        attempt=2 delay=2µs
HTTPRequestStart  GET https://example.com/index
HTTPResponse      200 OK err=<nil>
BodyParseStart    200
HTTPRequestDone   200 sent=0 received=2 err=<nil>
BodyParseDone     result=(*string)((len=2) "OK") err=<nil> parseErr=<nil>
RequestProcessed  result=(*string)((len=2) "OK") err=<nil>
`

	// Test
	str := ""
	_, result, err := NewHTTPRequest(c).WithGet("https://example.com/redirect1").WithResult(&str).Send(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "OK", *result.(*string))
	assert.Equal(t, strings.TrimLeft(expected, "\n"), logs.String())
}

func TestTrace_Multiple(t *testing.T) {
	t.Parallel()

	// Mocked response
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", `https://example.com`, httpmock.NewStringResponder(200, "OK"))

	// Logs for trace testing
	var logs strings.Builder
	tracer := func(id int, gotRequest bool) Factory {
		return func(ctx context.Context, reqDef HTTPRequest) (context.Context, *ClientTrace) {
			if gotRequest {
				logs.WriteString(fmt.Sprintf("%d: GotRequest        %s %s\n", id, reqDef.Method(), reqDef.URL()))
			}
			tc := &ClientTrace{
				HTTPRequestStart: func(request *http.Request) {
					logs.WriteString(fmt.Sprintf("%d: HTTPRequestStart  %s %s\n", id, request.Method, request.URL))
				},
			}
			if id != 2 {
				tc.RequestProcessed = func(result any, err error) {
					logs.WriteString(fmt.Sprintf("%d: RequestProcessed  result=%s err=%v\n", id, dump(result), err))
				}
			}
			return ctx, tc
		}
	}

	// Create client
	ctx := context.Background()
	c := New().
		WithTransport(transport).
		WithRetry(TestingRetry()).
		AndTrace(tracer(1, true)).
		AndTrace(tracer(2, true)).
		AndTrace(func(ctx context.Context, _ HTTPRequest) (context.Context, *ClientTrace) {
			return ctx, nil // no hooks
		}).
		AndTrace(tracer(3, false))

	// Expected events
	expected := `
1: GotRequest        GET https://example.com
2: GotRequest        GET https://example.com
1: HTTPRequestStart  GET https://example.com
2: HTTPRequestStart  GET https://example.com
3: HTTPRequestStart  GET https://example.com
1: RequestProcessed  result=(*string)((len=2) "OK") err=<nil>
3: RequestProcessed  result=(*string)((len=2) "OK") err=<nil>
`

	// Test
	str := ""
	_, result, err := NewHTTPRequest(c).WithGet("https://example.com").WithResult(&str).Send(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "OK", *result.(*string))
	assert.Equal(t, strings.TrimLeft(expected, "\n"), logs.String())
}

func TestCompose_Nil(t *testing.T) {
	t.Parallel()

	called := false
	tc := &ClientTrace{RetryDelay: func(int, time.Duration) { called = true }}
	tc.Compose(nil)
	tc.RetryDelay(1, time.Second)
	assert.True(t, called)
}
