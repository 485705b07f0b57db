// Package client provides the default request.Sender implementation.
//
// Client is based on the standard net/http package and contains retry and tracing/telemetry support.
// Requests are defined by the request.HTTPRequest interface, see request.NewHTTPRequest function.
// It is easy to implement your custom HTTP client, by implementing request.Sender interface.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strings"
	"time"

	otelMetric "go.opentelemetry.io/otel/metric"
	otelTrace "go.opentelemetry.io/otel/trace"

	"github.com/keboola/go-resource/pkg/client/decode"
	"github.com/keboola/go-resource/pkg/client/trace"
	"github.com/keboola/go-resource/pkg/client/trace/otel"
	"github.com/keboola/go-resource/pkg/request"
)

const (
	DefaultUserAgent = "keboola-go-resource"
	traceAppName     = "github.com/keboola/go-resource"
)

// Client is a default and configurable implementation of the request.Sender interface by Go native http.Client.
// It supports retry and tracing/telemetry.
type Client struct {
	transport      http.RoundTripper
	baseURL        *url.URL
	header         http.Header
	retry          RetryConfig
	traceFactories []trace.Factory
	tracer         otelTrace.Tracer
}

// New creates new HTTP Client.
func New() Client {
	c := Client{transport: DefaultTransport(), header: make(http.Header), retry: DefaultRetry()}
	c.header.Set("User-Agent", DefaultUserAgent)
	c.header.Set("Accept-Encoding", "gzip, br")
	return c
}

// WithBaseURL returns a clone of the Client with base url set.
// Relative request URLs are resolved against the base URL.
func (c Client) WithBaseURL(baseURLStr string) Client {
	baseURL, err := url.Parse(baseURLStr)
	if err != nil {
		panic(fmt.Errorf(`base url "%s" is not valid: %w`, baseURLStr, err))
	}
	// Normalize base URL, so the last path segment is not replaced by ResolveReference
	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/"
	c.baseURL = baseURL
	return c
}

// WithUserAgent returns a clone of the Client with user agent set.
func (c Client) WithUserAgent(v string) Client {
	return c.WithHeader("User-Agent", v)
}

// WithHeader returns a clone of the Client with common header set.
func (c Client) WithHeader(key, value string) Client {
	c.header = c.header.Clone()
	c.header.Set(key, value)
	return c
}

// WithHeaders returns a clone of the Client with common headers set.
func (c Client) WithHeaders(headers map[string]string) Client {
	c.header = c.header.Clone()
	for k, v := range headers {
		c.header.Set(k, v)
	}
	return c
}

// WithTransport returns a clone of the Client with a HTTP transport set.
func (c Client) WithTransport(transport http.RoundTripper) Client {
	if transport == nil {
		panic(fmt.Errorf("transport cannot be nil"))
	}
	c.transport = transport
	return c
}

// WithRetry returns a clone of the Client with retry config set.
func (c Client) WithRetry(retry RetryConfig) Client {
	c.retry = retry
	return c
}

// AndTrace returns a clone of the Client with Trace hooks added.
// Hooks are called in the order in which they were registered.
func (c Client) AndTrace(fn trace.Factory) Client {
	c.traceFactories = append(c.traceFactories[:len(c.traceFactories):len(c.traceFactories)], fn)
	return c
}

// WithTelemetry returns a clone of the Client with OpenTelemetry tracing and metrics enabled.
// The tracer is also used by request.APIRequest to wrap all its HTTP requests to one span.
func (c Client) WithTelemetry(tracerProvider otelTrace.TracerProvider, meterProvider otelMetric.MeterProvider, opts ...otel.Option) Client {
	if tracerProvider != nil {
		c.tracer = tracerProvider.Tracer(traceAppName)
	}
	return c.AndTrace(otel.NewTrace(tracerProvider, meterProvider, opts...))
}

// Tracer returns the tracer set by WithTelemetry, or nil.
func (c Client) Tracer() otelTrace.Tracer {
	return c.tracer
}

// Send method sends HTTP request and returns HTTP response, it implements the request.Sender interface.
func (c Client) Send(ctx context.Context, reqDef request.HTTPRequest) (res *http.Response, result any, err error) {
	// Method cannot be called on an empty value
	if c.transport == nil {
		panic(fmt.Errorf("client value is not initialized"))
	}

	// If method or url is not set, panic occurs. So we get these values first.
	method := reqDef.Method()
	reqURL := reqDef.URL()

	// Convert to absolute url
	if c.baseURL != nil && !reqURL.IsAbs() {
		reqURL.Path = strings.TrimLeft(reqURL.Path, "/")
		reqURL.RawPath = strings.TrimLeft(reqURL.RawPath, "/")
		rawQuery := reqURL.RawQuery
		reqURL = c.baseURL.ResolveReference(reqURL)
		reqURL.RawQuery = rawQuery
	}

	// Init trace
	var tc *trace.ClientTrace
	for _, fn := range c.traceFactories {
		var t *trace.ClientTrace
		ctx, t = fn(ctx, reqDef)
		if t == nil {
			continue
		}
		ctx = httptrace.WithClientTrace(ctx, &t.ClientTrace)
		t.Compose(tc)
		tc = t
	}

	// Trace request processed
	if tc != nil && tc.RequestProcessed != nil {
		defer func() {
			tc.RequestProcessed(result, err)
		}()
	}

	// Create request
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return nil, nil, err
	}

	// Global headers
	for k, values := range c.header {
		for _, v := range values {
			req.Header.Set(k, v)
		}
	}

	// Request headers
	for k, values := range reqDef.RequestHeader() {
		req.Header.Del(k) // clear global values
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	// Body
	if reqDef.RequestBody() != nil {
		// GetBody factory is used for requests when a redirect/retry requires reading the body more than once.
		req.GetBody = func() (io.ReadCloser, error) {
			body, err := requestBody(reqDef)
			if err != nil {
				return nil, fmt.Errorf(`request %s "%s": cannot prepare request body: %w`, req.Method, req.URL.String(), err)
			}
			return body, nil
		}
		req.Body, err = req.GetBody()
		if err != nil {
			return nil, nil, err
		}
	}

	// Setup native client
	nativeClient := http.Client{
		Timeout:   c.retry.TotalRequestTimeout,
		Transport: roundTripper{trace: tc, retry: c.retry, wrapped: c.transport}, // wrapped transport for trace/retry
	}

	// Send request
	startedAt := time.Now()
	res, err = nativeClient.Do(req)
	if err != nil {
		return nil, nil, handleSendError(startedAt, c.retry.TotalRequestTimeout, req, err)
	}

	// Process body
	if tc != nil && tc.BodyParseStart != nil {
		tc.BodyParseStart(res)
	}
	var parseErr error
	result, err, parseErr = handleResponseBody(res, reqDef.ResultDef(), reqDef.ErrorDef())
	if parseErr != nil {
		err = fmt.Errorf(`cannot process request %s "%s": %w`, req.Method, req.URL.String(), parseErr)
	}
	if tc != nil && tc.BodyParseDone != nil {
		tc.BodyParseDone(res, result, err, parseErr)
	}

	// Generic HTTP error
	if err == nil && res.StatusCode > 399 {
		return res, result, fmt.Errorf(`request %s "%s" failed: %d %s`, req.Method, req.URL.String(), res.StatusCode, http.StatusText(res.StatusCode))
	}

	return res, result, err
}

func requestBody(r request.HTTPRequest) (io.ReadCloser, error) {
	body := r.RequestBody()
	switch v := body.(type) {
	case string:
		return io.NopCloser(strings.NewReader(v)), nil
	case []byte:
		return io.NopCloser(bytes.NewReader(v)), nil
	case io.ReadSeekCloser:
		if _, err := v.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		return v, nil
	case io.ReadSeeker:
		if _, err := v.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		return io.NopCloser(v), nil
	}
	if body != nil && IsJSONContentType(r.RequestHeader().Get("Content-Type")) {
		c, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf(`cannot encode JSON body: %w`, err)
		}
		return io.NopCloser(bytes.NewReader(c)), nil
	}
	return nil, fmt.Errorf(`unsupported body type "%T" for content type "%s"`, body, r.RequestHeader().Get("Content-Type"))
}

func handleResponseBody(r *http.Response, resultDef any, errDef error) (result any, err error, unexpectedErr error) {
	defer func() {
		if closeErr := r.Body.Close(); closeErr != nil && unexpectedErr == nil {
			unexpectedErr = fmt.Errorf(`cannot read response body: %w`, closeErr)
		}
	}()

	if r.StatusCode == http.StatusNoContent {
		return nil, nil, nil
	}

	// Process content encoding
	body, decodeErr := decode.Decode(r.Body, r.Header.Get("Content-Encoding"))
	if decodeErr != nil {
		return nil, nil, decodeErr
	}
	r.Body = body

	// Map JSON error
	isJSON := IsJSONContentType(r.Header.Get("Content-Type"))
	if r.StatusCode > 399 && errDef != nil && isJSON {
		if err := json.NewDecoder(r.Body).Decode(errDef); err != nil {
			return nil, nil, fmt.Errorf(`cannot decode JSON error: %w`, err)
		}
		if v, ok := errDef.(errorWithRequest); ok {
			v.SetRequest(r.Request)
		}
		if v, ok := errDef.(errorWithResponse); ok {
			v.SetResponse(r)
		}
		return nil, errDef, nil
	}

	switch v := resultDef.(type) {
	case nil:
		return nil, nil, nil
	case *[]byte:
		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, nil, fmt.Errorf(`cannot read response body: %w`, err)
		}
		*v = bodyBytes
		return v, nil, nil
	case *string:
		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, nil, fmt.Errorf(`cannot read response body: %w`, err)
		}
		*v = string(bodyBytes)
		return v, nil, nil
	case io.WriteCloser:
		if _, err := io.Copy(v, r.Body); err != nil {
			return nil, nil, fmt.Errorf(`cannot read response body: %w`, err)
		}
		if err := v.Close(); err != nil {
			return nil, nil, fmt.Errorf(`cannot read response body: %w`, err)
		}
		return v, nil, nil
	case io.Writer:
		if _, err := io.Copy(v, r.Body); err != nil {
			return nil, nil, fmt.Errorf(`cannot read response body: %w`, err)
		}
		return v, nil, nil
	}

	// Map JSON response to defined result
	if isJSON && r.StatusCode > 199 && r.StatusCode < 300 {
		if err := json.NewDecoder(r.Body).Decode(resultDef); err != nil {
			return nil, nil, fmt.Errorf(`cannot decode JSON result: %w`, err)
		}
		return resultDef, nil, nil
	}

	return nil, nil, nil
}

func handleSendError(startedAt time.Time, clientTimeout time.Duration, req *http.Request, err error) error {
	// Timeout
	var netErr net.Error
	if deadline, ok := req.Context().Deadline(); ok && errors.Is(err, context.DeadlineExceeded) {
		err = urlError(req, fmt.Errorf("timeout after %s", deadline.Sub(startedAt)))
	} else if errors.Is(err, context.Canceled) {
		err = urlError(req, fmt.Errorf("canceled after %s", time.Since(startedAt)))
	} else if errors.As(err, &netErr) && netErr.Timeout() {
		if strings.Contains(err.Error(), "Client.Timeout exceeded") {
			err = urlError(req, fmt.Errorf("timeout after %s", clientTimeout))
		} else {
			err = urlError(req, fmt.Errorf("timeout after %s", time.Since(startedAt)))
		}
	}

	// Url error
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = fmt.Errorf(`request %s "%s" failed: %w`, strings.ToUpper(urlErr.Op), urlErr.URL, urlErr.Err)
	}

	return err
}

type errorWithRequest interface {
	error
	SetRequest(request *http.Request)
}

type errorWithResponse interface {
	error
	SetResponse(response *http.Response)
}

func urlError(req *http.Request, err error) *url.Error {
	return &url.Error{Op: req.Method, URL: req.URL.String(), Err: err}
}
