package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/keboola/go-resource/pkg/client/counter"
	"github.com/keboola/go-resource/pkg/client/trace"
)

// RetriesCount - default retries count.
const RetriesCount = 5

// RequestTimeout - default request timeout.
const RequestTimeout = 30 * time.Second

// RetryWaitTimeStart - default retry interval.
const RetryWaitTimeStart = 100 * time.Millisecond

// RetryWaitTimeMax - default maximum retry interval.
const RetryWaitTimeMax = 3 * time.Second

const retryAttemptContextKey = ctxKey("retryAttempt")

type ctxKey string

// RetryConfig configures Client retries.
type RetryConfig struct {
	Condition           RetryCondition
	Count               int
	TotalRequestTimeout time.Duration
	WaitTimeStart       time.Duration
	WaitTimeMax         time.Duration
}

// RetryCondition defines which responses should retry.
type RetryCondition func(*http.Response, error) bool

// TestingRetry - fast retry for use in tests.
func TestingRetry() RetryConfig {
	v := DefaultRetry()
	v.WaitTimeStart = 1 * time.Millisecond
	v.WaitTimeMax = 1 * time.Millisecond
	return v
}

// DefaultRetry returns a default RetryConfig.
func DefaultRetry() RetryConfig {
	return RetryConfig{
		TotalRequestTimeout: RequestTimeout,
		Count:               RetriesCount,
		WaitTimeStart:       RetryWaitTimeStart,
		WaitTimeMax:         RetryWaitTimeMax,
		Condition:           DefaultRetryCondition(),
	}
}

// DefaultRetryCondition retries on common network and HTTP errors.
func DefaultRetryCondition() RetryCondition {
	return func(response *http.Response, err error) bool {
		// On network errors - except hostname not found
		if response == nil || response.StatusCode == 0 {
			if err == nil {
				return false
			}
			switch {
			case strings.Contains(err.Error(), "No address associated with hostname"):
				return false
			case strings.Contains(err.Error(), "no such host"):
				return false
			default:
				return true
			}
		}

		// On HTTP status codes
		switch response.StatusCode {
		case
			http.StatusRequestTimeout,
			http.StatusConflict,
			http.StatusLocked,
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}
}

// NewBackoff returns an exponential backoff for HTTP retries.
func (c RetryConfig) NewBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.WaitTimeStart
	b.MaxInterval = c.WaitTimeMax
	b.MaxElapsedTime = c.TotalRequestTimeout
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.Reset()
	return b
}

// ContextRetryAttempt returns the number of the retry attempt, 0 for the first try.
// The value is stored in the context of each sent http.Request.
func ContextRetryAttempt(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(retryAttemptContextKey).(int)
	return v, ok
}

// roundTripper wraps a http.RoundTripper and adds trace and retry functionality.
type roundTripper struct {
	trace   *trace.ClientTrace
	retry   RetryConfig
	wrapped http.RoundTripper
}

func (rt roundTripper) RoundTrip(origReq *http.Request) (*http.Response, error) {
	state := rt.retry.NewBackoff()
	attempt := 0
	for {
		req := origReq.WithContext(context.WithValue(origReq.Context(), retryAttemptContextKey, attempt))

		// Count sent bytes
		var sent *counter.ReadCloser
		if req.Body != nil && req.Body != http.NoBody {
			sent = counter.NewReadCloser(req.Body, nil)
			req.Body = sent
		}

		// Trace request start
		if rt.trace != nil && rt.trace.HTTPRequestStart != nil {
			rt.trace.HTTPRequestStart(req)
		}

		// Send
		res, err := rt.wrapped.RoundTrip(req)
		if res != nil && res.Request == nil {
			res.Request = req
		}

		// Trace response
		if rt.trace != nil && rt.trace.HTTPResponse != nil {
			rt.trace.HTTPResponse(res, err)
		}

		// Trace request done, when the response body is closed
		rt.onDone(res, sent, err)

		// Check if we should retry
		if origReq.Context().Err() != nil {
			return res, err
		}
		if rt.retry.Condition == nil || !rt.retry.Condition(res, err) || attempt >= rt.retry.Count {
			return res, err
		}

		// Get next delay
		delay := state.NextBackOff()
		if delay == backoff.Stop {
			return res, err
		}

		// Discard the response of the failed attempt
		if res != nil && res.Body != nil {
			_, _ = io.Copy(io.Discard, res.Body)
			_ = res.Body.Close()
		}

		// Trace retry
		attempt++
		if rt.trace != nil && rt.trace.RetryDelay != nil {
			rt.trace.RetryDelay(attempt, delay)
		}

		// Rewind body before retry
		if origReq.GetBody != nil {
			origReq.Body, err = origReq.GetBody()
			if err != nil {
				return nil, fmt.Errorf("cannot rewind body: %w", err)
			}
		}

		// Wait
		timer := time.NewTimer(delay)
		select {
		case <-origReq.Context().Done():
			timer.Stop()
			return nil, origReq.Context().Err()
		case <-timer.C:
		}
	}
}

func (rt roundTripper) onDone(res *http.Response, sent *counter.ReadCloser, err error) {
	if rt.trace == nil || rt.trace.HTTPRequestDone == nil {
		return
	}
	sentBytes := func() int64 {
		if sent == nil {
			return 0
		}
		return sent.Bytes()
	}
	if res == nil || res.Body == nil {
		rt.trace.HTTPRequestDone(res, sentBytes(), 0, err)
		return
	}
	res.Body = counter.NewReadCloser(res.Body, func(received int64, closeErr error) {
		if closeErr == nil {
			closeErr = err
		}
		rt.trace.HTTPRequestDone(res, sentBytes(), received, closeErr)
	})
}
