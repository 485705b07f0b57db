package trace

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/keboola/go-resource/pkg/request"
)

// redactedHeaders are never logged in plain text.
var redactedHeaders = map[string]bool{ //nolint:gochecknoglobals
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"x-access-token":      true,
}

// ZerologTracer logs request events as structured records.
// Attempts are logged at the debug level, retries at the warn level and the processed request at the info level.
// A failed request is logged at the error level.
func ZerologTracer(logger zerolog.Logger) Factory {
	var idGenerator uint64
	return func(ctx context.Context, reqDef request.HTTPRequest) (context.Context, *ClientTrace) {
		l := logger.With().
			Uint64("request_id", atomic.AddUint64(&idGenerator, 1)).
			Str("method", reqDef.Method()).
			Str("url", reqDef.URL().String()).
			Logger()

		l.Debug().Strs("headers", headerLines(reqDef.RequestHeader())).Msg("http request defined")

		var startTime, attemptStartTime time.Time
		var statusCode int
		t := &ClientTrace{}
		t.HTTPRequestStart = func(r *http.Request) {
			if startTime.IsZero() {
				startTime = time.Now()
			}
			attemptStartTime = time.Now()
			l.Debug().Str("attempt_url", r.URL.String()).Msg("http request started")
		}
		t.HTTPResponse = func(r *http.Response, err error) {
			if err != nil {
				l.Debug().Err(err).Dur("duration", time.Since(attemptStartTime)).Msg("http request failed")
				return
			}
			statusCode = r.StatusCode
			l.Debug().Int("status", r.StatusCode).Dur("duration", time.Since(attemptStartTime)).Msg("http response received")
		}
		t.RetryDelay = func(attempt int, delay time.Duration) {
			l.Warn().Int("attempt", attempt).Dur("delay", delay).Int("status", statusCode).Msg("http request will be retried")
		}
		t.RequestProcessed = func(_ any, err error) {
			var event *zerolog.Event
			if err != nil {
				event = l.Error().Err(err)
			} else {
				event = l.Info()
			}
			event.Int("status", statusCode).Dur("duration", time.Since(startTime)).Msg("http request processed")
		}
		return ctx, t
	}
}

func headerLines(header http.Header) []string {
	out := make([]string, 0, len(header))
	for k, values := range header {
		value := strings.Join(values, ";")
		if redactedHeaders[strings.ToLower(k)] {
			value = "****"
		}
		out = append(out, k+": "+value)
	}
	sort.Strings(out)
	return out
}
