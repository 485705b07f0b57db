package trace

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"sync/atomic"
	"time"

	"github.com/keboola/go-resource/pkg/request"
)

// LogTracer writes one line per request event to the writer.
// Lines of one request share the "HTTP_REQUEST[0001]" prefix.
func LogTracer(wr io.Writer) Factory {
	var idGenerator uint64
	return func(ctx context.Context, _ request.HTTPRequest) (context.Context, *ClientTrace) {
		prefix := fmt.Sprintf("HTTP_REQUEST[%04d]", atomic.AddUint64(&idGenerator, 1))
		log := func(format string, a ...any) {
			_, _ = fmt.Fprintln(wr, prefix, fmt.Sprintf(format, a...))
		}

		var req *http.Request
		var connStartTime, startTime, doneTime time.Time
		t := &ClientTrace{}
		t.ConnectStart = func(_, _ string) {
			connStartTime = time.Now()
		}
		t.GotConn = func(info httptrace.GotConnInfo) {
			if req == nil {
				return
			}
			switch {
			case !info.Reused:
				log(`CONN  %s "%s" | new conn | %s`, req.Method, req.URL, time.Since(connStartTime))
			case info.WasIdle:
				log(`CONN  %s "%s" | reused conn (was idle=%s)`, req.Method, req.URL, info.IdleTime)
			default:
				log(`CONN  %s "%s" | reused conn`, req.Method, req.URL)
			}
		}
		t.HTTPRequestStart = func(r *http.Request) {
			req = r
			startTime = time.Now()
			log(`START %s "%s"`, req.Method, req.URL)
		}
		t.HTTPResponse = func(res *http.Response, err error) {
			doneTime = time.Now()
			if err != nil {
				log(`DONE  %s "%s" | %s | error=%s`, req.Method, req.URL, doneTime.Sub(startTime), err)
				return
			}
			log(`DONE  %s "%s" | %d | %s`, req.Method, req.URL, res.StatusCode, doneTime.Sub(startTime))
		}
		t.RetryDelay = func(attempt int, delay time.Duration) {
			log(`RETRY %s "%s" | %dx | %s`, req.Method, req.URL, attempt, delay)
		}
		t.RequestProcessed = func(_ any, err error) {
			if req == nil {
				return
			}
			if err != nil {
				log(`BODY  %s "%s" | %s | error=%s`, req.Method, req.URL, time.Since(doneTime), err)
				return
			}
			log(`BODY  %s "%s" | %s`, req.Method, req.URL, time.Since(doneTime))
		}
		return ctx, t
	}
}
