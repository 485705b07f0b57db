package trace

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"os"
	"strings"
	"time"

	"github.com/keboola/go-resource/pkg/client/decode"
	"github.com/keboola/go-resource/pkg/request"
)

const dumpTraceMaxLength = 2000

// DumpTracer dumps HTTP request and response to a writer.
// Output may contain unmasked tokens, do not use it in production!
func DumpTracer(wr io.Writer) Factory {
	return func(ctx context.Context, _ request.HTTPRequest) (context.Context, *ClientTrace) {
		d := &dumper{wr: wr}
		var method, requestURI string
		var statusCode int
		var requestDump []byte
		var responseErr error
		var startTime, headersTime time.Time

		t := &ClientTrace{}
		t.HTTPRequestStart = func(r *http.Request) {
			startTime = time.Now()
			method = r.Method
			requestURI = r.URL.RequestURI()
			requestDump, _ = httputil.DumpRequestOut(r, true)
		}
		t.HTTPResponse = func(r *http.Response, err error) {
			responseErr = err
			if r != nil {
				statusCode = r.StatusCode
				headersTime = time.Now()
			}

			d.log()
			d.log(">>>>>> HTTP DUMP")
			d.dump(string(requestDump))
			d.log("------")
			if err != nil {
				d.log("ERROR: ", err)
				d.log("<<<<<< HTTP DUMP END")
				return
			}

			if v, err := httputil.DumpResponse(r, false); err == nil {
				d.log(strings.TrimSpace(string(v)))
			} else {
				d.log("cannot dump response headers: ", err)
			}

			if r.Body != nil && r.Body != http.NoBody {
				// Read the raw body and put it back, so it can be processed by the client
				var raw bytes.Buffer
				if _, err := io.Copy(&raw, r.Body); err != nil {
					d.log("cannot read response body: ", err)
				}
				_ = r.Body.Close()
				r.Body = io.NopCloser(bytes.NewReader(raw.Bytes()))

				if raw.Len() > 0 {
					var decoded strings.Builder
					if reader, err := decode.Decode(io.NopCloser(bytes.NewReader(raw.Bytes())), r.Header.Get("Content-Encoding")); err != nil {
						d.log("cannot decode response body: ", err)
					} else if _, err := io.Copy(&decoded, reader); err != nil {
						d.log("cannot decode response body: ", err)
					}
					d.log("------")
					d.dump(decoded.String())
				}
			}
			d.log("<<<<<< HTTP DUMP END")
		}
		t.RetryDelay = func(attempt int, delay time.Duration) {
			d.log()
			d.log(">>>>>> HTTP RETRY", "| ATTEMPT:", attempt, "| DELAY:", delay, "|", method, requestURI, statusCode, "| ERROR:", responseErr)
		}
		t.RequestProcessed = func(_ any, err error) {
			d.log()
			d.log(">>>>>> HTTP REQUEST PROCESSED", "|", method, requestURI, statusCode, "| ERROR:", err, "| HEADERS AT:", headersTime.Sub(startTime), "| DONE AT:", time.Since(startTime))
		}
		return ctx, t
	}
}

type dumper struct {
	wr io.Writer
}

func (d *dumper) dump(body string) {
	body = strings.TrimSpace(body)
	if len(body) > dumpTraceMaxLength && os.Getenv("HTTP_DUMP_TRACE_FULL") != "true" { //nolint:forbidigo
		d.log(body[:dumpTraceMaxLength])
		d.log("... (set env HTTP_DUMP_TRACE_FULL=true to see full output)")
	} else {
		d.log(body)
	}
}

func (d *dumper) log(a ...any) {
	_, _ = fmt.Fprintln(d.wr, a...)
}
