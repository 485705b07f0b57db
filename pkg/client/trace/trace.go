// Package trace extends the httptrace.ClientTrace and adds additional HTTPRequest hooks.
// A custom ClientTrace definition can be registered in the client.Client by the AndTrace method.
package trace

import (
	"context"
	"net/http"
	"net/http/httptrace"
	"reflect"
	"time"

	"github.com/keboola/go-resource/pkg/request"
)

// Factory creates ClientTrace hooks for a request.
// The returned context is used to send the request, so the factory can attach a span or any other value to it.
type Factory func(ctx context.Context, request request.HTTPRequest) (context.Context, *ClientTrace)

// ClientTrace is a set of hooks to run at various stages of an outgoing HTTPRequest.
type ClientTrace struct {
	httptrace.ClientTrace // native, low level trace
	// HTTPRequestStart is called when a request attempt begins. It includes redirects and retries.
	HTTPRequestStart func(request *http.Request)
	// HTTPResponse is called when the response headers are received, or when the attempt failed.
	HTTPResponse func(response *http.Response, err error)
	// HTTPRequestDone is called when the response body of the attempt is closed.
	// The sent and received values are numbers of body bytes.
	HTTPRequestDone func(response *http.Response, sent, received int64, err error)
	// RetryDelay is called before the retry delay.
	RetryDelay func(attempt int, delay time.Duration)
	// BodyParseStart is called before the final response body is read and mapped.
	BodyParseStart func(response *http.Response)
	// BodyParseDone is called when the response body has been mapped.
	// The err is the resulting error of the request, the parseError is an unexpected error from the body processing.
	BodyParseDone func(response *http.Response, result any, err error, parseError error)
	// RequestProcessed is called when Client.Send method is done.
	RequestProcessed func(result any, err error)
}

// Compose modifies t such that it respects the previously-registered hooks in old.
// Hooks of the old trace are called first.
func (t *ClientTrace) Compose(old *ClientTrace) {
	if old == nil {
		return
	}
	tv := reflect.ValueOf(t).Elem()
	ov := reflect.ValueOf(old).Elem()
	structType := tv.Type()
	for i := 0; i < structType.NumField(); i++ {
		tf := tv.Field(i)
		hookType := tf.Type()
		if hookType.Kind() != reflect.Func {
			continue
		}
		of := ov.Field(i)
		if of.IsNil() {
			continue
		}
		if tf.IsNil() {
			tf.Set(of)
			continue
		}

		// Copy of tf, otherwise the new func would call itself
		tfCopy := reflect.ValueOf(tf.Interface())
		tf.Set(reflect.MakeFunc(hookType, func(args []reflect.Value) []reflect.Value {
			of.Call(args)
			return tfCopy.Call(args)
		}))
	}
}
