// Package otel provides OpenTelemetry tracing and metrics for requests sent by the client.Client.
//
// Spans:
//   - "keboola.go.resource.client.request" wraps one Client.Send call, including all redirects and retries.
//   - "http.request" is created for each attempt, with child spans of the low-level phases:
//     "http.dns", "http.getconn", "http.connect", "http.tls", "http.headers", "http.send", "http.receive".
//   - "keboola.go.resource.client.request.body.parse" tracks reading and mapping of the response body.
//   - "keboola.go.resource.client.retry.delay" tracks the delay before a retry.
//
// Metrics names start with "keboola.go.resource.client." and "keboola.go.resource.http.", see newMeters.
package otel

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/http/httptrace"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelMetric "go.opentelemetry.io/otel/metric"
	metricNoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	otelTrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/keboola/go-resource/pkg/client/trace"
	"github.com/keboola/go-resource/pkg/request"
)

const (
	traceAppName     = "github.com/keboola/go-resource"
	attrResourceName = attribute.Key("resource.name")
	// Low-level spans, for each redirect and retry.
	httpSpanPrefix           = "http."
	httpRequestSpanName      = httpSpanPrefix + "request"
	httpDNSSpanName          = httpSpanPrefix + "dns"
	httpGetConnSpanName      = httpSpanPrefix + "getconn"
	httpConnectSpanName      = httpSpanPrefix + "connect"
	httpTLSHandshakeSpanName = httpSpanPrefix + "tls"
	httpHeadersSpanName      = httpSpanPrefix + "headers"
	httpSendSpanName         = httpSpanPrefix + "send"
	httpReceiveSpanName      = httpSpanPrefix + "receive"
	attrDNSAddresses         = attribute.Key("http.dns.addrs")
	attrRemoteAddr           = attribute.Key("http.remote")
	attrLocalAddr            = attribute.Key("http.local")
	attrConnectionReused     = attribute.Key("http.conn.reused")
	attrConnectionWasIdle    = attribute.Key("http.conn.wasidle")
	attrConnectionIdleTime   = attribute.Key("http.conn.idletime")
	attrConnectionNetwork    = attribute.Key("http.conn.network")
	attrWroteBytes           = attribute.Key("http.wrote_bytes")
	attrReadBytes            = attribute.Key("http.read_bytes")
	// High-level spans.
	clientSpanPrefix         = "keboola.go.resource.client."
	clientRequestSpanName    = clientSpanPrefix + "request"
	clientBodyParseSpanName  = clientSpanPrefix + "request.body.parse"
	clientRetryDelaySpanName = clientSpanPrefix + "retry.delay"
	// Extra attributes for DataDog.
	attrSpanKind            = attribute.Key("span.kind")
	attrSpanKindValueClient = "client"
	attrSpanType            = attribute.Key("span.type")
	attrSpanTypeValueHTTP   = "http"
)

// NewTrace creates a trace.Factory which reports spans to the tracerProvider and metrics to the meterProvider.
// A nil provider is replaced by a noop implementation.
func NewTrace(tracerProvider otelTrace.TracerProvider, meterProvider otelMetric.MeterProvider, opts ...Option) trace.Factory {
	cfg := newConfig(opts)
	if tracerProvider == nil {
		tracerProvider = noop.NewTracerProvider()
	}
	if meterProvider == nil {
		meterProvider = metricNoop.NewMeterProvider()
	}
	tracer := tracerProvider.Tracer(traceAppName)
	m := newMeters(meterProvider.Meter(traceAppName))

	return func(ctx context.Context, reqDef request.HTTPRequest) (context.Context, *trace.ClientTrace) {
		rt := &requestTrace{config: cfg, tracer: tracer, meters: m, attrs: newAttributes(cfg, reqDef)}
		return rt.start(ctx), rt.hooks()
	}
}

// requestTrace holds the state of one Client.Send call.
type requestTrace struct {
	config config
	tracer otelTrace.Tracer
	meters *meters
	attrs  *attributes

	rootCtx   context.Context
	rootSpan  otelTrace.Span
	startTime time.Time

	httpCtx        context.Context
	httpSpan       otelTrace.Span
	httpStartTime  time.Time
	receiveSpan    otelTrace.Span
	bodyParseSpan  otelTrace.Span
	bodyParseStart time.Time
	bodyParseAttrs []attribute.KeyValue
	retryDelaySpan otelTrace.Span
	readBytes      int64
	dnsSpan        otelTrace.Span
	getConnSpan    otelTrace.Span
	connectSpan    otelTrace.Span
	tlsSpan        otelTrace.Span
	headersSpan    otelTrace.Span
	sendSpan       otelTrace.Span
}

func (t *requestTrace) start(ctx context.Context) context.Context {
	t.startTime = time.Now()
	t.meters.clientInFlight.Add(ctx, 1, otelMetric.WithAttributes(t.attrs.definition...))
	t.rootCtx, t.rootSpan = t.tracer.Start(
		ctx,
		clientRequestSpanName,
		otelTrace.WithSpanKind(otelTrace.SpanKindClient),
		otelTrace.WithAttributes(
			attrResourceName.String(t.attrs.definitionPath),
			attrSpanKind.String(attrSpanKindValueClient),
			attrSpanType.String(attrSpanTypeValueHTTP),
		),
		otelTrace.WithAttributes(t.attrs.definition...),
		otelTrace.WithAttributes(t.attrs.definitionExtra...),
	)
	t.httpCtx = t.rootCtx
	return t.rootCtx
}

func (t *requestTrace) hooks() *trace.ClientTrace {
	tc := &trace.ClientTrace{
		HTTPRequestStart: t.httpRequestStart,
		HTTPResponse:     t.httpResponse,
		HTTPRequestDone:  t.httpRequestDone,
		RetryDelay:       t.retryDelay,
		BodyParseStart:   t.bodyParseStartHook,
		BodyParseDone:    t.bodyParseDone,
		RequestProcessed: t.requestProcessed,
	}

	// "otelhttptrace" pkg from the opentelemetry-contrib module does not end spans in some cases,
	// so the low-level hooks are implemented here.
	tc.DNSStart = func(info httptrace.DNSStartInfo) {
		t.dnsSpan = t.startChild(httpDNSSpanName, semconv.NetHostName(info.Host))
	}
	tc.DNSDone = func(info httptrace.DNSDoneInfo) {
		addrs := make([]string, 0, len(info.Addrs))
		for _, netAddr := range info.Addrs {
			addrs = append(addrs, netAddr.String())
		}
		t.dnsSpan = endSpan(t.dnsSpan, info.Err, attrDNSAddresses.String(strings.Join(addrs, ";")))
	}
	tc.GetConn = func(host string) {
		t.getConnSpan = t.startChild(httpGetConnSpanName, semconv.NetHostName(host))
	}
	tc.GotConn = func(info httptrace.GotConnInfo) {
		if t.getConnSpan == nil {
			return
		}
		attrs := []attribute.KeyValue{attrConnectionReused.Bool(info.Reused), attrConnectionWasIdle.Bool(info.WasIdle)}
		if info.Conn != nil {
			attrs = append(attrs,
				attrRemoteAddr.String(info.Conn.RemoteAddr().String()),
				attrLocalAddr.String(info.Conn.LocalAddr().String()),
			)
		}
		if info.WasIdle {
			attrs = append(attrs, attrConnectionIdleTime.String(info.IdleTime.String()))
		}
		t.getConnSpan = endSpan(t.getConnSpan, nil, attrs...)
	}
	tc.ConnectStart = func(network, addr string) {
		t.connectSpan = t.startChild(httpConnectSpanName, attrRemoteAddr.String(addr), attrConnectionNetwork.String(network))
	}
	tc.ConnectDone = func(_, _ string, err error) {
		t.connectSpan = endSpan(t.connectSpan, err)
	}
	// It is not reported if the http2.Transport is used directly, without upgrade from http.Transport.
	tc.TLSHandshakeStart = func() {
		t.tlsSpan = t.startChild(httpTLSHandshakeSpanName)
	}
	tc.TLSHandshakeDone = func(_ tls.ConnectionState, err error) {
		t.tlsSpan = endSpan(t.tlsSpan, err)
	}
	tc.WroteHeaderField = func(_ string, _ []string) {
		if t.headersSpan == nil {
			t.headersSpan = t.startChild(httpHeadersSpanName)
		}
	}
	tc.WroteHeaders = func() {
		t.headersSpan = endSpan(t.headersSpan, nil)
		t.sendSpan = t.startChild(httpSendSpanName)
	}
	tc.WroteRequest = func(info httptrace.WroteRequestInfo) {
		t.sendSpan = endSpan(t.sendSpan, info.Err)
	}
	tc.GotFirstResponseByte = func() {
		t.receiveSpan = t.startChild(httpReceiveSpanName)
	}
	return tc
}

func (t *requestTrace) httpRequestStart(req *http.Request) {
	t.readBytes = 0
	t.retryDelaySpan = endSpan(t.retryDelaySpan, nil)

	t.httpCtx, t.httpSpan = t.tracer.Start(
		t.rootCtx,
		httpRequestSpanName,
		otelTrace.WithSpanKind(otelTrace.SpanKindClient),
		otelTrace.WithAttributes(
			attrSpanKind.String(attrSpanKindValueClient),
			attrSpanType.String(attrSpanTypeValueHTTP),
		),
	)

	// Inject trace headers
	if t.config.propagators != nil {
		t.config.propagators.Inject(t.httpCtx, propagation.HeaderCarrier(req.Header))
	}

	t.httpStartTime = time.Now()
	t.attrs.SetFromRequest(req)
	t.meters.httpInFlight.Add(t.rootCtx, 1, otelMetric.WithAttributes(t.attrs.httpRequest...))
	t.httpSpan.SetAttributes(attrResourceName.String(mustURLPathUnescape(req.URL.Path)))
	t.httpSpan.SetAttributes(t.attrs.httpRequest...)
	t.httpSpan.SetAttributes(t.attrs.httpRequestExtra...)
}

func (t *requestTrace) httpResponse(res *http.Response, err error) {
	t.attrs.SetFromResponse(res, err)
	if t.httpSpan != nil {
		t.httpSpan.SetAttributes(t.attrs.httpResponse...)
		t.httpSpan.SetAttributes(t.attrs.httpResponseExtra...)
		t.httpSpan.SetAttributes(t.attrs.httpResponseError...)
	}
}

func (t *requestTrace) httpRequestDone(res *http.Response, sent, received int64, err error) {
	t.readBytes = received
	elapsedTime := float64(time.Since(t.httpStartTime)) / float64(time.Millisecond)
	reqAttrs := otelMetric.WithAttributes(t.attrs.httpRequest...)
	resAttrs := otelMetric.WithAttributes(t.attrs.httpResponse...)

	// Same attributes as in httpRequestStart
	t.meters.httpInFlight.Add(t.rootCtx, -1, reqAttrs)
	t.meters.httpDuration.Record(t.rootCtx, elapsedTime, reqAttrs, resAttrs)
	t.meters.httpRequestSize.Add(t.rootCtx, sent, reqAttrs, resAttrs)
	t.meters.httpResponseSize.Add(t.rootCtx, received, reqAttrs, resAttrs)

	if t.httpSpan != nil {
		t.httpSpan.SetAttributes(attrWroteBytes.Int64(sent), attrReadBytes.Int64(received))
		switch {
		case err != nil:
			t.httpSpan.RecordError(err)
			t.httpSpan.SetStatus(codes.Error, err.Error())
		case res != nil && res.StatusCode >= http.StatusBadRequest:
			httpErr := fmt.Errorf(`HTTP status code: %d %s`, res.StatusCode, http.StatusText(res.StatusCode))
			t.httpSpan.RecordError(httpErr)
			t.httpSpan.SetStatus(codes.Error, httpErr.Error())
		}
	}
	if t.receiveSpan != nil {
		t.receiveSpan.SetAttributes(attrReadBytes.Int64(received))
	}

	// If body parsing is in progress, the spans are ended by bodyParseDone
	if t.bodyParseSpan == nil {
		t.receiveSpan = endSpan(t.receiveSpan, err)
		t.httpSpan = endSpan(t.httpSpan, nil)
	}
}

func (t *requestTrace) retryDelay(attempt int, delay time.Duration) {
	// The span is ended by the next attempt, or by requestProcessed if the request failed
	_, t.retryDelaySpan = t.tracer.Start(
		t.rootCtx,
		clientRetryDelaySpanName,
		otelTrace.WithSpanKind(otelTrace.SpanKindClient),
		otelTrace.WithAttributes(t.attrs.httpRequest...),
		otelTrace.WithAttributes(t.attrs.httpResponse...),
		otelTrace.WithAttributes(
			attribute.Int("api.request.retry.attempt", attempt),
			attribute.Int64("api.request.retry.delay_ms", delay.Milliseconds()),
			attribute.String("api.request.retry.delay_string", delay.String()),
		),
	)
}

func (t *requestTrace) bodyParseStartHook(_ *http.Response) {
	t.bodyParseStart = time.Now()
	t.bodyParseAttrs = append(append([]attribute.KeyValue(nil), t.attrs.definition...), t.attrs.httpResponse...)
	t.meters.parseInFlight.Add(t.rootCtx, 1, otelMetric.WithAttributes(t.bodyParseAttrs...))
	_, t.bodyParseSpan = t.tracer.Start(
		t.httpCtx,
		clientBodyParseSpanName,
		otelTrace.WithSpanKind(otelTrace.SpanKindClient),
		otelTrace.WithAttributes(t.attrs.httpRequest...),
		otelTrace.WithAttributes(t.attrs.httpResponse...),
	)
}

func (t *requestTrace) bodyParseDone(_ *http.Response, _ any, _ error, parseErr error) {
	elapsedTime := float64(time.Since(t.bodyParseStart)) / float64(time.Millisecond)
	t.meters.parseInFlight.Add(t.rootCtx, -1, otelMetric.WithAttributes(t.bodyParseAttrs...))
	t.meters.parseDuration.Record(t.rootCtx, elapsedTime, otelMetric.WithAttributes(t.bodyParseAttrs...))

	t.bodyParseSpan = endSpan(t.bodyParseSpan, parseErr, attrReadBytes.Int64(t.readBytes))
	t.receiveSpan = endSpan(t.receiveSpan, nil)
	t.httpSpan = endSpan(t.httpSpan, nil)
}

func (t *requestTrace) requestProcessed(_ any, err error) {
	elapsedTime := float64(time.Since(t.startTime)) / float64(time.Millisecond)
	meterAttrs := append(append([]attribute.KeyValue(nil), t.attrs.definition...), t.attrs.httpResponse...)
	meterAttrs = append(meterAttrs, t.attrs.httpResponseError...)

	// Same attributes as in start
	t.meters.clientInFlight.Add(t.rootCtx, -1, otelMetric.WithAttributes(t.attrs.definition...))
	t.meters.clientDuration.Record(t.rootCtx, elapsedTime, otelMetric.WithAttributes(meterAttrs...))

	t.retryDelaySpan = endSpan(t.retryDelaySpan, nil)
	if t.rootSpan == nil {
		return
	}
	t.rootSpan.SetAttributes(t.attrs.httpResponse...)
	t.rootSpan.SetAttributes(t.attrs.httpResponseExtra...)
	if err != nil {
		t.rootSpan.RecordError(err)
		t.rootSpan.SetStatus(codes.Error, err.Error())
		t.rootSpan.End(otelTrace.WithStackTrace(true))
	} else {
		t.rootSpan.End()
	}
	t.rootSpan = nil
}

func (t *requestTrace) startChild(name string, attrs ...attribute.KeyValue) otelTrace.Span {
	_, span := t.tracer.Start(t.httpCtx, name, otelTrace.WithSpanKind(otelTrace.SpanKindClient), otelTrace.WithAttributes(attrs...))
	return span
}

// endSpan ends the span, if any, and returns nil, so the result can be assigned back to the span field.
func endSpan(span otelTrace.Span, err error, attrs ...attribute.KeyValue) otelTrace.Span {
	if span == nil {
		return nil
	}
	span.SetAttributes(attrs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	return nil
}
