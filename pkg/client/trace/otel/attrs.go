package otel

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/semconv/v1.18.0/httpconv"

	"github.com/keboola/go-resource/pkg/request"
)

const maskedAttrValue = "****"

// attributes of one Client.Send call, updated by each attempt.
type attributes struct {
	config config
	// definition attributes for span and metrics
	definition []attribute.KeyValue
	// definitionExtra attributes for span only
	definitionExtra []attribute.KeyValue
	// httpRequest attributes for span and metrics
	httpRequest []attribute.KeyValue
	// httpRequestExtra attributes for span only
	httpRequestExtra []attribute.KeyValue
	// httpResponse attributes for span and metrics
	httpResponse []attribute.KeyValue
	// httpResponseExtra attributes for span only
	httpResponseExtra []attribute.KeyValue
	// httpResponseError attributes for metrics
	httpResponseError []attribute.KeyValue
	// definitionPath is used as the resource name
	definitionPath string
}

func newAttributes(cfg config, reqDef request.HTTPRequest) *attributes {
	out := &attributes{config: cfg}
	reqURL := reqDef.URL()
	out.definitionPath = mustURLPathUnescape(reqURL.Path)

	var resultType string
	if v := reflect.TypeOf(reqDef.ResultDef()); v != nil {
		resultType = v.String()
	}

	query := reqURL.Query()
	redactedURL := *reqURL
	redactedURL.RawQuery = cfg.redactQuery(query)

	out.definition = []attribute.KeyValue{
		attribute.String("definition.method", reqDef.Method()),
		attribute.String("definition.result.type", resultType),
		attribute.String("definition.url.full", mustURLPathUnescape(redactedURL.String())),
		attribute.String("definition.url.path", out.definitionPath),
		attribute.String("definition.url.host.full", reqURL.Host),
	}
	if dotPos := strings.IndexByte(reqURL.Host, '.'); dotPos > 0 {
		out.definition = append(out.definition,
			attribute.String("definition.url.host.prefix", reqURL.Host[:dotPos]),
			attribute.String("definition.url.host.suffix", strings.TrimLeft(reqURL.Host[dotPos:], ".")),
		)
	}

	out.definitionExtra = append(out.definitionExtra, cfg.headerAttrs("definition.header.", reqDef.RequestHeader())...)
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		value := strings.Join(query[k], ";")
		if cfg.isRedactedQueryParam(k) {
			value = maskedAttrValue
		}
		out.definitionExtra = append(out.definitionExtra, attribute.String("definition.params.query."+k, value))
	}

	return out
}

func (v *attributes) SetFromRequest(req *http.Request) {
	if req == nil {
		v.httpRequest = nil
		v.httpRequestExtra = nil
		return
	}
	v.httpRequest = httpconv.ClientRequest(req)
	header := req.Header.Clone()
	header.Del("User-Agent") // already present from httpconv
	v.httpRequestExtra = v.config.headerAttrs("http.header.", header)
}

func (v *attributes) SetFromResponse(res *http.Response, err error) {
	if res == nil {
		v.httpResponse = nil
		v.httpResponseExtra = nil
	} else {
		v.httpResponse = httpconv.ClientResponse(res)
		v.httpResponseExtra = v.config.headerAttrs("http.response.header.", res.Header)
	}

	var netErr net.Error
	errors.As(err, &netErr)
	v.httpResponseError = []attribute.KeyValue{
		attribute.String("http.response.status_class", statusClass(res)),
		attribute.Bool("http.response.isSuccess", succeeded(res, err)),
		attribute.Bool("http.response.isRedirection", redirected(res)),
		attribute.Bool("http.response.error.has", err != nil),
		attribute.Bool("http.response.error.net", netErr != nil),
		attribute.Bool("http.response.error.timeout", netErr != nil && netErr.Timeout()),
		attribute.Bool("http.response.error.cancelled", errors.Is(err, context.Canceled)),
		attribute.Bool("http.response.error.deadline_exceeded", errors.Is(err, context.DeadlineExceeded)),
	}
}

// headerAttrs converts the header to sorted attributes with lower-cased names.
func (c config) headerAttrs(prefix string, header http.Header) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(header))
	for key, values := range header {
		value := strings.Join(values, ";")
		if c.isRedactedHeader(key) {
			value = maskedAttrValue
		}
		attrs = append(attrs, attribute.String(prefix+strings.ToLower(key), value))
	}
	sort.SliceStable(attrs, func(i, j int) bool {
		return attrs[i].Key < attrs[j].Key
	})
	return attrs
}

// redactQuery encodes the query with redacted values masked, keys are sorted.
func (c config) redactQuery(query url.Values) string {
	if len(query) == 0 {
		return ""
	}
	out := make(url.Values, len(query))
	for k, values := range query {
		if c.isRedactedQueryParam(k) {
			out[k] = []string{maskedAttrValue}
		} else {
			out[k] = values
		}
	}
	return out.Encode()
}

func mustURLPathUnescape(in string) string {
	out, err := url.PathUnescape(in)
	if err != nil {
		return in
	}
	return out
}
