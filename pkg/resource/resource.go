package resource

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/trace"

	"github.com/keboola/go-resource/pkg/request"
	"github.com/keboola/go-resource/pkg/tokenstore"
)

const (
	SearchSuffix = "/search"
	CountSuffix  = "/count"
)

// Client is the set of operations over a REST resource, it is implemented by the Resource.
type Client interface {
	// Query sends GET, the response may be an array or an object.
	Query(ids Params, opts ...CallOption) request.APIRequest[*Payload]
	// Get sends GET for a single identified resource.
	Get(ids Params, opts ...CallOption) request.APIRequest[*Payload]
	// Save sends POST with the JSON encoded data.
	Save(data any, ids Params, opts ...CallOption) request.APIRequest[*Payload]
	// Update sends PUT with the JSON encoded data.
	Update(data any, ids Params, opts ...CallOption) request.APIRequest[*Payload]
	Delete(ids Params, opts ...CallOption) request.APIRequest[*Payload]
	// Search sends GET to the "/search" sub-resource.
	Search(ids Params, opts ...CallOption) request.APIRequest[*Payload]
	// Count sends GET to the "/count" sub-resource.
	Count(ids Params, opts ...CallOption) request.APIRequest[*Payload]
}

var _ Client = (*Resource)(nil)

// Resource sends requests to a URL template. The value is immutable and safe for concurrent use.
type Resource struct {
	sender   request.Sender
	template Template
	base     Config
	store    tokenstore.Store
	errorDef func() error
}

type Option func(r *Resource)

// WithBaseConfig replaces the default BaseConfig.
func WithBaseConfig(cfg Config) Option {
	return func(r *Resource) {
		r.base = cfg.Clone()
	}
}

// WithTokenStore sets the store of access tokens, see Authenticate.
func WithTokenStore(store tokenstore.Store) Option {
	return func(r *Resource) {
		r.store = store
	}
}

// WithErrorDef sets a factory of error values, the JSON error response is mapped to a new value on each request.
// The value must be a pointer, see NewAPIError.
func WithErrorDef(fn func() error) Option {
	return func(r *Resource) {
		r.errorDef = fn
	}
}

// New creates a Resource. Relative URLs are resolved by the sender, see client.Client.WithBaseURL.
func New(sender request.Sender, template string, opts ...Option) *Resource {
	if sender == nil {
		panic(fmt.Errorf("sender cannot be nil"))
	}
	r := &Resource{sender: sender, template: Template(template), base: BaseConfig()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// URL returns the URL template.
func (r *Resource) URL() Template {
	return r.template
}

// WithURL returns a copy of the Resource with a different URL template.
func (r *Resource) WithURL(template string) *Resource {
	clone := *r
	clone.template = Template(template)
	return &clone
}

// BaseConfig returns a copy of the base Config.
func (r *Resource) BaseConfig() Config {
	return r.base.Clone()
}

func (r *Resource) Query(ids Params, opts ...CallOption) request.APIRequest[*Payload] {
	return r.newRequest(http.MethodGet, nil, ids, opts)
}

func (r *Resource) Get(ids Params, opts ...CallOption) request.APIRequest[*Payload] {
	return r.newRequest(http.MethodGet, nil, ids, opts)
}

func (r *Resource) Save(data any, ids Params, opts ...CallOption) request.APIRequest[*Payload] {
	return r.newRequest(http.MethodPost, data, ids, opts)
}

func (r *Resource) Update(data any, ids Params, opts ...CallOption) request.APIRequest[*Payload] {
	return r.newRequest(http.MethodPut, data, ids, opts)
}

func (r *Resource) Delete(ids Params, opts ...CallOption) request.APIRequest[*Payload] {
	return r.newRequest(http.MethodDelete, nil, ids, opts)
}

// Search sends GET to the "/search" sub-resource.
// The suffix always overrides the URL suffix set by a CallOption.
func (r *Resource) Search(ids Params, opts ...CallOption) request.APIRequest[*Payload] {
	return r.newRequest(http.MethodGet, nil, ids, append(opts[:len(opts):len(opts)], WithURLSuffix(SearchSuffix)))
}

// Count sends GET to the "/count" sub-resource.
// The suffix always overrides the URL suffix set by a CallOption.
func (r *Resource) Count(ids Params, opts ...CallOption) request.APIRequest[*Payload] {
	return r.newRequest(http.MethodGet, nil, ids, append(opts[:len(opts):len(opts)], WithURLSuffix(CountSuffix)))
}

// Build creates the HTTP request, without sending it.
// The data is encoded to JSON. POST and PUT requests always have a body, nil data is sent as null.
// Other methods have a body only if the data is not nil.
func (r *Resource) Build(ctx context.Context, method string, data any, ids Params, opts ...CallOption) (request.HTTPRequest, error) {
	// Effective config
	cfg, err := Authenticate(ctx, Merge(r.base, NewOverride(opts...)), r.store)
	if err != nil {
		return nil, err
	}

	// URL
	urlStr := r.template.Resolve(ids) + cfg.URLSuffix
	urlStr += EncodeQueryWith(cfg.Params, QueryOptions{IncludeZero: cfg.IncludeZeroParams})
	if _, err := url.Parse(urlStr); err != nil {
		return nil, request.NewReqDefinitionError(fmt.Errorf(`url "%s" is not valid: %w`, urlStr, err))
	}

	req := request.
		NewHTTPRequest(r.sender).
		WithMethod(method).
		WithURL(urlStr).
		WithHeaders(cfg.Headers)

	if data != nil || method == http.MethodPost || method == http.MethodPut {
		body, err := json.Marshal(data)
		if err != nil {
			return nil, request.NewReqDefinitionError(fmt.Errorf(`cannot encode JSON body: %w`, err))
		}
		req = req.WithBody(body)
	}

	if r.errorDef != nil {
		req = req.WithError(r.errorDef())
	}

	return req, nil
}

func (r *Resource) newRequest(method string, data any, ids Params, opts []CallOption) request.APIRequest[*Payload] {
	return request.NewAPIRequestFunc(func() (*Payload, []request.Sendable) {
		payload := &Payload{}
		return payload, []request.Sendable{call{resource: r, method: method, data: data, ids: ids, opts: opts, payload: payload}}
	})
}

// As sends the request and decodes the response body to the T type.
func As[T any](ctx context.Context, req request.APIRequest[*Payload]) (T, error) {
	var out T
	payload, err := req.Send(ctx)
	if err != nil {
		return out, err
	}
	if err := payload.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}

// call is created for each send with its own payload, the token is read and the config merged on send.
type call struct {
	resource *Resource
	method   string
	data     any
	ids      Params
	opts     []CallOption
	payload  *Payload
}

// Tracer enables the request.APIRequest span, if the sender has telemetry enabled.
func (c call) Tracer() trace.Tracer {
	if tp, ok := c.resource.sender.(interface{ Tracer() trace.Tracer }); ok {
		return tp.Tracer()
	}
	return nil
}

func (c call) SendOrErr(ctx context.Context) error {
	req, err := c.resource.Build(ctx, c.method, c.data, c.ids, c.opts...)
	if err != nil {
		return err
	}

	body := &[]byte{}
	req = req.WithResult(body)
	res, _, err := req.Send(ctx)

	// Response is kept also on error, for example to read the status code
	c.payload.reset(req.URL().String())
	if res != nil {
		c.payload.statusCode = res.StatusCode()
		c.payload.header = res.ResponseHeader()
		if raw := res.RawRequest(); raw != nil {
			c.payload.url = raw.URL.String()
		}
	}
	c.payload.raw = *body
	if err != nil {
		return err
	}
	return c.payload.decode()
}
