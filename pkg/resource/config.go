package resource

import (
	"net/http"
)

const (
	DefaultTokenKey   = "accessToken"
	DefaultAuthHeader = "x-access-token"
)

// Config of requests to a resource.
type Config struct {
	// Headers sent with each request.
	Headers http.Header
	// Auth enables the authentication, see Authenticate.
	Auth bool
	// TokenKey is the key of the access token in the tokenstore.Store.
	TokenKey string
	// AuthHeader is the name of the header with the access token.
	AuthHeader string
	// Params are encoded to the query string, see EncodeQuery.
	Params Params
	// URLSuffix is appended to the resolved URL template, for example "/search".
	URLSuffix string
	// IncludeZeroParams keeps 0 and false values in the query string, see QueryOptions.
	IncludeZeroParams bool
}

// BaseConfig returns the default Config: JSON content type and accept headers, authentication disabled.
func BaseConfig() Config {
	return Config{
		Headers: http.Header{
			"Content-Type": []string{"application/json"},
			"Accept":       []string{"application/json"},
		},
		TokenKey:   DefaultTokenKey,
		AuthHeader: DefaultAuthHeader,
	}
}

// Clone returns a deep copy of the Config, header keys are canonicalized.
// Params are immutable, so they are shared.
func (c Config) Clone() Config {
	headers := make(http.Header, len(c.Headers))
	for k, v := range c.Headers {
		key := http.CanonicalHeaderKey(k)
		headers[key] = append(headers[key], v...)
	}
	c.Headers = headers
	return c
}

// Override of a Config for one call. Only fields set by a CallOption are applied.
type Override struct {
	headers     http.Header
	auth        *bool
	tokenKey    *string
	authHeader  *string
	params      *Params
	urlSuffix   *string
	includeZero *bool
}

// CallOption sets a field of the Override.
type CallOption func(o *Override)

// NewOverride creates Override from options, the last option wins.
func NewOverride(opts ...CallOption) Override {
	return Override{}.With(opts...)
}

// With returns a copy of the Override with options applied.
func (o Override) With(opts ...CallOption) Override {
	o.headers = o.headers.Clone()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// IsEmpty returns true, if no field is set.
func (o Override) IsEmpty() bool {
	return o.headers == nil && o.auth == nil && o.tokenKey == nil && o.authHeader == nil &&
		o.params == nil && o.urlSuffix == nil && o.includeZero == nil
}

// WithHeader sets the header, replacing the base value of the same name.
func WithHeader(key, value string) CallOption {
	return func(o *Override) {
		if o.headers == nil {
			o.headers = make(http.Header)
		}
		o.headers.Set(key, value)
	}
}

// WithHeaders sets the headers, replacing the base values of the same names.
// Base headers with other names are kept.
func WithHeaders(headers http.Header) CallOption {
	return func(o *Override) {
		if o.headers == nil {
			o.headers = make(http.Header)
		}
		for k, v := range headers {
			o.headers[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
		}
	}
}

func WithAuth(enabled bool) CallOption {
	return func(o *Override) {
		o.auth = &enabled
	}
}

func WithTokenKey(key string) CallOption {
	return func(o *Override) {
		o.tokenKey = &key
	}
}

func WithAuthHeader(name string) CallOption {
	return func(o *Override) {
		o.authHeader = &name
	}
}

// WithParams replaces the query parameters of the base Config.
func WithParams(params Params) CallOption {
	return func(o *Override) {
		o.params = &params
	}
}

// WithURLSuffix appends the suffix to the resolved URL as it is, for example "/search" or ".json".
func WithURLSuffix(suffix string) CallOption {
	return func(o *Override) {
		o.urlSuffix = &suffix
	}
}

// WithZeroParams keeps 0 and false values in the query string.
func WithZeroParams(include bool) CallOption {
	return func(o *Override) {
		o.includeZero = &include
	}
}

// Merge returns the effective Config for one call.
// Fields set in the override replace fields of the base, other fields are inherited.
// Headers are merged, the base headers are kept, if they are not overridden.
// The base is never modified, the result shares no mutable state with the inputs.
func Merge(base Config, override Override) Config {
	out := base.Clone()
	for k, v := range override.headers {
		out.Headers[k] = append([]string(nil), v...)
	}
	if override.auth != nil {
		out.Auth = *override.auth
	}
	if override.tokenKey != nil {
		out.TokenKey = *override.tokenKey
	}
	if override.authHeader != nil {
		out.AuthHeader = *override.authHeader
	}
	if override.params != nil {
		out.Params = *override.params
	}
	if override.urlSuffix != nil {
		out.URLSuffix = *override.urlSuffix
	}
	if override.includeZero != nil {
		out.IncludeZeroParams = *override.includeZero
	}
	return out
}
