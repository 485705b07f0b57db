package resource

import (
	"bytes"
	"net/http"
)

// Payload is a response of a resource, the body is decoded as JSON.
type Payload struct {
	url        string
	statusCode int
	header     http.Header
	raw        []byte
	data       any
}

// Data returns the decoded body: map[string]any, []any, a scalar, or nil if the body is empty.
// JSON numbers are decoded as float64.
func (p *Payload) Data() any {
	return p.data
}

// Raw returns the body bytes.
func (p *Payload) Raw() []byte {
	return p.raw
}

// StatusCode returns HTTP status code, or 0 if no response has been received.
func (p *Payload) StatusCode() int {
	return p.statusCode
}

func (p *Payload) Header() http.Header {
	return p.header
}

// IsEmpty returns true, if the body is empty, for example on "204 No Content".
func (p *Payload) IsEmpty() bool {
	return len(bytes.TrimSpace(p.raw)) == 0
}

// Decode body to the target value. An empty body keeps the target unchanged.
func (p *Payload) Decode(target any) error {
	if p.IsEmpty() {
		return nil
	}
	if err := json.Unmarshal(p.raw, target); err != nil {
		return &DecodeError{StatusCode: p.statusCode, URL: p.url, Err: err}
	}
	return nil
}

func (p *Payload) reset(url string) {
	*p = Payload{url: url}
}

func (p *Payload) decode() error {
	p.data = nil
	return p.Decode(&p.data)
}
