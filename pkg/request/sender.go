package request

import (
	"context"
	"net/http"
)

// Sender performs the HTTP round trip of a request definition.
// The client.Client is the default implementation.
type Sender interface {
	// Send sends the request and returns the raw response and the mapped result.
	// The result must have the same type as HTTPRequest.ResultDef(), otherwise panic will occur.
	Send(ctx context.Context, request HTTPRequest) (rawResponse *http.Response, result any, err error)
}

// Sendable can be sent without a need to process the response, see HTTPRequest, APIRequest and ReqDefinitionError.
type Sendable interface {
	SendOrErr(ctx context.Context) error
}

// ReqDefinitionError reports an invalid request definition, for example a malformed URL.
// It is both an error and a Sendable, so the error is returned on send and callers check it in one place.
type ReqDefinitionError struct {
	err error
}

func NewReqDefinitionError(err error) ReqDefinitionError {
	return ReqDefinitionError{err: err}
}

func (v ReqDefinitionError) Error() string {
	return v.err.Error()
}

func (v ReqDefinitionError) SendOrErr(context.Context) error {
	return v
}

func (v ReqDefinitionError) Unwrap() error {
	return v.err
}
