package request

import "net/http"

// HTTPResponse is the outcome of a sent HTTPRequest, it also exposes the request definition.
type HTTPResponse interface {
	httpRequestReadOnly
	// ResponseHeader returns headers of the response, or nil if no response has been received.
	ResponseHeader() http.Header
	// ContentType returns the Content-Type header of the response.
	ContentType() string
	// StatusCode returns HTTP status code, or 0 if no response has been received.
	StatusCode() int
	// RawRequest returns the standard HTTP request of the last attempt, or nil.
	RawRequest() *http.Request
	// RawResponse returns the standard HTTP response, or nil.
	RawResponse() *http.Response
	// IsSuccess is true for 2xx status codes.
	IsSuccess() bool
	// IsError is true for status codes >= 400.
	IsError() bool
	// Result returns the response body mapped to the ResultDef value, if any.
	Result() any
	// Error returns the error of the request, it is the ErrorDef value, if the error response has been mapped.
	// It can also be a transport error, e.g. a network problem.
	Error() error
}

type httpResponse struct {
	httpRequest
	rawResponse *http.Response
	result      any
	err         error
}

func (r httpResponse) ResponseHeader() http.Header {
	if res := r.rawResponse; res != nil {
		return res.Header
	}
	return nil
}

func (r httpResponse) ContentType() string {
	return r.ResponseHeader().Get("Content-Type")
}

func (r httpResponse) StatusCode() int {
	if res := r.rawResponse; res != nil {
		return res.StatusCode
	}
	return 0
}

func (r httpResponse) RawRequest() *http.Request {
	if res := r.rawResponse; res != nil {
		return res.Request
	}
	return nil
}

func (r httpResponse) RawResponse() *http.Response {
	return r.rawResponse
}

func (r httpResponse) IsSuccess() bool {
	code := r.StatusCode()
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}

func (r httpResponse) IsError() bool {
	return r.StatusCode() >= http.StatusBadRequest
}

func (r httpResponse) Result() any {
	return r.result
}

func (r httpResponse) Error() error {
	return r.err
}
