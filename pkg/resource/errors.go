package resource

import (
	"fmt"
	"net/http"
)

// DecodeError is returned, if the response body is not a valid JSON.
type DecodeError struct {
	StatusCode int
	URL        string
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf(`cannot decode JSON response of "%s", httpCode: "%d": %s`, e.URL, e.StatusCode, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// APIError is a common structure of a JSON error response, it can be registered by WithErrorDef.
type APIError struct {
	Message  string `json:"message"`
	ErrCode  string `json:"code"`
	request  *http.Request
	response *http.Response
}

func NewAPIError() error {
	return &APIError{}
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "request failed"
	}
	if e.request != nil {
		msg += fmt.Sprintf(`, method: "%s", url: "%s"`, e.request.Method, e.request.URL)
	}
	if e.response != nil {
		msg += fmt.Sprintf(`, httpCode: "%d"`, e.StatusCode())
	}
	if len(e.ErrCode) > 0 {
		msg += fmt.Sprintf(`, errCode: "%s"`, e.ErrCode)
	}
	return msg
}

// StatusCode returns HTTP status code, or 0 if the response is not set.
func (e *APIError) StatusCode() int {
	if e.response == nil {
		return 0
	}
	return e.response.StatusCode
}

// SetRequest method allows injection of HTTP request to the error, it is called by the client.Client.
func (e *APIError) SetRequest(request *http.Request) {
	e.request = request
}

// SetResponse method allows injection of HTTP response to the error, it is called by the client.Client.
func (e *APIError) SetResponse(response *http.Response) {
	e.response = response
}
