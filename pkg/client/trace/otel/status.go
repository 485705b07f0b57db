package otel

import "net/http"

// statusClass of the response: "1xx" ... "5xx", or "none" if there is no response.
func statusClass(res *http.Response) string {
	if res == nil || res.StatusCode < 100 || res.StatusCode > 599 {
		return "none"
	}
	return string(rune('0'+res.StatusCode/100)) + "xx"
}

// succeeded is true for a response without an error and with a status code below 400, so redirects included.
func succeeded(res *http.Response, err error) bool {
	return err == nil && res != nil && res.StatusCode >= http.StatusOK && res.StatusCode < http.StatusBadRequest
}

func redirected(res *http.Response) bool {
	return statusClass(res) == "3xx"
}
