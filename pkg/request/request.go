// Package request defines immutable HTTP request descriptors, see the NewHTTPRequest function.
//
// Requests are dispatched by the Sender interface, the transport.
// The client.Client is a default implementation of the request.Sender
// interface based on the standard net/http package.
//
// APIRequest[R Result] is a generic type that wraps one or more Sendable values.
// It contains the target value to which the API response is mapped.
// Nothing is sent until the Send method is called.
//
// Future, RunGroup and WaitGroup are helpers for asynchronous and concurrent requests.
package request
