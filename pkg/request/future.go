package request

import (
	"context"
)

// Future is the pending result of an APIRequest sent in the background, see the Go function.
//
// It has a single producer, the goroutine sending the request, and is meant for a single consumer.
// The send is cancelled by cancelling the context passed to Go.
type Future[R Result] struct {
	done   chan struct{}
	result R
	err    error
}

// Go starts sending the request in a new goroutine and returns its Future.
func Go[R Result](ctx context.Context, request APIRequest[R]) *Future[R] {
	f := &Future[R]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.result, f.err = request.Send(ctx)
	}()
	return f
}

// Done is closed when the request is completed.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the request is completed.
func (f *Future[R]) Wait() (R, error) {
	<-f.done
	return f.result, f.err
}

// Await blocks until the request is completed or the ctx is done.
// The request itself is not cancelled by the ctx of Await.
func (f *Future[R]) Await(ctx context.Context) (result R, err error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return result, ctx.Err()
	}
}

// Then calls fn with the result in a new goroutine, once the request is completed.
// The returned channel is closed when fn returns.
func (f *Future[R]) Then(fn func(result R, err error)) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn(f.Wait())
	}()
	return done
}
