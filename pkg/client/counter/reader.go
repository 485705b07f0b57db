// Package counter measures the size of HTTP bodies while they are streamed.
package counter

import (
	"errors"
	"io"
	"sync"
)

// OnClose is called once, when the ReadCloser is closed.
// The err is the first read error other than io.EOF, or the close error.
type OnClose func(bytes int64, err error)

// ReadCloser counts bytes read from the wrapped io.ReadCloser.
type ReadCloser struct {
	wrapped   io.ReadCloser
	onClose   OnClose
	closeOnce sync.Once
	bytes     int64
	readErr   error
}

func NewReadCloser(wrapped io.ReadCloser, onClose OnClose) *ReadCloser {
	return &ReadCloser{wrapped: wrapped, onClose: onClose}
}

// Bytes returns the number of bytes read so far.
func (w *ReadCloser) Bytes() int64 {
	return w.bytes
}

func (w *ReadCloser) Read(b []byte) (int, error) {
	n, err := w.wrapped.Read(b)
	w.bytes += int64(n)
	if err != nil && !errors.Is(err, io.EOF) && w.readErr == nil {
		w.readErr = err
	}
	return n, err
}

func (w *ReadCloser) Close() error {
	closeErr := w.wrapped.Close()
	w.closeOnce.Do(func() {
		if w.onClose == nil {
			return
		}
		err := w.readErr
		if err == nil {
			err = closeErr
		}
		w.onClose(w.bytes, err)
	})
	return closeErr
}
