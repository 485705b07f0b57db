package counter_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/keboola/go-resource/pkg/client/counter"
)

type testBody struct {
	io.Reader
	readErr  error
	closeErr error
}

func (b *testBody) Read(p []byte) (int, error) {
	n, err := b.Reader.Read(p)
	if errors.Is(err, io.EOF) && b.readErr != nil {
		return n, b.readErr
	}
	return n, err
}

func (b *testBody) Close() error {
	return b.closeErr
}

func TestReadCloser(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		content     string
		readErr     error
		closeErr    error
		expectedErr string
	}{
		{name: "empty"},
		{name: "no error", content: "abcdef"},
		{name: "close error", content: "abcdef", closeErr: errors.New("close error"), expectedErr: "close error"},
		{name: "read error", content: "abcdef", readErr: errors.New("read error"), expectedErr: "read error"},
		{name: "read error wins", content: "abcdef", readErr: errors.New("read error"), closeErr: errors.New("close error"), expectedErr: "read error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			calls := 0
			var gotBytes int64
			var gotErr error
			r := counter.NewReadCloser(
				&testBody{Reader: strings.NewReader(tc.content), readErr: tc.readErr, closeErr: tc.closeErr},
				func(bytes int64, err error) {
					calls++
					gotBytes = bytes
					gotErr = err
				},
			)

			_, _ = io.ReadAll(r)
			assert.Equal(t, int64(len(tc.content)), r.Bytes())

			// OnClose is called only once
			_ = r.Close()
			_ = r.Close()
			assert.Equal(t, 1, calls)
			assert.Equal(t, int64(len(tc.content)), gotBytes)
			if tc.expectedErr == "" {
				assert.NoError(t, gotErr)
			} else {
				assert.EqualError(t, gotErr, tc.expectedErr)
			}
		})
	}
}
