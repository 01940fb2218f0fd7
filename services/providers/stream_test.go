package providers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkedBody yields one chunk per Read and records Close calls
type chunkedBody struct {
	chunks []string
	err    error
	closed int
}

func (b *chunkedBody) Read(p []byte) (int, error) {
	if len(b.chunks) == 0 {
		if b.err != nil {
			return 0, b.err
		}
		return 0, io.EOF
	}
	n := copy(p, b.chunks[0])
	b.chunks = b.chunks[1:]
	return n, nil
}

func (b *chunkedBody) Close() error {
	b.closed++
	return nil
}

func newTestStream(body *chunkedBody) *Stream {
	return NewStream(&http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"text/event-stream"}},
		Body:       body,
	})
}

func TestStream_Next(t *testing.T) {
	body := &chunkedBody{chunks: []string{"data: a\n\n", "data: b\n\n"}}
	s := newTestStream(body)

	chunk, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "data: a\n\n", string(chunk))
	assert.Equal(t, 0, body.closed)

	chunk, err = s.Next()
	require.NoError(t, err)
	assert.Equal(t, "data: b\n\n", string(chunk))

	_, err = s.Next()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 1, body.closed)

	_, err = s.Next()
	assert.Equal(t, io.EOF, err)
	assert.NoError(t, s.Close())
	assert.Equal(t, 1, body.closed)
}

func TestStream_ReadError(t *testing.T) {
	readErr := errors.New("connection reset")
	body := &chunkedBody{chunks: []string{"partial"}, err: readErr}
	s := newTestStream(body)

	_, err := s.Next()
	require.NoError(t, err)

	_, err = s.Next()
	assert.ErrorIs(t, err, readErr)
	assert.Equal(t, 1, body.closed)
}

func TestStream_CloseEarly(t *testing.T) {
	body := &chunkedBody{chunks: []string{"a", "b"}}
	s := newTestStream(body)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.Next()
	assert.Error(t, err)
	assert.Equal(t, 1, body.closed)
}

func TestStream_ReadAll(t *testing.T) {
	body := &chunkedBody{chunks: []string{`{"choices":`, `[]}`}}
	s := newTestStream(body)

	data, err := s.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, `{"choices":[]}`, string(data))
	assert.Equal(t, 1, body.closed)
}

func TestStream_ContentType(t *testing.T) {
	s := newTestStream(&chunkedBody{})
	assert.Equal(t, "text/event-stream", s.ContentType("application/json"))

	s = NewStream(&http.Response{StatusCode: 200, Header: http.Header{}, Body: io.NopCloser(strings.NewReader(""))})
	assert.Equal(t, "application/json", s.ContentType("application/json"))
}
