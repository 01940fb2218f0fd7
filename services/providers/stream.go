package providers

import (
	"bytes"
	"io"
	"net/http"
	"sync"
)

const chunkSize = 32 * 1024

// Stream is a forward-only view of a successful upstream response body.
//
// Next performs one blocking read per call and returns io.EOF once the body
// is exhausted. A Stream has a single reader; a returned chunk is only valid
// until the following call. The body is closed exactly once: on EOF, on the
// first read error, or on Close. Next and Close must not be called
// concurrently.
type Stream struct {
	StatusCode int
	Header     http.Header

	body    io.ReadCloser
	buf     []byte
	pending error

	closeOnce sync.Once
	closeErr  error
}

// NewStream wraps an upstream response
func NewStream(resp *http.Response) *Stream {
	return &Stream{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		body:       resp.Body,
		buf:        make([]byte, chunkSize),
	}
}

// Next returns the next chunk of the body
func (s *Stream) Next() ([]byte, error) {
	if s.pending != nil {
		return nil, s.pending
	}

	for {
		n, err := s.body.Read(s.buf)
		if err != nil {
			s.pending = err
			s.Close()
		}
		if n > 0 {
			return s.buf[:n], nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// Close releases the upstream body. It is safe to call more than once.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.body.Close()
		if s.pending == nil {
			s.pending = io.ErrClosedPipe
		}
	})
	return s.closeErr
}

// ReadAll drains the remaining body and closes the stream
func (s *Stream) ReadAll() ([]byte, error) {
	defer s.Close()

	var out bytes.Buffer
	for {
		chunk, err := s.Next()
		if err == io.EOF {
			return out.Bytes(), nil
		}
		if err != nil {
			return out.Bytes(), err
		}
		out.Write(chunk)
	}
}

// ContentType returns the upstream content type, or fallback when absent
func (s *Stream) ContentType(fallback string) string {
	if ct := s.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return fallback
}
