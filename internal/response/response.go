package response

import (
	"io"

	"github.com/flinthttp/flint/internal/cookie"
	"github.com/flinthttp/flint/internal/headers"
	"github.com/flinthttp/flint/internal/status"
)

// Response is a response under construction: mutable until handed to the
// connection writer, read-only after. Exactly one of Body and Stream is
// active; Stream is released by Close on every write path.
type Response struct {
	Status  status.Code
	Headers *headers.Headers
	Cookies *cookie.Jar
	Body    []byte
	Stream  io.ReadCloser
}

// New returns an empty response with the given status code.
func New(code status.Code) *Response {
	return &Response{
		Status:  code,
		Headers: headers.New(),
		Cookies: cookie.NewJar(),
	}
}

// WithStatus overrides the status code. Returns the response for chaining.
func (r *Response) WithStatus(code status.Code) *Response {
	r.Status = code
	return r
}

// WithHeader sets a header. Returns the response for chaining.
func (r *Response) WithHeader(key, value string) *Response {
	r.Headers.Set(key, value)
	return r
}

// SetCookie adds a cookie to be set on the client.
func (r *Response) SetCookie(name, value string) {
	r.Cookies.Set(name, value)
}

// Close releases the streaming body, if any. Idempotent.
func (r *Response) Close() error {
	if r.Stream == nil {
		return nil
	}
	stream := r.Stream
	r.Stream = nil
	return stream.Close()
}
