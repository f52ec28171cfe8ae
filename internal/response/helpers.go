package response

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"github.com/flinthttp/flint/internal/httpdate"
	"github.com/flinthttp/flint/internal/status"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Text returns a 200 plain-text response.
func Text(body string) *Response {
	r := New(status.OK)
	r.Headers.Set("Content-Type", "text/plain; charset=utf-8")
	r.Body = []byte(body)
	return r
}

// HTML returns a 200 HTML response.
func HTML(body string) *Response {
	r := New(status.OK)
	r.Headers.Set("Content-Type", "text/html; charset=utf-8")
	r.Body = []byte(body)
	return r
}

// JSON marshals v into a 200 application/json response.
func JSON(v any) (*Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	r := New(status.OK)
	r.Headers.Set("Content-Type", "application/json")
	r.Body = body
	return r, nil
}

// Redirect returns a 301 pointing at url.
func Redirect(url string) *Response {
	r := New(status.MovedPermanently)
	r.Headers.Set("Location", url)
	return r
}

// Err returns the standard error response for a status code: the reason
// phrase as an HTML body.
func Err(code status.Code) *Response {
	r := New(code)
	r.Headers.Set("Content-Type", "text/html; charset=utf-8")
	r.Body = []byte(code.Phrase())
	return r
}

// File returns a response streaming the file at path as an attachment
// download. downloadName defaults to the file's base name. A missing or
// unreadable file is reported as a 404 HTTP error.
func File(path, downloadName string) (*Response, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, status.NewError(status.NotFound)
	}

	fh, err := os.Open(path)
	if err != nil {
		return nil, status.NewError(status.NotFound)
	}

	if downloadName == "" {
		downloadName = filepath.Base(path)
	}

	r := New(status.OK)
	r.Headers.Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", url.PathEscape(downloadName)))
	r.Headers.Set("Content-Length", fmt.Sprintf("%d", info.Size()))
	r.Headers.Set("Last-Modified", httpdate.Format(info.ModTime()))
	r.Stream = fh
	return r, nil
}
