package request

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/flinthttp/flint/internal/bufpool"
	"github.com/flinthttp/flint/internal/cookie"
	"github.com/flinthttp/flint/internal/headers"
	"github.com/flinthttp/flint/internal/spool"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNoBoundary is returned for a multipart body whose Content-Type carries
// no boundary parameter.
var ErrNoBoundary = errors.New("multipart content type without boundary")

// File is one uploaded part of a multipart form. Content is an owned spool
// released by Request.Close.
type File struct {
	Field    string
	Filename string
	Content  *spool.Buffer
}

// Request is a single parsed HTTP request. Identity fields are immutable;
// the body and its derived views are computed on first access and memoized
// for the request's lifetime. Ctx is the opaque application context, carried
// through untouched.
type Request[Ctx any] struct {
	RemoteAddr net.Addr
	Method     string
	Path       string
	Proto      string
	Headers    *headers.Headers
	PathParams map[string]string
	Ctx        Ctx

	reader   io.Reader
	spoolMax int

	body    lazy[*spool.Buffer]
	query   lazy[url.Values]
	cookies lazy[map[string]string]
	json    lazy[any]
	form    lazy[formAndFiles]
}

type formAndFiles struct {
	form  url.Values
	files []*File
}

// New builds a request around the connection reader the headers were parsed
// from. The reader is consumed lazily, at most once, when the body is first
// needed. spoolMax is the in-memory threshold of the body spool.
func New[Ctx any](reader io.Reader, addr net.Addr, method, path, proto string,
	hdrs *headers.Headers, params map[string]string, ctx Ctx, spoolMax int) *Request[Ctx] {
	if params == nil {
		params = map[string]string{}
	}
	return &Request[Ctx]{
		RemoteAddr: addr,
		Method:     method,
		Path:       path,
		Proto:      proto,
		Headers:    hdrs,
		PathParams: params,
		Ctx:        ctx,
		reader:     reader,
		spoolMax:   spoolMax,
	}
}

// Body returns the spooled request body, positioned at the start. Exactly
// Content-Length bytes are read from the connection; an absent or
// unparseable Content-Length reads nothing.
func (r *Request[Ctx]) Body() (*spool.Buffer, error) {
	return r.body.get(r.readBody)
}

func (r *Request[Ctx]) readBody() (*spool.Buffer, error) {
	n := r.contentLength()
	buf := spool.New(r.spoolMax)

	chunk := bufpool.Get()
	_, err := io.CopyBuffer(buf, io.LimitReader(r.reader, n), chunk)
	bufpool.Put(chunk)
	if err != nil {
		buf.Close()
		return nil, err
	}

	if _, err := buf.Seek(0, io.SeekStart); err != nil {
		buf.Close()
		return nil, err
	}
	return buf, nil
}

func (r *Request[Ctx]) contentLength() int64 {
	val, _ := r.Headers.Get("Content-Length")
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// BodyData returns the full body bytes, rewinding the spool first.
func (r *Request[Ctx]) BodyData() ([]byte, error) {
	body, err := r.Body()
	if err != nil {
		return nil, err
	}
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return io.ReadAll(body)
}

// Query returns the parsed query string: parameter name to values, multiple
// occurrences preserved in order. An absent query string yields an empty
// map.
func (r *Request[Ctx]) Query() url.Values {
	q, _ := r.query.get(func() (url.Values, error) {
		_, raw, ok := strings.Cut(r.Path, "?")
		if !ok {
			return url.Values{}, nil
		}
		// The fragment is not part of the query.
		raw, _, _ = strings.Cut(raw, "#")
		// ParseQuery fills in what it understood even on error; stay
		// permissive like the rest of the request surface.
		values, _ := url.ParseQuery(raw)
		return values, nil
	})
	return q
}

// Cookies returns the cookies of the Cookie header; an absent header yields
// an empty map.
func (r *Request[Ctx]) Cookies() map[string]string {
	c, _ := r.cookies.get(func() (map[string]string, error) {
		header, _ := r.Headers.Get("Cookie")
		return cookie.Parse(header), nil
	})
	return c
}

// JSON parses the body as JSON. Malformed JSON is the caller's error, not a
// connection failure.
func (r *Request[Ctx]) JSON() (any, error) {
	return r.json.get(func() (any, error) {
		data, err := r.BodyData()
		if err != nil {
			return nil, err
		}
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	})
}

// Form returns the decoded form fields. Urlencoded and multipart bodies are
// decoded; any other content type yields an empty form.
func (r *Request[Ctx]) Form() (url.Values, error) {
	ff, err := r.form.get(r.parseForm)
	return ff.form, err
}

// Files returns the uploaded files of a multipart body.
func (r *Request[Ctx]) Files() ([]*File, error) {
	ff, err := r.form.get(r.parseForm)
	return ff.files, err
}

func (r *Request[Ctx]) parseForm() (formAndFiles, error) {
	empty := formAndFiles{form: url.Values{}}

	ctype, _ := r.Headers.Get("Content-Type")
	switch {
	case ctype == "application/x-www-form-urlencoded":
		data, err := r.BodyData()
		if err != nil {
			return empty, err
		}
		values, _ := url.ParseQuery(string(data))
		return formAndFiles{form: values}, nil

	case strings.HasPrefix(ctype, "multipart/form-data"):
		return r.parseMultipart(ctype)

	default:
		return empty, nil
	}
}

func (r *Request[Ctx]) parseMultipart(ctype string) (formAndFiles, error) {
	empty := formAndFiles{form: url.Values{}}

	_, params, err := mime.ParseMediaType(ctype)
	if err != nil {
		return empty, err
	}
	boundary, ok := params["boundary"]
	if !ok {
		return empty, ErrNoBoundary
	}

	body, err := r.Body()
	if err != nil {
		return empty, err
	}
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return empty, err
	}

	out := formAndFiles{form: url.Values{}}
	mr := multipart.NewReader(body, boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			closeFiles(out.files)
			return empty, err
		}

		if part.FileName() == "" {
			value, err := io.ReadAll(part)
			if err != nil {
				closeFiles(out.files)
				return empty, err
			}
			out.form.Add(part.FormName(), string(value))
			continue
		}

		content := spool.New(r.spoolMax)
		chunk := bufpool.Get()
		_, err = io.CopyBuffer(content, part, chunk)
		bufpool.Put(chunk)
		if err != nil {
			content.Close()
			closeFiles(out.files)
			return empty, err
		}
		if _, err := content.Seek(0, io.SeekStart); err != nil {
			content.Close()
			closeFiles(out.files)
			return empty, err
		}
		out.files = append(out.files, &File{
			Field:    part.FormName(),
			Filename: part.FileName(),
			Content:  content,
		})
	}
}

// Close releases the body spool and any file-part spools. It is safe to call
// on every exit path; views never computed cost nothing.
func (r *Request[Ctx]) Close() error {
	var first error
	if body, ok := r.body.value(); ok && body != nil {
		first = body.Close()
	}
	if ff, ok := r.form.value(); ok {
		for _, f := range ff.files {
			if err := f.Content.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

func closeFiles(files []*File) {
	for _, f := range files {
		f.Content.Close()
	}
}

// lazy memoizes a value computed at most once. Concurrent first access is
// safe: losers of the race block until the winner's result is cached.
type lazy[T any] struct {
	once sync.Once
	done bool
	val  T
	err  error
}

func (l *lazy[T]) get(compute func() (T, error)) (T, error) {
	l.once.Do(func() {
		l.val, l.err = compute()
		l.done = true
	})
	return l.val, l.err
}

// value returns the cached result without triggering computation.
func (l *lazy[T]) value() (T, bool) {
	if !l.done {
		var zero T
		return zero, false
	}
	return l.val, true
}
