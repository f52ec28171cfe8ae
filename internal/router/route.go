package router

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/flinthttp/flint/internal/request"
	"github.com/flinthttp/flint/internal/response"
	"github.com/flinthttp/flint/internal/status"
)

// Handler turns a request into a response. Returning a *status.Error
// produces the response for that status code; any other error produces a
// 500.
type Handler[Ctx any] func(*request.Request[Ctx]) (*response.Response, error)

// Params are the path parameters bound by a parameterized route, owned by
// the request they were extracted for.
type Params map[string]string

// Route is one entry of the route table. The three implementations share
// the matching contract: exact patterns, parameterized patterns with :name
// segments, and filesystem prefix routes.
type Route[Ctx any] interface {
	Pattern() string
	Methods() []string
	Handler() Handler[Ctx]

	// match reports whether the normalized path and method satisfy this
	// route. The returned params are a fresh map per call; shared route
	// state is never written at request time.
	match(path, method string) (Params, bool)
}

// NewRoute builds an exact or parameterized route from a pattern; a pattern
// containing a ":name" segment is parameterized. Methods default to GET.
// Invalid patterns and unknown methods are configuration errors.
func NewRoute[Ctx any](pattern string, handler Handler[Ctx], methods ...string) (Route[Ctx], error) {
	pattern, err := validatePattern(pattern)
	if err != nil {
		return nil, err
	}
	methods, err = validateMethods(methods)
	if err != nil {
		return nil, err
	}

	if HasParams(pattern) {
		return &paramRoute[Ctx]{pattern: pattern, methods: methods, handler: handler}, nil
	}
	return &exactRoute[Ctx]{pattern: pattern, methods: methods, handler: handler}, nil
}

// HasParams reports whether a pattern contains a path-parameter segment.
func HasParams(pattern string) bool {
	return strings.Contains(pattern, "/:")
}

// exactRoute matches a literal path, like "/simple/path".
type exactRoute[Ctx any] struct {
	pattern string
	methods []string
	handler Handler[Ctx]
}

func (r *exactRoute[Ctx]) Pattern() string       { return r.pattern }
func (r *exactRoute[Ctx]) Methods() []string     { return r.methods }
func (r *exactRoute[Ctx]) Handler() Handler[Ctx] { return r.handler }

func (r *exactRoute[Ctx]) match(path, method string) (Params, bool) {
	if r.pattern != path || !methodAllowed(r.methods, method) {
		return nil, false
	}
	return Params{}, true
}

// paramRoute matches a template with named segments, like
// "/person/:person/item/:item".
type paramRoute[Ctx any] struct {
	pattern string
	methods []string
	handler Handler[Ctx]
}

func (r *paramRoute[Ctx]) Pattern() string       { return r.pattern }
func (r *paramRoute[Ctx]) Methods() []string     { return r.methods }
func (r *paramRoute[Ctx]) Handler() Handler[Ctx] { return r.handler }

func (r *paramRoute[Ctx]) match(path, method string) (Params, bool) {
	if !methodAllowed(r.methods, method) {
		return nil, false
	}
	return extractParams(r.pattern, path)
}

// extractParams binds :name segments positionally. The pattern and path
// must have the same segment count; literal segments must match exactly.
func extractParams(pattern, path string) (Params, bool) {
	patternParts := strings.Split(pattern, "/")
	pathParts := strings.Split(path, "/")

	if len(patternParts) != len(pathParts) {
		return nil, false
	}

	params := Params{}
	for i, part := range patternParts {
		if strings.HasPrefix(part, ":") {
			params[part[1:]] = pathParts[i]
			continue
		}
		if part != pathParts[i] {
			return nil, false
		}
	}
	return params, true
}

// fsRoute serves a directory tree under a fixed path prefix, GET only.
type fsRoute[Ctx any] struct {
	pattern string
	root    string
	handler Handler[Ctx]
}

// NewFileSystem builds a route serving files from dir for GET requests
// whose path starts with pattern. A missing or unreadable directory is a
// configuration error.
func NewFileSystem[Ctx any](dir, pattern string) (Route[Ctx], error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}
	if fh, err := os.Open(root); err != nil {
		return nil, fmt.Errorf("directory is not readable: %s", dir)
	} else {
		fh.Close()
	}

	pattern, err = validatePattern(pattern)
	if err != nil {
		return nil, err
	}

	r := &fsRoute[Ctx]{pattern: pattern, root: root}
	r.handler = r.serve
	return r, nil
}

func (r *fsRoute[Ctx]) Pattern() string       { return r.pattern }
func (r *fsRoute[Ctx]) Methods() []string     { return []string{"GET"} }
func (r *fsRoute[Ctx]) Handler() Handler[Ctx] { return r.handler }

func (r *fsRoute[Ctx]) match(path, method string) (Params, bool) {
	if method != "GET" || !strings.HasPrefix(path, r.pattern) {
		return nil, false
	}
	return Params{}, true
}

// serve resolves the remainder of the request path under the route's root
// and streams the file. Paths escaping the root and absent or unreadable
// files are a 404.
func (r *fsRoute[Ctx]) serve(req *request.Request[Ctx]) (*response.Response, error) {
	path := Normalize(req.Path)
	rel := strings.TrimPrefix(path, r.pattern)
	full := filepath.Join(r.root, filepath.FromSlash(rel))

	if full != r.root && !strings.HasPrefix(full, r.root+string(filepath.Separator)) {
		return nil, status.NewError(status.NotFound)
	}

	return response.File(full, "")
}

var knownMethods = map[string]bool{
	"CONNECT": true,
	"DELETE":  true,
	"GET":     true,
	"HEAD":    true,
	"OPTIONS": true,
	"PATCH":   true,
	"POST":    true,
	"PUT":     true,
	"TRACE":   true,
}

func validateMethods(methods []string) ([]string, error) {
	if len(methods) == 0 {
		return []string{"GET"}, nil
	}
	for _, m := range methods {
		if !knownMethods[m] {
			return nil, fmt.Errorf("invalid method: %s", m)
		}
	}
	return methods, nil
}

func validatePattern(pattern string) (string, error) {
	prepared := strings.TrimRight(pattern, "/")
	if !strings.HasPrefix(prepared, "/") {
		return "", fmt.Errorf("invalid pattern: %s", pattern)
	}
	return prepared, nil
}

func methodAllowed(methods []string, method string) bool {
	for _, m := range methods {
		if m == method {
			return true
		}
	}
	return false
}

func dedupKey(pattern string, methods []string) string {
	uniq := make([]string, 0, len(methods))
	seen := make(map[string]bool, len(methods))
	for _, m := range methods {
		if !seen[m] {
			seen[m] = true
			uniq = append(uniq, m)
		}
	}
	sort.Strings(uniq)
	return strings.Join(append([]string{pattern}, uniq...), "-")
}
