package router

import (
	"fmt"
	"strings"
)

// Router holds an ordered, deduplicated route table. Routes are tested in
// registration order and the first structural match wins, so overlapping
// patterns resolve to whichever was added first. The table is expected to
// be immutable once the server starts accepting connections.
type Router[Ctx any] struct {
	routes []Route[Ctx]
	keys   map[string]bool
}

func New[Ctx any]() *Router[Ctx] {
	return &Router[Ctx]{
		keys: make(map[string]bool),
	}
}

// Add registers a route. The combination of normalized pattern and sorted
// method set must be unique; a duplicate is a configuration error.
func (r *Router[Ctx]) Add(route Route[Ctx]) error {
	key := dedupKey(route.Pattern(), route.Methods())
	if r.keys[key] {
		return fmt.Errorf("duplicate route: %s", key)
	}
	r.keys[key] = true
	r.routes = append(r.routes, route)
	return nil
}

// Handle builds a route from the pattern (exact, or parameterized when the
// pattern contains a ":name" segment) and registers it.
func (r *Router[Ctx]) Handle(pattern string, handler Handler[Ctx], methods ...string) error {
	route, err := NewRoute(pattern, handler, methods...)
	if err != nil {
		return err
	}
	return r.Add(route)
}

// Match is the owned result of a successful lookup: the route plus the path
// parameters bound for this request alone.
type Match[Ctx any] struct {
	Route  Route[Ctx]
	Params Params
}

// Lookup normalizes the path and returns the first route whose predicate
// succeeds, or false when nothing matches.
func (r *Router[Ctx]) Lookup(path, method string) (*Match[Ctx], bool) {
	path = Normalize(path)
	for _, route := range r.routes {
		if params, ok := route.match(path, method); ok {
			return &Match[Ctx]{Route: route, Params: params}, true
		}
	}
	return nil, false
}

// Normalize discards the query and fragment components and strips a
// trailing slash, mirroring how patterns are prepared at registration.
func Normalize(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}
	if idx := strings.IndexByte(path, '#'); idx != -1 {
		path = path[:idx]
	}
	return strings.TrimRight(path, "/")
}
