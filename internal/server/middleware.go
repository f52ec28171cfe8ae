package server

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/dchest/uniuri"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/flinthttp/flint/internal/request"
	"github.com/flinthttp/flint/internal/response"
	"github.com/flinthttp/flint/internal/router"
	"github.com/flinthttp/flint/internal/status"
)

// Handler is the server-side name for a route handler.
type Handler[Ctx any] = router.Handler[Ctx]

// Middleware wraps a handler. In a stack the first middleware is the
// outermost: it sees the request first and the response last.
type Middleware[Ctx any] func(Handler[Ctx]) Handler[Ctx]

// Chain composes the stack around h, first middleware outermost.
func Chain[Ctx any](mws []Middleware[Ctx], h Handler[Ctx]) Handler[Ctx] {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Logging emits one line per handled request.
func Logging[Ctx any](logger log.Logger) Middleware[Ctx] {
	return func(next Handler[Ctx]) Handler[Ctx] {
		return func(req *request.Request[Ctx]) (*response.Response, error) {
			start := time.Now()
			resp, err := next(req)

			code := 0
			if resp != nil {
				code = int(resp.Status)
			}
			level.Debug(logger).Log(
				"msg", "handler done",
				"method", req.Method,
				"path", req.Path,
				"status", code,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return resp, err
		}
	}
}

// RequestID tags every successful response with a random X-Request-ID.
func RequestID[Ctx any]() Middleware[Ctx] {
	return func(next Handler[Ctx]) Handler[Ctx] {
		return func(req *request.Request[Ctx]) (*response.Response, error) {
			resp, err := next(req)
			if resp != nil {
				resp.Headers.Set("X-Request-ID", uniuri.New())
			}
			return resp, err
		}
	}
}

// BasicAuth rejects requests whose Authorization header does not carry the
// expected Basic credentials.
func BasicAuth[Ctx any](username, password string) Middleware[Ctx] {
	expected := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return func(next Handler[Ctx]) Handler[Ctx] {
		return func(req *request.Request[Ctx]) (*response.Response, error) {
			auth, ok := req.Headers.Get("Authorization")
			if !ok {
				return nil, status.NewError(status.Unauthorized)
			}
			scheme, creds, found := strings.Cut(auth, " ")
			if !found || scheme != "Basic" || creds != expected {
				return nil, status.NewError(status.Unauthorized)
			}
			return next(req)
		}
	}
}

// Wrap applies middlewares to a single handler at registration time, for
// routes that need protection the global stack does not provide.
func Wrap[Ctx any](h Handler[Ctx], mws ...Middleware[Ctx]) Handler[Ctx] {
	return Chain(mws, h)
}
