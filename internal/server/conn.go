package server

import (
	"bufio"
	"errors"
	"io"
	"net"
	"time"

	"github.com/go-kit/log/level"

	"github.com/flinthttp/flint/internal/headers"
	"github.com/flinthttp/flint/internal/request"
	"github.com/flinthttp/flint/internal/response"
	"github.com/flinthttp/flint/internal/status"
)

// serveConn runs the full cycle for one connection: exactly one request,
// one response, then close.
func (s *Server[Ctx]) serveConn(conn net.Conn) {
	defer s.wg.Done()
	defer s.metrics.ActiveConnections.Add(-1)
	defer conn.Close()

	start := time.Now()
	reader := bufio.NewReaderSize(&deadlineReader{conn: conn, timeout: s.cfg.ReadTimeout()}, s.cfg.ReadBufferSize)

	resp, req := s.handle(reader, conn)
	if req != nil {
		// Released only after the response is on the wire: a handler may
		// stream a request-owned spool back as the response body.
		defer req.Close()
	}
	if resp == nil {
		// Timed out or the peer hung up before sending a start line.
		// Nothing sensible to write back.
		return
	}
	defer resp.Close()

	s.metrics.RecordRequest(int(resp.Status), time.Since(start))

	if err := writeResponse(conn, resp, s.cfg.ServerName); err != nil {
		level.Debug(s.logger).Log("msg", "write failed", "err", err)
		return
	}

	method, path := "-", "-"
	if req != nil {
		method, path = req.Method, req.Path
	}
	level.Info(s.logger).Log(
		"method", method,
		"path", path,
		"status", int(resp.Status),
		"duration_ms", time.Since(start).Milliseconds(),
		"remote", conn.RemoteAddr().String(),
	)
}

// handle parses and dispatches one request. A nil response means the
// connection should be dropped without writing anything.
func (s *Server[Ctx]) handle(reader *bufio.Reader, conn net.Conn) (*response.Response, *request.Request[Ctx]) {
	method, path, proto, err := request.ParseStartLine(reader)
	if err != nil {
		switch {
		case errors.Is(err, request.ErrMalformedStartLine):
			return response.Err(status.BadRequest), nil
		case errors.Is(err, request.ErrHeaderTooLarge):
			return response.Err(status.RequestHeaderFieldsTooLarge), nil
		}
		return nil, nil
	}

	// Routing happens right after the start line, before the headers are
	// read, so an unroutable request fails as early as possible.
	match, ok := s.router.Lookup(path, method)
	if !ok {
		drainHead(reader)
		return response.Err(status.NotFound), nil
	}

	block, err := request.ReadHeaderBlock(reader)
	if err != nil {
		if errors.Is(err, request.ErrHeaderTooLarge) {
			return response.Err(status.RequestHeaderFieldsTooLarge), nil
		}
		return nil, nil
	}
	hdrs, err := headers.Parse(block)
	if err != nil {
		return response.Err(status.BadRequest), nil
	}

	req := request.New(reader, conn.RemoteAddr(), method, path, proto, hdrs, match.Params, s.ctx, s.cfg.SpoolThreshold)

	resp, err := s.invoke(Chain(s.middlewares, match.Route.Handler()), req)
	if err != nil {
		if code, ok := status.ErrorCode(err); ok {
			return response.Err(code), req
		}
		level.Error(s.logger).Log("msg", "handler failed", "path", path, "err", err)
		return response.Err(status.InternalServerError), req
	}
	return resp, req
}

// invoke runs the handler with panic recovery. A panicking handler is a 500,
// not a dead server.
func (s *Server[Ctx]) invoke(h Handler[Ctx], req *request.Request[Ctx]) (resp *response.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			level.Error(s.logger).Log("msg", "handler panic", "path", req.Path, "panic", r)
			resp = response.Err(status.InternalServerError)
			err = nil
		}
	}()
	return h(req)
}

// drainHead consumes the header block of a request whose response was
// decided before the headers were read, so the 404 still reaches a client
// that is mid-send.
func drainHead(reader *bufio.Reader) {
	_, _ = request.ReadHeaderBlock(reader)
}

// deadlineReader arms the connection's read deadline before every read, so
// one slow or stalled peer cannot pin a goroutine forever.
type deadlineReader struct {
	conn    net.Conn
	timeout time.Duration
}

func (d *deadlineReader) Read(p []byte) (int, error) {
	if d.timeout > 0 {
		if err := d.conn.SetReadDeadline(time.Now().Add(d.timeout)); err != nil {
			return 0, err
		}
	}
	return d.conn.Read(p)
}

var _ io.Reader = (*deadlineReader)(nil)
