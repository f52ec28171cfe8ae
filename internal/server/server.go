// Package server runs the accept loop and the per-connection request cycle:
// parse one request, route it, run the middleware-wrapped handler, write one
// response, close the connection.
package server

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/flinthttp/flint/internal/config"
	"github.com/flinthttp/flint/internal/router"
)

// Hook runs around the server lifecycle with the application context.
type Hook[Ctx any] func(ctx Ctx) error

type Server[Ctx any] struct {
	router      *router.Router[Ctx]
	middlewares []Middleware[Ctx]
	beforeStart Hook[Ctx]
	afterStop   Hook[Ctx]
	ctx         Ctx
	cfg         *config.Config
	logger      log.Logger
	metrics     *Metrics

	mu       sync.Mutex
	listener net.Listener
	closed   atomic.Bool
	shutdown sync.Once
	wg       sync.WaitGroup
}

type Option[Ctx any] func(*Server[Ctx])

// WithMiddlewares sets the global middleware stack. The first middleware is
// the outermost wrapper.
func WithMiddlewares[Ctx any](mws ...Middleware[Ctx]) Option[Ctx] {
	return func(s *Server[Ctx]) { s.middlewares = mws }
}

// WithBeforeStart runs hook before the listener is opened.
func WithBeforeStart[Ctx any](hook Hook[Ctx]) Option[Ctx] {
	return func(s *Server[Ctx]) { s.beforeStart = hook }
}

// WithAfterStop runs hook after the last connection has drained.
func WithAfterStop[Ctx any](hook Hook[Ctx]) Option[Ctx] {
	return func(s *Server[Ctx]) { s.afterStop = hook }
}

func WithLogger[Ctx any](logger log.Logger) Option[Ctx] {
	return func(s *Server[Ctx]) { s.logger = logger }
}

func WithConfig[Ctx any](cfg *config.Config) Option[Ctx] {
	return func(s *Server[Ctx]) { s.cfg = cfg }
}

// New builds a server over the route table. ctx is the application context
// handed to every request and to the lifecycle hooks.
func New[Ctx any](r *router.Router[Ctx], ctx Ctx, opts ...Option[Ctx]) *Server[Ctx] {
	s := &Server[Ctx]{
		router:  r,
		ctx:     ctx,
		cfg:     config.Default(),
		logger:  log.NewNopLogger(),
		metrics: NewMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run opens the listener and serves until Close or SIGINT. It returns after
// every in-flight connection has finished and the after-stop hook has run.
// Port 0 binds an ephemeral port; Addr reports the bound address.
func (s *Server[Ctx]) Run(host string, port int) error {
	if s.beforeStart != nil {
		if err := s.beforeStart(s.ctx); err != nil {
			return fmt.Errorf("before-start hook: %w", err)
		}
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	sigDone := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
			level.Info(s.logger).Log("msg", "interrupt received, shutting down")
			s.Close()
		case <-sigDone:
		}
	}()

	level.Info(s.logger).Log("msg", "listening", "addr", listener.Addr().String())

	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.closed.Load() {
				break
			}
			level.Warn(s.logger).Log("msg", "accept failed", "err", err)
			continue
		}

		s.wg.Add(1)
		s.metrics.ActiveConnections.Add(1)
		go s.serveConn(conn)
	}

	s.wg.Wait()
	signal.Stop(sigCh)
	close(sigDone)

	if s.afterStop != nil {
		if err := s.afterStop(s.ctx); err != nil {
			return fmt.Errorf("after-stop hook: %w", err)
		}
	}
	return nil
}

// Close stops accepting connections. Safe to call more than once and from
// any goroutine; Run keeps serving connections already accepted.
func (s *Server[Ctx]) Close() {
	s.shutdown.Do(func() {
		s.closed.Store(true)
		s.mu.Lock()
		if s.listener != nil {
			s.listener.Close()
		}
		s.mu.Unlock()
	})
}

// Addr returns the bound listen address, or nil before Run has opened it.
func (s *Server[Ctx]) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Metrics exposes the server counters, for a metrics endpoint.
func (s *Server[Ctx]) Metrics() *Metrics {
	return s.metrics
}
