// Command flintd is the demo application: one instance of every route and
// middleware shape the engine supports, backed by an in-memory context.
package main

import (
	"flag"
	"fmt"
	"os"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/flinthttp/flint/internal/config"
	"github.com/flinthttp/flint/internal/logging"
	"github.com/flinthttp/flint/internal/request"
	"github.com/flinthttp/flint/internal/response"
	"github.com/flinthttp/flint/internal/router"
	"github.com/flinthttp/flint/internal/server"
	"github.com/flinthttp/flint/internal/status"
)

// App is the application context threaded through every request.
type App struct {
	DB    *fakeDB
	Cache *fakeCache
}

// fakeDB stands in for a real database connection pool.
type fakeDB struct {
	connected bool
}

func (db *fakeDB) Connect() error    { db.connected = true; return nil }
func (db *fakeDB) Disconnect() error { db.connected = false; return nil }

// fakeCache is a process-local key-value store.
type fakeCache struct {
	mu    sync.Mutex
	items map[string]string
}

func (c *fakeCache) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil {
		c.items = make(map[string]string)
	}
	c.items[key] = value
}

func (c *fakeCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	staticDir := flag.String("static", ".", "directory served under /static")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}

	logger := logging.New(os.Stderr, cfg.LogLevel)

	app := &App{DB: &fakeDB{}, Cache: &fakeCache{}}

	r := router.New[*App]()
	must(r.Handle("/html_handler", htmlHandler))
	must(r.Handle("/text_handler", textHandler))
	must(r.Handle("/json_handler", jsonHandler, "POST"))
	must(r.Handle("/redirect_handler", redirectHandler))
	must(r.Handle("/cookies_handler", cookiesHandler))
	must(r.Handle("/query_params_handler", queryParamsHandler))
	must(r.Handle("/person/:person/item/:item", pathParamsHandler))
	must(r.Handle("/form_urlencoded_handler", formHandler, "POST"))
	must(r.Handle("/multipart_form_handler", multipartHandler, "POST"))
	must(r.Handle("/file_handler", fileHandler))
	must(r.Handle("/cache/:key", cacheGetHandler))
	must(r.Handle("/cache/:key", cachePutHandler, "PUT"))
	must(r.Handle("/sensitive_data_handler",
		server.Wrap(sensitiveHandler, server.BasicAuth[*App]("aladdin", "opensesame"))))

	static, err := router.NewFileSystem[*App](*staticDir, "/static")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	must(r.Add(static))

	s := server.New(r, app,
		server.WithConfig[*App](cfg),
		server.WithLogger[*App](logger),
		server.WithMiddlewares(
			tagMiddleware(logger, "outer"),
			tagMiddleware(logger, "inner"),
			server.RequestID[*App](),
			server.Logging[*App](logger),
		),
		server.WithBeforeStart[*App](func(app *App) error {
			level.Info(logger).Log("msg", "connecting db")
			return app.DB.Connect()
		}),
		server.WithAfterStop[*App](func(app *App) error {
			level.Info(logger).Log("msg", "disconnecting db")
			return app.DB.Disconnect()
		}),
	)

	must(r.Handle("/metrics", func(req *request.Request[*App]) (*response.Response, error) {
		return response.JSON(s.Metrics().Snapshot())
	}))

	if err := s.Run(cfg.Host, cfg.Port); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// tagMiddleware logs entry and exit around the rest of the stack, making
// the composition order visible in the debug log.
func tagMiddleware(logger log.Logger, name string) server.Middleware[*App] {
	return func(next server.Handler[*App]) server.Handler[*App] {
		return func(req *request.Request[*App]) (*response.Response, error) {
			level.Debug(logger).Log("middleware", name, "phase", "enter", "path", req.Path)
			resp, err := next(req)
			level.Debug(logger).Log("middleware", name, "phase", "exit", "path", req.Path)
			return resp, err
		}
	}
}

func must(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func htmlHandler(req *request.Request[*App]) (*response.Response, error) {
	return response.HTML("<html><body><h1>Hello from flint</h1></body></html>"), nil
}

func textHandler(req *request.Request[*App]) (*response.Response, error) {
	return response.Text("hello world"), nil
}

// jsonHandler echoes the decoded request body back as JSON.
func jsonHandler(req *request.Request[*App]) (*response.Response, error) {
	payload, err := req.JSON()
	if err != nil {
		return nil, err
	}
	return response.JSON(map[string]any{"received": payload})
}

func redirectHandler(req *request.Request[*App]) (*response.Response, error) {
	return response.Redirect("/html_handler"), nil
}

func cookiesHandler(req *request.Request[*App]) (*response.Response, error) {
	resp, err := response.JSON(req.Cookies())
	if err != nil {
		return nil, err
	}
	resp.SetCookie("visited", "true")
	return resp, nil
}

func queryParamsHandler(req *request.Request[*App]) (*response.Response, error) {
	return response.JSON(req.Query())
}

func pathParamsHandler(req *request.Request[*App]) (*response.Response, error) {
	return response.JSON(map[string]string{
		"person": req.PathParams["person"],
		"item":   req.PathParams["item"],
	})
}

func formHandler(req *request.Request[*App]) (*response.Response, error) {
	form, err := req.Form()
	if err != nil {
		return nil, err
	}
	return response.JSON(form)
}

func multipartHandler(req *request.Request[*App]) (*response.Response, error) {
	form, err := req.Form()
	if err != nil {
		return nil, err
	}
	files, err := req.Files()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Filename)
	}
	return response.JSON(map[string]any{"fields": form, "files": names})
}

func fileHandler(req *request.Request[*App]) (*response.Response, error) {
	return response.File("README.md", "read me.md")
}

func cacheGetHandler(req *request.Request[*App]) (*response.Response, error) {
	value, ok := req.Ctx.Cache.Get(req.PathParams["key"])
	if !ok {
		return nil, status.NewError(status.NotFound)
	}
	return response.Text(value), nil
}

func cachePutHandler(req *request.Request[*App]) (*response.Response, error) {
	body, err := req.BodyData()
	if err != nil {
		return nil, err
	}
	req.Ctx.Cache.Set(req.PathParams["key"], string(body))
	return response.Text("stored"), nil
}

func sensitiveHandler(req *request.Request[*App]) (*response.Response, error) {
	return response.Text("the launch codes"), nil
}
