package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tclzcja/apiserver/internal/pkg/pkgauth"
	"github.com/tclzcja/apiserver/internal/pkg/pkgconfig"
	"github.com/tclzcja/apiserver/internal/pkg/pkglog"
	"github.com/tclzcja/apiserver/internal/pkg/pkgrouter"
	"github.com/tclzcja/apiserver/internal/pkg/pkgroutine"
	"github.com/tclzcja/apiserver/internal/pkg/pkguid"
)

type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config pkgconfig.Config
	server pkgconfig.ServerSettings
	auth   pkgconfig.AuthSettings

	// libraries
	uuid        pkguid.StringID
	requestID   pkguid.StringID
	goroutine   *pkgroutine.Manager
	registry    *prometheus.Registry
	jwt         *pkgauth.JWT
	credentials *pkgauth.Credentials

	// server
	router     *pkgrouter.Router
	mux        *httprouter.Router
	httpServer *http.Server

	// shutdown
	closerFn map[string]func(context.Context) error
}

func New() *App {
	pkglog.InitLogging(pkglog.Options{})

	cfg, err := pkgconfig.NewViper(configPath())
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	app, err := newApp(cfg)
	if err != nil {
		slog.Error("failed to init application", "error", err)
		os.Exit(1)
	}

	return app
}

func newApp(cfg pkgconfig.Config) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
		config: cfg,
	}

	steps := []func() error{
		app.initConfig,
		app.initLibraries,
		app.initHTTPServer,
		app.initModules,
		app.initClosers,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			cancel()
			return nil, err
		}
	}

	for _, rt := range app.router.Routes() {
		slog.Info("route registered", "method", rt.Method, "key", rt.Key, "prefix", app.server.APIPrefix)
	}

	return app, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}
