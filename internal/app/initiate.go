package app

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/tclzcja/apiserver/internal/pkg/pkgauth"
	"github.com/tclzcja/apiserver/internal/pkg/pkgconfig"
	"github.com/tclzcja/apiserver/internal/pkg/pkglog"
	"github.com/tclzcja/apiserver/internal/pkg/pkgrouter"
	"github.com/tclzcja/apiserver/internal/pkg/pkgroutine"
	"github.com/tclzcja/apiserver/internal/pkg/pkguid"
)

func configPath() string {
	if path := os.Getenv(pkgconfig.EnvPrefix + "_CONFIG"); path != "" {
		return path
	}
	if os.Getenv("LOCAL") == "true" {
		return "./config/config.yaml"
	}
	return "/config/config.yaml"
}

func (a *App) initConfig() error {
	pkglog.InitLogging(pkglog.Options{
		Level:   a.config.GetString("log.level"),
		Service: a.config.GetString("app.name"),
	})

	if tz := a.config.GetString("tz"); tz != "" {
		//nolint:errcheck,gosec // ignore error
		os.Setenv("TZ", tz)
	}

	server, err := pkgconfig.LoadServerSettings(a.config)
	if err != nil {
		return err
	}
	auth, err := pkgconfig.LoadAuthSettings(a.config)
	if err != nil {
		return err
	}

	a.server = server
	a.auth = auth

	return nil
}

func (a *App) initLibraries() error {
	a.goroutine = pkgroutine.NewManager(int(a.config.GetInt("goroutine.max")))
	a.uuid = pkguid.NewUUID()

	a.requestID = a.uuid
	if a.server.RequestID == "snowflake" {
		sf, err := pkguid.NewSnowflake(a.server.SnowflakeNode)
		if err != nil {
			return err
		}
		a.requestID = sf.Strings()
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if a.auth.Enabled() {
		jwt, err := pkgauth.NewJWT(a.auth.Secret, a.auth.TokenLifetime)
		if err != nil {
			return err
		}
		a.jwt = jwt
		a.credentials = pkgauth.NewCredentials(a.auth.Users)
	}

	return nil
}

func (a *App) initHTTPServer() error {
	opts := pkgrouter.Options{
		APIPrefix:          a.server.APIPrefix,
		MaxMultipartMemory: a.server.MaxMultipartMemory,
		IDGenerator:        a.requestID,
		Metrics:            pkgrouter.NewMetrics(a.config.GetString("app.name"), a.registry),
	}
	opts.DefaultHeaders = pkgrouter.DefaultHeaders()
	if len(a.server.DefaultHeaders) > 0 {
		opts.DefaultHeaders = pkgrouter.HeadersFromMap(a.server.DefaultHeaders)
	}
	if a.server.StrictCORS {
		opts.DefaultHeaders = pkgrouter.WithoutCORSHeaders(opts.DefaultHeaders)
	}
	if a.jwt != nil {
		opts.AuthVerify = a.jwt.Verify
		opts.AuthSign = a.jwt.Sign
	}
	a.router = pkgrouter.NewRouter(opts)

	// The mux only owns operational endpoints; every other request falls
	// through to the dispatcher untouched.
	a.mux = httprouter.New()
	a.mux.RedirectTrailingSlash = false
	a.mux.RedirectFixedPath = false
	a.mux.HandleMethodNotAllowed = false
	a.mux.HandleOPTIONS = false
	a.mux.NotFound = a.router

	if a.server.HealthPath != "" {
		a.mux.GET(a.server.HealthPath, a.health)
	}
	if a.server.MetricsPath != "" {
		a.mux.Handler(http.MethodGet, a.server.MetricsPath, promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	}

	handler := http.Handler(a.mux)
	if a.server.StrictCORS {
		corsHandler := cors.New(cors.Options{
			AllowedOrigins: a.server.AllowedOrigins,
			AllowedMethods: []string{
				http.MethodGet,
				http.MethodPost,
				http.MethodPut,
				http.MethodPatch,
				http.MethodDelete,
				http.MethodOptions,
			},
			AllowedHeaders:     []string{"*"},
			ExposedHeaders:     []string{"Authorization", pkgrouter.HeaderCorrelationID},
			AllowCredentials:   true,
			OptionsPassthrough: true,
		})
		handler = corsHandler.Handler(handler)
	}

	a.httpServer = &http.Server{
		Addr:              a.server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: a.server.ReadHeaderTimeout,
	}

	return nil
}

func (a *App) health(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", pkgrouter.ContentTypeJSON)
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck,gosec // ignore error
	json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"routes": len(a.router.Routes()),
	})
}

func (a *App) initClosers() error {
	if a.closerFn == nil {
		a.closerFn = map[string]func(context.Context) error{}
	}

	a.closerFn["Config"] = func(context.Context) error {
		return a.config.Close()
	}

	return nil
}
