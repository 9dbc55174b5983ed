// Package http is the browser-facing side of the wallet: server-rendered
// pages backed by one store per logged-in session.
package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"wallet/internal/apiclient"
	"wallet/internal/forms"
	"wallet/internal/core"
	"wallet/internal/log"
	"wallet/internal/metrics"
	"wallet/internal/middleware/ratelimit"
	"wallet/internal/middleware/security"
	"wallet/internal/middleware/trace"
	"wallet/internal/session"
	"wallet/internal/table"
	appweb "wallet/web"
)

// API is the part of the remote wallet API used directly by handlers;
// transaction data goes through each session's store.
type API interface {
	Login(ctx context.Context, email, password string) (apiclient.LoginResult, error)
	Logout(ctx context.Context) error
	CreateCategory(ctx context.Context, cat core.Category) (core.Category, error)
}

// Options wires a Server. API and Sessions are required.
type Options struct {
	Addr               string
	API                API
	Sessions           *session.Manager
	Forms              *forms.Flow
	Logger             *log.Logger
	Metrics            metrics.Recorder
	MetricsHandler     http.Handler
	RateLimitPerMinute int
	DefaultPageSize    int
	CookieSecure       bool
}

type Server struct {
	http.Server
	templates       *template.Template
	api             API
	sessions        *session.Manager
	forms           *forms.Flow
	logger          *log.Logger
	metrics         metrics.Recorder
	detector        *security.Detector
	rateLimiter     *ratelimit.Limiter
	cookieSecure    bool
	defaultPageSize int
	started         time.Time
	shutdownOnce    sync.Once
}

// NewServer parses the embedded templates and registers all routes.
func NewServer(opts Options) (*Server, error) {
	if opts.API == nil || opts.Sessions == nil {
		return nil, fmt.Errorf("http server: API and Sessions are required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop{}
	}
	if opts.Forms == nil {
		opts.Forms = forms.New(forms.WithLogger(opts.Logger))
	}
	if opts.DefaultPageSize == 0 {
		opts.DefaultPageSize = table.DefaultPageSizeOptions[0]
	}

	tmpl, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	logger := opts.Logger.WithComponent(log.ComponentHTTP)
	s := &Server{
		templates:       tmpl,
		api:             opts.API,
		sessions:        opts.Sessions,
		forms:           opts.Forms,
		logger:          logger,
		metrics:         opts.Metrics,
		detector:        security.NewDetector(opts.Logger, opts.Metrics),
		rateLimiter:     ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		cookieSecure:    opts.CookieSecure,
		defaultPageSize: opts.DefaultPageSize,
		started:         time.Now(),
	}

	mux := http.NewServeMux()

	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(static)))))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if opts.MetricsHandler != nil {
		mux.Handle("GET /metrics", opts.MetricsHandler)
	}

	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)

	authed := func(h http.HandlerFunc) http.Handler {
		return security.NoStore(s.requireSession(h))
	}
	mux.Handle("GET /{$}", authed(s.handleIndex))
	mux.Handle("GET /logout", authed(s.handleLogoutPage))
	mux.Handle("POST /logout", authed(s.handleLogout))
	mux.Handle("GET /transactions/new", authed(s.handleNewTransaction))
	mux.Handle("POST /transactions", authed(s.handleCreateTransaction))
	mux.Handle("GET /transactions/{id}/edit", authed(s.handleEditTransaction))
	mux.Handle("POST /transactions/{id}", authed(s.handleUpdateTransaction))
	mux.Handle("POST /transactions/{id}/delete", authed(s.handleDeleteTransaction))
	mux.Handle("GET /categories/new", authed(s.handleNewCategory))
	mux.Handle("POST /categories", authed(s.handleCreateCategory))

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(s.detector.ClientIP, opts.Logger, opts.Metrics)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.detector.Middleware(handler)
	handler = trace.NewMiddleware(opts.Logger, opts.Metrics, s.detector.ClientIP).Middleware(handler)
	handler = log.Middleware(opts.Logger)(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
