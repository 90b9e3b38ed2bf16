package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/julienschmidt/httprouter"

	healthhandler "eventms/internal/health/handler"
	"eventms/pkg/auth"
	"eventms/pkg/config"
	"eventms/pkg/contracts"
	"eventms/pkg/middleware"
)

// Stopper is any background component to halt during graceful shutdown.
type Stopper interface {
	Stop()
}

type Application struct {
	cfg               *config.Config
	server            *http.Server
	idempotencyStore  *middleware.InMemoryIdempotencyStore
	rateLimiter       *middleware.ClientRateLimiter
	stoppers          []Stopper
	healthHandler     http.Handler
	appHttpHandler    http.Handler
	publicHttpHandler http.Handler
}

func NewApplication(cfg *config.Config) *Application {
	return &Application{cfg: cfg}
}

func (a *Application) SetApp(appHandler contracts.Handler, publicHandler contracts.Handler, authenticator auth.Authenticator) {
	a.setHealthHandler()
	a.setAppHandler(appHandler, authenticator)
	if publicHandler != nil {
		a.setPublicHandler(publicHandler)
	}
	a.setAppServer()
}

// OnShutdown registers a component to stop after the HTTP server drains.
func (a *Application) OnShutdown(s Stopper) {
	a.stoppers = append(a.stoppers, s)
}

func (a *Application) setHealthHandler() {
	healthRouter := httprouter.New()
	healthHandler := healthhandler.NewHealthHandler(a.cfg.Client.Mongo, a.cfg.Log)
	healthHandler.RegisterRoutes(healthRouter)

	var healthHTTPHandler http.Handler = healthRouter
	healthHTTPHandler = middleware.RequestLogging(a.cfg.Log)(healthHTTPHandler)
	healthHTTPHandler = middleware.Recovery(a.cfg.Log)(healthHTTPHandler)
	a.healthHandler = healthHTTPHandler
	a.cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
}

func (a *Application) setAppHandler(appHandler contracts.Handler, authenticator auth.Authenticator) {
	appRouter := httprouter.New()
	appHandler.RegisterRoutes(appRouter)

	a.idempotencyStore = middleware.NewInMemoryIdempotencyStore(a.cfg.IdempotencyTTL)
	a.rateLimiter = middleware.NewClientRateLimiter(
		a.cfg.RateLimitRequests,
		a.cfg.RateLimitWindow,
		middleware.DefaultClientExtractor,
		a.cfg.Log,
	)

	var appHttpHandler http.Handler = appRouter
	appHttpHandler = middleware.Idempotency(a.idempotencyStore, "Idempotency-Key")(appHttpHandler)
	appHttpHandler = middleware.RequestTimeout(a.cfg.RequestTimeout)(appHttpHandler)
	appHttpHandler = middleware.ClientRateLimit(a.rateLimiter)(appHttpHandler)
	appHttpHandler = auth.Middleware(authenticator, a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.ContentTypeValidation(a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(appHttpHandler)
	appHttpHandler = middleware.RequestLogging(a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.Recovery(a.cfg.Log)(appHttpHandler)
	a.appHttpHandler = appHttpHandler
	a.cfg.Log.Info("Application endpoints configured with full security middleware stack")
}

// setPublicHandler mounts routes that carry their own credential, such as
// invitation RSVP tokens. Same stack as the app routes minus bearer auth;
// the rate limiter falls back to keying by caller host.
func (a *Application) setPublicHandler(publicHandler contracts.Handler) {
	publicRouter := httprouter.New()
	publicHandler.RegisterRoutes(publicRouter)

	var publicHttpHandler http.Handler = publicRouter
	publicHttpHandler = middleware.RequestTimeout(a.cfg.RequestTimeout)(publicHttpHandler)
	publicHttpHandler = middleware.ClientRateLimit(a.rateLimiter)(publicHttpHandler)
	publicHttpHandler = middleware.ContentTypeValidation(a.cfg.Log)(publicHttpHandler)
	publicHttpHandler = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(publicHttpHandler)
	publicHttpHandler = middleware.RequestLogging(a.cfg.Log)(publicHttpHandler)
	publicHttpHandler = middleware.Recovery(a.cfg.Log)(publicHttpHandler)
	a.publicHttpHandler = publicHttpHandler
	a.cfg.Log.Info("Public endpoints configured without bearer auth")
}

func (a *Application) setAppServer() {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	if a.publicHttpHandler != nil {
		mux.Handle("/api/v1/public/", a.publicHttpHandler)
	}
	mux.Handle("/", a.appHttpHandler)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) Run() {
	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		a.cfg.Log.Fatal("HTTP server failed", "error", err)

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Fatal("Could not stop server gracefully", "error", err)
		}
	}

	a.cfg.Log.Info("Stopping background workers...")
	a.idempotencyStore.Stop()
	a.rateLimiter.Stop()
	for _, s := range a.stoppers {
		s.Stop()
	}
	a.cfg.Log.Info("Background workers stopped")

	a.cfg.Log.Info("Server stopped gracefully")
}
