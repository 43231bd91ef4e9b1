// cmd/auth-gateway/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pubauth/internal/publicapi"
	"pubauth/pkg/authenticate/public"
	"pubauth/pkg/config"
	"pubauth/pkg/logger"
	"pubauth/pkg/middleware"
	"pubauth/pkg/verifier"
)

func main() {
	// 1. Load configuration & initialize structured logger.
	cfg := config.Load()
	appLog := logger.New(cfg.Env, cfg.LogLevel)
	defer func() { _ = appLog.Sync() }()

	// 2. Resolve future flags once; a bad source leaves every flag off.
	futureFlags, err := cfg.LoadFlags()
	if err != nil {
		appLog.Warnw("future flags not loaded, using defaults", "err", err)
	}

	// 3. Build the public facade over the remote verifier.
	verify := verifier.New(cfg.VerifierURL, cfg.VerifierTimeout, appLog.Named("verifier"))
	facade, err := public.New(futureFlags, verify.Collaborators(),
		public.WithLogger(appLog.Named("public")),
		public.WithMetrics(prometheus.DefaultRegisterer),
	)
	if err != nil {
		appLog.Fatalw("public facade", "err", err)
	}

	// 4. Build HTTP router and register middlewares.
	router := chi.NewRouter()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recover(appLog))
	router.Use(middleware.Metrics(prometheus.DefaultRegisterer))
	router.Use(middleware.Tracing("pubauth-gateway", appLog))

	// 5. Basic operational endpoints.
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	router.Get("/metrics", promhttp.Handler().ServeHTTP)

	// 6. Public authentication routes.
	publicapi.RegisterRoutes(router, appLog, facade)

	// 7. Configure and start HTTP server asynchronously.
	httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		appLog.Infow("auth-gateway listening", "addr", cfg.HTTPAddr, "shape", facade.Shape().String())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatalw("ListenAndServe", "err", err)
		}
	}()

	// 8. Wait for termination signal (SIGINT/SIGTERM) to begin graceful shutdown.
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)
	<-stopCh

	// 9. Graceful shutdown with timeout.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
	_ = middleware.ShutdownTracing(ctx)
	fmt.Println("auth-gateway stopped")
}
