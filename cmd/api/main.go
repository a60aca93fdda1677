// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httpin "invoicer/internal/adapters/in/http"
	appcfg "invoicer/internal/infra/config"
	"invoicer/internal/infra/logger"
	"invoicer/internal/platform/di"
)

func main() {
	ctx := context.Background()
	cfg := appcfg.Load()

	log, err := logger.New(logger.Config{ServiceName: "invoicer-api", Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	// /healthz answers even when the container fails to build
	var handler http.Handler
	cont, err := di.NewContainer(ctx, cfg, log)
	if err != nil {
		log.Warn("[boot] di init failed, serving /healthz only", zap.Error(err))
		handler = httpin.NewRouter(httpin.RouterDeps{CORSAllowedOrigin: cfg.CORSAllowedOrigin, Logger: log})
	} else {
		defer cont.Close()
		handler = httpin.NewRouter(cont.RouterDeps())
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		sig := <-c
		log.Info("[boot] received signal, shutting down", zap.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("[boot] server shutdown error", zap.Error(err))
		}
		close(idleConnsClosed)
	}()

	log.Info("[boot] listening", zap.String("port", cfg.Port), zap.String("auth_mode", cfg.AuthMode))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("[boot] server error", zap.Error(err))
	}

	<-idleConnsClosed
	log.Info("[boot] server stopped")
}
