package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"oltmap/internal"
	"oltmap/internal/api"
	"oltmap/internal/config"
	"oltmap/internal/container"
)

func main() {
	logger := internal.NewDefaultLogger()

	appConfig, err := config.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}
	logger = internal.NewLogger(os.Stdout, appConfig.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.New(appConfig, logger)
	if err != nil {
		logger.Error("create container", "error", err)
		os.Exit(1)
	}
	if err := appContainer.Init(ctx); err != nil {
		logger.Error("initialize container", "error", err)
		os.Exit(1)
	}
	defer appContainer.Shutdown(context.Background())

	if err := appContainer.Migrate(ctx); err != nil {
		logger.Error("run migrations", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              appConfig.Server.Addr,
		Handler:           api.NewServer(appContainer),
		ReadHeaderTimeout: appConfig.Server.ReadHeaderTimeout,
		WriteTimeout:      appConfig.Server.WriteTimeout,
	}

	go func() {
		logger.Info("api_started", "addr", appConfig.Server.Addr, "storage", appConfig.Storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("api_stopped")
}
