package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pro-connect/backend/internal/router"
	"github.com/pro-connect/backend/pkg/config"
	"github.com/pro-connect/backend/pkg/firebase"
	"github.com/pro-connect/backend/validators"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Error("failed to initialize databases", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.CloseDB()

	// The server runs without Firebase; social login and device push are
	// disabled until credentials are provided.
	firebaseApp, err := firebase.InitFirebase(context.Background(), cfg.FirebaseCredentialsPath)
	if err != nil {
		logger.Warn("firebase unavailable, social login and push disabled", slog.String("error", err.Error()))
		firebaseApp = nil
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	config.SetupMiddleware(e, logger)

	hub, err := router.SetupRoutes(e, db, firebaseApp, cfg, logger)
	if err != nil {
		logger.Error("failed to set up routes", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := hub.Start(); err != nil {
		logger.Error("failed to start websocket hub", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer hub.Stop()

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", slog.String("error", err.Error()))
		}
	}()
	logger.Info("server started", slog.String("port", cfg.Port), slog.String("env", cfg.Env))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.String("error", err.Error()))
	}
}
