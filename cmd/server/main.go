// @title Simfolio API
// @version 1.0
// @description Month-by-month investment portfolio simulator.
// @BasePath /api
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/simfolio/backend/internal/app"
	"github.com/simfolio/backend/internal/config"
	"github.com/simfolio/backend/internal/logger"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	zl, err := logger.New(cfg.App.Env, cfg.Log.Level)
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer zl.Sync()

	a, err := app.New(cfg, zl)
	if err != nil {
		zl.Fatal("Failed to start", zap.Error(err))
	}
	defer a.Close()

	if err := a.DB.Health(); err != nil {
		zl.Fatal("Database health check failed", zap.Error(err))
	}
	zl.Info("Database connection established", zap.String("driver", a.DB.Driver))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      a.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zl.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zl.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zl.Error("Graceful shutdown failed", zap.Error(err))
	}
}
