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

	"github.com/zappabad/stockdesk/internal/config"
	"github.com/zappabad/stockdesk/internal/devserver"
	"github.com/zappabad/stockdesk/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, cfg.Log.Level)
	slog.SetDefault(logger)

	// Create context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	devCfg := devserver.DefaultConfig()
	devCfg.JWTSecret = cfg.Dev.JWTSecret
	devCfg.TokenTTL = cfg.Dev.TokenTTL
	srv := devserver.New(devCfg)

	seedAccounts(logger, srv)
	seedNews(srv)

	httpSrv := &http.Server{
		Addr:              cfg.Dev.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "err", err)
		}
	}()

	logger.Info("dev server listening", "addr", cfg.Dev.Addr)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("serve", "err", err)
		os.Exit(1)
	}
}

func seedAccounts(logger *slog.Logger, srv *devserver.Server) {
	accounts := []struct{ email, password, role string }{
		{"admin@stockdesk.local", "admin", "admin"},
		{"trader@stockdesk.local", "trader", "user"},
	}
	for _, a := range accounts {
		if _, err := srv.SeedUser(a.email, a.password, a.role); err != nil {
			logger.Warn("seed account", "email", a.email, "err", err)
			continue
		}
		logger.Info("seeded account", "email", a.email, "role", a.role)
	}
}

func seedNews(srv *devserver.Server) {
	headlines := []string{
		"Markets open higher amid positive economic data",
		"Tech sector shows strong momentum in early trading",
		"Federal Reserve signals continued focus on inflation",
		"Quarterly earnings season kicks off this week",
	}
	for _, h := range headlines {
		srv.SeedNews(h, h+".")
	}
}
