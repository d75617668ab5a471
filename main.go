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

	"github.com/akl7777777/ippure-panel/internal/config"
	"github.com/akl7777777/ippure-panel/internal/fetch"
	"github.com/akl7777777/ippure-panel/internal/logger"
	"github.com/akl7777777/ippure-panel/internal/lookup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	client := fetch.New(fetch.Options{
		APIURL:    cfg.APIURL,
		WebURL:    cfg.WebURL,
		ExitIPURL: cfg.ExitIPURL,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
		Nodes:     cfg.Nodes,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := lookup.NewService(ctx, cfg, client, log.Named("lookup"))
	defer svc.Close()

	srv := NewServer(svc, cfg.AuthKey, log.Named("http"))

	addr := cfg.Host + ":" + cfg.Port
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown incomplete", zap.Error(err))
		}
	}()

	log.Info("IPPure aggregator starting",
		zap.String("addr", addr),
		zap.Bool("auth", cfg.AuthKey != ""),
		zap.Int("nodes", len(cfg.Nodes)),
		zap.Int("known_hosting_asns", len(lookup.HostingASNs)),
	)

	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server error", zap.Error(err))
	}

	log.Info("server stopped")
}
