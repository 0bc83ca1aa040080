package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grepsan/huddle/internal/config"
	"github.com/grepsan/huddle/internal/logging"
	"github.com/grepsan/huddle/internal/server"
	"github.com/grepsan/huddle/internal/signaling"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var opts config.Options
	flag.StringVar(&opts.ListenAddr, "listen", "", "listen address (host:port)")
	flag.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flag.StringVar(&opts.AllowedOrigins, "origins", "", "comma-separated allowed websocket origins")
	flag.StringVar(&opts.StaticDir, "static", "", "directory of client assets served at /")
	flag.StringVar(&opts.STUNServer, "stun", "", "STUN server address handed to clients")
	flag.Parse()

	cfg, err := config.Load(opts)
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	logging.Init(cfg.LogLevel)

	registry := signaling.NewRegistry()
	hub := signaling.NewHub(registry)

	// Run the hub's event loop in its own goroutine.
	go hub.Run()

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.NewMux(cfg, hub, registry),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting signaling server", "addr", cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "err", err)
			os.Exit(1)
		}
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("shutdown failed", "err", err)
			os.Exit(1)
		}
	}
}
