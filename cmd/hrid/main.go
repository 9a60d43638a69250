package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DavinciInspired/H2Ready-Kit/internal/config"
	"github.com/DavinciInspired/H2Ready-Kit/internal/engine"
	"github.com/DavinciInspired/H2Ready-Kit/internal/logging"
	"github.com/DavinciInspired/H2Ready-Kit/internal/metrics"
	"github.com/DavinciInspired/H2Ready-Kit/internal/rules"
	"github.com/DavinciInspired/H2Ready-Kit/internal/scoring"
	"github.com/DavinciInspired/H2Ready-Kit/internal/store"
	"github.com/DavinciInspired/H2Ready-Kit/internal/transport"
)

// #region main
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	ruleCfg, err := rules.LoadOrDefault(cfg.RulesPath)
	if err != nil {
		logger.Error("rules rejected", "error", err)
		os.Exit(1)
	}

	st, err := store.NewStore(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open store", "db", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	rec := metrics.NewRecorder()
	svc := scoring.NewService(engine.New(ruleCfg), st, rec, logger)
	grpcServer := transport.NewGRPCServer(
		transport.NewServer(svc, transport.ServerOptions{StrictInputs: cfg.StrictInputs}),
		logger,
	)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen", "addr", cfg.GRPCAddr, "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", rec.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	httpServer := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("grpc server stopped", "error", err)
			stop()
		}
	}()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
			stop()
		}
	}()

	logger.Info("hrid ready",
		"grpc", cfg.GRPCAddr,
		"metrics", cfg.MetricsAddr,
		"db", cfg.DBPath,
		"model_version", ruleCfg.Version,
		"rules_digest", ruleCfg.Digest,
		"strict_inputs", cfg.StrictInputs,
	)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics shutdown", "error", err)
	}
	grpcServer.GracefulStop()
}

// #endregion main
