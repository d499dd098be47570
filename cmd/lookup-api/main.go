package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marko911/tx-lookup/internal/config"
	"github.com/marko911/tx-lookup/internal/metrics"
	pnats "github.com/marko911/tx-lookup/internal/platform/nats"
	"github.com/marko911/tx-lookup/pkg/txlookup"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration file")
	listen := flag.String("listen", "", "HTTP listen address (overrides config)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(*logLevel),
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *listen != "" {
		cfg.API.ListenAddr = *listen
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr, err := cfg.Transport(logger)
	if err != nil {
		return fmt.Errorf("create transport: %w", err)
	}
	custom, err := cfg.Adapters()
	if err != nil {
		return err
	}

	observer := metrics.New("txlookup")
	opts := []txlookup.Option{
		txlookup.WithTransport(tr),
		txlookup.WithLogger(logger),
		txlookup.WithEngineConfig(cfg.EngineSettings()),
		txlookup.WithObserver(observer),
	}

	var natsClient *pnats.Client
	if cfg.NATS.URL != "" {
		natsClient, err = connectNATS(ctx, cfg.NATS, logger)
		if err != nil {
			logger.Warn("NATS initialization failed, continuing without outcome publishing", "error", err)
		} else {
			opts = append(opts, txlookup.WithOutcomeSink(natsClient.Outcomes()))
			logger.Info("publishing lookup outcomes",
				"url", cfg.NATS.URL,
				"stream", cfg.NATS.StreamName,
				"subject", cfg.NATS.Subject,
			)
		}
	}

	server := NewServer(txlookup.New(opts...), custom, cfg.API.LookupTimeout, logger)
	server.SetMetricsHandler(observer.Handler())
	if natsClient != nil {
		server.SetReadiness(natsClient.IsConnected)
	}

	httpServer := &http.Server{
		Addr:         cfg.API.ListenAddr,
		Handler:      server.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.API.LookupTimeout + 5*time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		logger.Info("shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
		}
		if natsClient != nil {
			if err := natsClient.Close(); err != nil {
				logger.Error("NATS shutdown error", "error", err)
			}
		}
		cancel()
	}()

	logger.Info("starting lookup API", "addr", cfg.API.ListenAddr)
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

func connectNATS(ctx context.Context, cfg config.NATSConfig, logger *slog.Logger) (*pnats.Client, error) {
	natsCfg := pnats.DefaultConfig()
	natsCfg.URL = cfg.URL
	natsCfg.Name = "lookup-api"
	natsCfg.Stream = cfg.StreamName
	natsCfg.SubjectPrefix = cfg.Subject
	return pnats.Connect(ctx, natsCfg, logger)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
