package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/marko911/tx-lookup/internal/config"
	"github.com/marko911/tx-lookup/internal/engine"
	"github.com/marko911/tx-lookup/pkg/blockchain"
	"github.com/marko911/tx-lookup/pkg/txlookup"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration file")
	txID := flag.String("tx", "", "Transaction id to look up")
	chain := flag.String("chain", "bitcoin", "Chain code (bitcoin, testnet, ethmain, ethsepolia, ...)")
	policy := flag.String("policy", "", "Arbitration policy: quorum or first-valid")
	minSources := flag.Int("min-sources", -1, "Sources that must agree per wave (overrides config)")
	raceAll := flag.Bool("race-all", false, "Launch every source of a wave instead of the minimum")
	fixtures := flag.String("fixtures", "", "Replay responses from this fixtures directory")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	level := parseLogLevel(*logLevel)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *txID == "" {
		logger.Error("missing -tx")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *policy != "" {
		cfg.Engine.Policy = *policy
	}
	if *minSources >= 0 {
		cfg.Engine.MinimumSources = *minSources
	}
	if *raceAll {
		cfg.Engine.RaceAll = true
	}
	if *fixtures != "" {
		cfg.Replay.FixturesDir = *fixtures
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, txlookup.Request{TransactionID: *txID, Chain: blockchain.Parse(*chain)}, logger); err != nil {
		logger.Error("lookup failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, req txlookup.Request, logger *slog.Logger) error {
	tr, err := cfg.Transport(logger)
	if err != nil {
		return err
	}
	custom, err := cfg.Adapters()
	if err != nil {
		return err
	}
	req.ExplorerAPIs = custom

	settings := cfg.EngineSettings()
	logger.Info("looking up transaction",
		"tx", req.TransactionID,
		"chain", req.Chain,
		"policy", settings.Policy,
		"minimum_sources", settings.MinimumSources,
		"race_all", settings.RaceAll,
		"replay", cfg.Replay.FixturesDir != "",
	)

	resolver := txlookup.New(
		txlookup.WithTransport(tr),
		txlookup.WithLogger(logger),
		txlookup.WithEngineConfig(settings),
	)

	out, err := resolver.Run(ctx, req)
	logStats(logger, resolver.Engine().Stats())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out.Record)
}

func logStats(logger *slog.Logger, s engine.Stats) {
	logger.Debug("engine stats",
		"fallbacks", s.Fallbacks,
		"source_errors", s.SourceErrors,
	)
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
