package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marko911/tx-lookup/internal/config"
	"github.com/marko911/tx-lookup/internal/explorers/bitcoin"
	"github.com/marko911/tx-lookup/internal/explorers/ethereum"
	"github.com/marko911/tx-lookup/internal/registry"
	"github.com/marko911/tx-lookup/internal/transport"
	"github.com/marko911/tx-lookup/pkg/blockchain"
	"github.com/marko911/tx-lookup/pkg/explorer"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration file")
	txID := flag.String("tx", "", "Transaction id to record")
	chain := flag.String("chain", "bitcoin", "Chain code (bitcoin, testnet, ethmain, ethsepolia, ...)")
	outputDir := flag.String("output", "./fixtures", "Output directory for fixtures")
	timeout := flag.Duration("timeout", 60*time.Second, "Overall recording timeout")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(*logLevel)}))
	slog.SetDefault(logger)

	if *txID == "" {
		logger.Error("-tx is required")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		logger.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()

	if err := record(ctx, cfg, blockchain.Parse(*chain), *txID, *outputDir, logger); err != nil {
		logger.Error("recording failed", "error", err)
		os.Exit(1)
	}
}

// record invokes every explorer known for chain, plus the configured ones,
// through a recording transport. Explorer failures are logged and do not
// stop the others.
func record(ctx context.Context, cfg *config.Config, chain blockchain.Chain, txID, dir string, logger *slog.Logger) error {
	adapters, err := adaptersFor(cfg, chain)
	if err != nil {
		return err
	}
	if len(adapters) == 0 {
		return fmt.Errorf("%w: %s", explorer.ErrUnsupportedChain, chain)
	}

	live := transport.NewHTTP(cfg.HTTPSettings(), nil, logger)
	rec := transport.NewRecorder(live, dir, logger)
	rec.HideParams(cfg.SecretParams()...)

	g, ctx := errgroup.WithContext(ctx)
	for _, a := range adapters {
		a := a // per-iteration copy (go.mod targets go1.21 loop semantics)
		g.Go(func() error {
			start := time.Now()
			r, err := explorer.Invoke(ctx, rec.ForService(a.Name()), a, txID, chain)
			if err != nil {
				logger.Warn("explorer failed", "service", a.Name(), "error", err)
				return nil
			}
			logger.Info("explorer answered",
				"service", a.Name(),
				"issuing_address", r.IssuingAddress,
				"remote_hash", r.RemoteHash,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("recording complete",
		"tx", txID,
		"chain", chain,
		"explorers", len(adapters),
		"fixtures", len(rec.Saved()),
		"output", dir,
	)
	return nil
}

func adaptersFor(cfg *config.Config, chain blockchain.Chain) ([]explorer.Adapter, error) {
	var adapters []explorer.Adapter
	switch chain.Family() {
	case blockchain.FamilyBitcoin:
		adapters = bitcoin.All()
	case blockchain.FamilyEthereum:
		adapters = ethereum.Explorers()
	}

	custom, err := cfg.Adapters()
	if err != nil {
		return nil, err
	}
	merged, remaining, err := registry.MergeOverrides(registry.Prepare(custom), adapters)
	if err != nil {
		return nil, err
	}
	return append(merged, remaining...), nil
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
