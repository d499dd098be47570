// Package engine races waves of explorer adapters and arbitrates their answers.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/marko911/tx-lookup/pkg/blockchain"
	"github.com/marko911/tx-lookup/pkg/explorer"
	"github.com/marko911/tx-lookup/pkg/txdata"
)

// Lookup is one resolution request. Waves are raced in order and are not
// modified.
type Lookup struct {
	ID            string
	TransactionID string
	Chain         blockchain.Chain
	Waves         [][]explorer.Adapter
}

type Stats struct {
	Lookups      uint64
	Resolved     uint64
	Exhausted    uint64
	Fallbacks    uint64
	SourceErrors uint64
}

type Engine struct {
	cfg       Config
	logger    *slog.Logger
	transport explorer.Transport

	mu        sync.Mutex
	observers observers
	stats     Stats
}

func New(cfg Config, transport explorer.Transport, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		cfg:       cfg,
		logger:    logger.With("component", "resolution-engine"),
		transport: transport,
	}
}

// Observe registers an observer for every subsequent lookup.
func (e *Engine) Observe(o Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, o)
}

func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// Resolve races l.Waves in order until one yields an answer. Configuration
// problems are reported before any adapter is invoked. When every wave fails
// the error is an *explorer.ExhaustedError wrapping the last wave's cause.
func (e *Engine) Resolve(ctx context.Context, l Lookup) (*txdata.Record, error) {
	start := time.Now()
	logger := e.logger.With("chain", l.Chain, "transaction_id", l.TransactionID)
	if l.ID != "" {
		logger = logger.With("lookup_id", l.ID)
	}

	e.mu.Lock()
	e.stats.Lookups++
	obs := append(observers(nil), e.observers...)
	e.mu.Unlock()

	if err := e.validate(l.Waves); err != nil {
		logger.Error("rejected lookup configuration", "error", err)
		obs.LookupFinished(err, time.Since(start))
		return nil, err
	}

	var lastErr error
	for i, wave := range l.Waves {
		if err := ctx.Err(); err != nil {
			obs.LookupFinished(err, time.Since(start))
			return nil, err
		}
		if i > 0 {
			e.count(func(s *Stats) { s.Fallbacks++ })
			logger.Info("falling back to next wave", "wave", i, "explorers", len(wave))
		}

		rec, err := e.runWave(ctx, logger.With("wave", i), obs, i, wave, l)
		obs.WaveFinished(i, err)
		if err == nil {
			e.count(func(s *Stats) { s.Resolved++ })
			logger.Info("transaction resolved",
				"wave", i,
				"issuing_address", rec.IssuingAddress,
				"duration", time.Since(start),
			)
			obs.LookupFinished(nil, time.Since(start))
			return rec, nil
		}
		if ctx.Err() != nil {
			obs.LookupFinished(err, time.Since(start))
			return nil, err
		}

		lastErr = err
		logger.Warn("wave failed", "wave", i, "error", err)
	}

	e.count(func(s *Stats) { s.Exhausted++ })
	err := &explorer.ExhaustedError{Waves: len(l.Waves), Err: lastErr}
	logger.Error("transaction lookup exhausted", "error", err)
	obs.LookupFinished(err, time.Since(start))
	return nil, err
}

func (e *Engine) validate(waves [][]explorer.Adapter) error {
	if e.cfg.Policy != PolicyQuorum && e.cfg.Policy != PolicyFirstValid {
		return explorer.ConfigError("unknown arbitration policy %s", e.cfg.Policy)
	}
	if len(waves) == 0 {
		return explorer.ConfigError("no explorer waves to race")
	}
	for i, wave := range waves {
		if e.cfg.MinimumSources < 0 || e.cfg.MinimumSources > len(wave) {
			return explorer.ConfigError("minimum explorer count %d does not fit wave %d of %d explorers",
				e.cfg.MinimumSources, i, len(wave))
		}
	}
	return nil
}

func (e *Engine) count(update func(*Stats)) {
	e.mu.Lock()
	update(&e.stats)
	e.mu.Unlock()
}

type outcome struct {
	service string
	record  *txdata.Record
	err     error
	elapsed time.Duration
}

// launch starts one goroutine per adapter. The channel is buffered to the
// number of launches so goroutines finishing after arbitration never block.
func (e *Engine) launch(ctx context.Context, adapters []explorer.Adapter, l Lookup) <-chan outcome {
	results := make(chan outcome, len(adapters))
	for _, a := range adapters {
		a := a // per-iteration copy (go.mod targets go1.21 loop semantics)
		go func() {
			start := time.Now()
			rec, err := explorer.Invoke(ctx, e.transport, a, l.TransactionID, l.Chain)
			results <- outcome{service: a.Name(), record: rec, err: err, elapsed: time.Since(start)}
		}()
	}
	return results
}

func (e *Engine) runWave(ctx context.Context, logger *slog.Logger, obs observers, index int, wave []explorer.Adapter, l Lookup) (*txdata.Record, error) {
	switch e.cfg.Policy {
	case PolicyFirstValid:
		obs.WaveStarted(index, len(wave))
		return e.firstValid(ctx, logger, obs, e.launch(ctx, wave, l), len(wave))
	default:
		threshold := e.cfg.MinimumSources
		if threshold == 0 {
			obs.WaveStarted(index, 0)
			return nil, fmt.Errorf("%w: minimum explorer count is 0", explorer.ErrNoConfirmation)
		}
		launched := wave
		if !e.cfg.RaceAll {
			launched = wave[:threshold]
		}
		obs.WaveStarted(index, len(launched))
		return e.quorum(ctx, logger, obs, e.launch(ctx, launched, l), len(launched), threshold)
	}
}

func (e *Engine) receive(ctx context.Context, logger *slog.Logger, obs observers, results <-chan outcome) (outcome, error) {
	select {
	case o := <-results:
		obs.SourceSettled(o.service, o.err, o.elapsed)
		if o.err != nil {
			e.count(func(s *Stats) { s.SourceErrors++ })
			logger.Debug("explorer failed", "service", o.service, "error", o.err, "elapsed", o.elapsed)
		} else {
			logger.Debug("explorer answered", "service", o.service, "elapsed", o.elapsed)
		}
		return o, nil
	case <-ctx.Done():
		return outcome{}, ctx.Err()
	}
}

// quorum collects successes until threshold is reached, failing early once
// the outstanding invocations can no longer make up the difference.
func (e *Engine) quorum(ctx context.Context, logger *slog.Logger, obs observers, results <-chan outcome, launched, threshold int) (*txdata.Record, error) {
	var (
		successes []*txdata.Record
		services  []string
		lastErr   error
	)
	for pending := launched; pending > 0 && len(successes) < threshold; {
		o, err := e.receive(ctx, logger, obs, results)
		if err != nil {
			return nil, err
		}
		pending--

		if o.err != nil {
			lastErr = o.err
			if len(successes)+pending < threshold {
				return nil, fmt.Errorf("%w: %d of %d explorers failed with %d answers required: %w",
					explorer.ErrNoConfirmation, launched-pending-len(successes), launched, threshold, lastErr)
			}
			continue
		}
		successes = append(successes, o.record)
		services = append(services, o.service)
	}

	if len(successes) < threshold {
		return nil, fmt.Errorf("%w: got %d of %d required answers", explorer.ErrNoConfirmation, len(successes), threshold)
	}
	return agree(successes, services)
}

// agree returns the first record if every record matches it on issuing
// address and remote hash.
func agree(records []*txdata.Record, services []string) (*txdata.Record, error) {
	first := records[0]
	for i := 1; i < len(records); i++ {
		r := records[i]
		if first.SameAs(r) {
			continue
		}
		if r.IssuingAddress != first.IssuingAddress {
			return nil, fmt.Errorf("%w: issuing addresses differ between %s and %s",
				explorer.ErrConsistency, services[0], services[i])
		}
		return nil, fmt.Errorf("%w: remote hashes differ between %s and %s",
			explorer.ErrConsistency, services[0], services[i])
	}
	return first, nil
}

var errInvalidRecord = errors.New("record lacks issuing address or remote hash")

// firstValid returns the first structurally valid record and only fails once
// every invocation has failed or produced an unusable record.
func (e *Engine) firstValid(ctx context.Context, logger *slog.Logger, obs observers, results <-chan outcome, launched int) (*txdata.Record, error) {
	var lastErr error
	for pending := launched; pending > 0; pending-- {
		o, err := e.receive(ctx, logger, obs, results)
		if err != nil {
			return nil, err
		}
		if o.err != nil {
			lastErr = o.err
			continue
		}
		if o.record.Valid() {
			return o.record, nil
		}
		lastErr = &explorer.LookupError{Service: o.service, Err: errInvalidRecord}
	}
	if lastErr == nil {
		return nil, fmt.Errorf("%w: no explorers launched", explorer.ErrNoConfirmation)
	}
	return nil, fmt.Errorf("%w: no explorer returned a valid record: %w", explorer.ErrNoConfirmation, lastErr)
}
