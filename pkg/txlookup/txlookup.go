// Package txlookup resolves a blockchain transaction into a normalized record
// by racing explorer services and cross-checking their answers.
package txlookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marko911/tx-lookup/internal/engine"
	"github.com/marko911/tx-lookup/internal/registry"
	"github.com/marko911/tx-lookup/internal/transport"
	"github.com/marko911/tx-lookup/pkg/blockchain"
	"github.com/marko911/tx-lookup/pkg/explorer"
	"github.com/marko911/tx-lookup/pkg/txdata"
)

var ErrInvalidRequest = errors.New("invalid lookup request")

// Request asks for one transaction. ExplorerAPIs override built-in explorers
// by service name or are raced as an extra wave.
type Request struct {
	TransactionID string
	Chain         blockchain.Chain
	ExplorerAPIs  []explorer.Adapter
}

// Outcome summarizes one finished lookup.
type Outcome struct {
	LookupID      string           `json:"lookup_id"`
	TransactionID string           `json:"transaction_id"`
	Chain         blockchain.Chain `json:"chain"`
	Resolved      bool             `json:"resolved"`
	Record        *txdata.Record   `json:"record,omitempty"`
	Error         string           `json:"error,omitempty"`
	DurationMS    int64            `json:"duration_ms"`
	CompletedAt   time.Time        `json:"completed_at"`
}

// OutcomeSink receives every outcome after the lookup returns its result.
type OutcomeSink interface {
	Publish(ctx context.Context, o Outcome) error
}

type options struct {
	transport explorer.Transport
	logger    *slog.Logger
	engineCfg engine.Config
	observers []engine.Observer
	sinks     []OutcomeSink
	registry  *registry.Registry
}

type Option func(*options)

func WithTransport(t explorer.Transport) Option {
	return func(o *options) { o.transport = t }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithEngineConfig(cfg engine.Config) Option {
	return func(o *options) { o.engineCfg = cfg }
}

func WithObserver(obs engine.Observer) Option {
	return func(o *options) { o.observers = append(o.observers, obs) }
}

func WithOutcomeSink(s OutcomeSink) Option {
	return func(o *options) { o.sinks = append(o.sinks, s) }
}

func WithRegistry(r *registry.Registry) Option {
	return func(o *options) { o.registry = r }
}

type Resolver struct {
	registry *registry.Registry
	engine   *engine.Engine
	logger   *slog.Logger
	sinks    []OutcomeSink
}

func New(opts ...Option) *Resolver {
	o := options{engineCfg: engine.DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.transport == nil {
		o.transport = transport.NewHTTP(transport.DefaultHTTPConfig(), nil, o.logger)
	}
	if o.registry == nil {
		o.registry = registry.New()
	}

	eng := engine.New(o.engineCfg, o.transport, o.logger)
	for _, obs := range o.observers {
		eng.Observe(obs)
	}

	return &Resolver{
		registry: o.registry,
		engine:   eng,
		logger:   o.logger.With("component", "resolver"),
		sinks:    o.sinks,
	}
}

func (r *Resolver) Engine() *engine.Engine {
	return r.engine
}

// Lookup resolves req and returns only the record.
func (r *Resolver) Lookup(ctx context.Context, req Request) (*txdata.Record, error) {
	out, err := r.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	return out.Record, nil
}

// Run resolves req under a fresh lookup id. The outcome is returned and
// handed to every sink whether or not the lookup succeeded.
func (r *Resolver) Run(ctx context.Context, req Request) (Outcome, error) {
	start := time.Now()
	out := Outcome{
		LookupID:      uuid.NewString(),
		TransactionID: req.TransactionID,
		Chain:         blockchain.Parse(string(req.Chain)),
	}

	rec, err := r.resolve(ctx, out.LookupID, out.Chain, req)

	out.DurationMS = time.Since(start).Milliseconds()
	out.CompletedAt = time.Now().UTC()
	if err != nil {
		out.Error = err.Error()
	} else {
		out.Resolved = true
		out.Record = rec
	}
	r.publish(ctx, out)
	return out, err
}

func (r *Resolver) resolve(ctx context.Context, id string, chain blockchain.Chain, req Request) (*txdata.Record, error) {
	if req.TransactionID == "" {
		return nil, fmt.Errorf("%w: transaction id is required", ErrInvalidRequest)
	}
	if chain == "" {
		return nil, fmt.Errorf("%w: chain is required", ErrInvalidRequest)
	}

	waves, err := r.registry.Waves(chain, req.ExplorerAPIs)
	if err != nil {
		r.logger.Warn("cannot build explorer waves",
			"lookup_id", id,
			"chain", chain,
			"error", err,
		)
		return nil, err
	}

	return r.engine.Resolve(ctx, engine.Lookup{
		ID:            id,
		TransactionID: req.TransactionID,
		Chain:         chain,
		Waves:         waves,
	})
}

func (r *Resolver) publish(ctx context.Context, out Outcome) {
	for _, s := range r.sinks {
		if err := s.Publish(context.WithoutCancel(ctx), out); err != nil {
			r.logger.Warn("failed to publish outcome", "lookup_id", out.LookupID, "error", err)
		}
	}
}

var defaultResolver = sync.OnceValue(func() *Resolver { return New() })

// LookForTx resolves req with the default resolver: live HTTP, quorum of one.
func LookForTx(ctx context.Context, req Request) (*txdata.Record, error) {
	return defaultResolver().Lookup(ctx, req)
}
