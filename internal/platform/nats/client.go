// Package nats publishes lookup outcomes to NATS JetStream.
package nats

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Config holds the connection and the outcomes stream it publishes to.
type Config struct {
	URL            string        // NATS server URL (e.g., "nats://localhost:4222")
	Name           string        // Client connection name shown in server monitoring
	ReconnectWait  time.Duration // Time to wait between reconnection attempts
	MaxReconnects  int           // Maximum reconnection attempts (-1 for unlimited)
	ConnectTimeout time.Duration // Bounds the dial and the stream setup

	Stream        string // JetStream stream holding outcomes
	SubjectPrefix string // Outcomes go to <prefix>.<chain>.<resolved|failed>
}

// DefaultConfig targets a local server and the default outcomes stream.
func DefaultConfig() Config {
	return Config{
		URL:            "nats://localhost:4222",
		Name:           "tx-lookup",
		ReconnectWait:  2 * time.Second,
		MaxReconnects:  -1,
		ConnectTimeout: 10 * time.Second,
		Stream:         "TX_LOOKUPS",
		SubjectPrefix:  "lookups.outcome",
	}
}

// Client owns the connection, the outcomes stream and its publisher.
type Client struct {
	nc        *nats.Conn
	js        jetstream.JetStream
	cfg       Config
	logger    *slog.Logger
	publisher *OutcomePublisher

	mu     sync.RWMutex
	closed bool
}

// Connect dials NATS, makes sure the outcomes stream exists and returns a
// client ready to publish.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "nats", "stream", cfg.Stream)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	nc, err := nats.Connect(cfg.URL, connectOptions(cfg, logger)...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	setupCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if _, err := EnsureStream(setupCtx, js, DefaultOutcomesStreamConfig(cfg.Stream, cfg.SubjectPrefix)); err != nil {
		nc.Close()
		return nil, err
	}

	logger.Info("connected", "url", nc.ConnectedUrl(), "subjects", cfg.SubjectPrefix+".>")
	return &Client{
		nc:        nc,
		js:        js,
		cfg:       cfg,
		logger:    logger,
		publisher: NewOutcomePublisher(js, cfg.SubjectPrefix, logger),
	}, nil
}

func connectOptions(cfg Config, logger *slog.Logger) []nats.Option {
	return []nats.Option{
		nats.Name(cfg.Name),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("disconnected, outcomes will fail to publish until reconnect", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			logger.Info("connection closed")
		}),
	}
}

// Outcomes returns the publisher bound to the configured stream.
func (c *Client) Outcomes() *OutcomePublisher {
	return c.publisher
}

// JetStream returns the JetStream context for stream operations.
func (c *Client) JetStream() jetstream.JetStream {
	return c.js
}

// IsConnected backs the readiness probe.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed && c.nc.IsConnected()
}

// Close drains pending outcome publishes before closing.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if err := c.nc.Drain(); err != nil {
		c.nc.Close()
		return fmt.Errorf("nats drain: %w", err)
	}
	return nil
}
