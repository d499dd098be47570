package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/marko911/tx-lookup/pkg/explorer"
)

var ErrNoFixture = errors.New("no recorded fixture for request")

type ReplayConfig struct {
	FixturesDir string

	// Strict makes unknown requests an error instead of a 404-style StatusError.
	Strict bool

	// SecretParams are dropped from request URLs before matching, as the
	// recorder drops them before saving. Nil means DefaultSecretParams.
	SecretParams []string
}

// Replay answers requests from recorded fixtures so lookups can run offline.
type Replay struct {
	cfg    ReplayConfig
	logger *slog.Logger

	mu       sync.RWMutex
	fixtures map[string]Fixture
}

// NewReplay loads every fixture in cfg.FixturesDir.
func NewReplay(cfg ReplayConfig, logger *slog.Logger) (*Replay, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Replay{
		cfg:      cfg,
		logger:   logger.With("component", "replay-transport"),
		fixtures: make(map[string]Fixture),
	}

	fixtures, err := LoadFixtures(cfg.FixturesDir)
	if err != nil {
		return nil, fmt.Errorf("load fixtures: %w", err)
	}
	for _, f := range fixtures {
		r.Add(f)
	}
	r.logger.Info("loaded fixtures", "dir", cfg.FixturesDir, "count", len(fixtures))
	return r, nil
}

// Add registers or replaces a fixture.
func (r *Replay) Add(f Fixture) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fixtures[f.Key()] = f
}

func (r *Replay) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.fixtures)
}

func (r *Replay) Perform(ctx context.Context, req explorer.Request) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := requestKey(req, r.secretParams())
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	f, ok := r.fixtures[key]
	r.mu.RUnlock()

	if !ok {
		r.logger.Debug("fixture miss", "url", Redact(req.URL), "method", req.Method)
		if r.cfg.Strict {
			return nil, fmt.Errorf("%w: %s %s", ErrNoFixture, req.Method, Redact(req.URL))
		}
		return nil, &StatusError{StatusCode: http.StatusNotFound, URL: Redact(req.URL)}
	}
	return []byte(f.Body), nil
}

func (r *Replay) secretParams() []string {
	if r.cfg.SecretParams == nil {
		return DefaultSecretParams
	}
	return r.cfg.SecretParams
}

func requestKey(req explorer.Request, secrets []string) (string, error) {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = json.Marshal(req.Body)
		if err != nil {
			return "", fmt.Errorf("encode request body: %w", err)
		}
	}
	return fixtureKey(req.Method, StripParams(req.URL, secrets), body), nil
}
