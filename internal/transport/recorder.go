package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/marko911/tx-lookup/pkg/explorer"
)

// Recorder wraps a transport and saves every successful exchange as a
// fixture that Replay can serve later.
type Recorder struct {
	next   explorer.Transport
	dir    string
	logger *slog.Logger

	mu      sync.Mutex
	saved   []string
	secrets []string
}

func NewRecorder(next explorer.Transport, dir string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		next:    next,
		dir:     dir,
		logger:  logger.With("component", "fixture-recorder"),
		secrets: DefaultSecretParams,
	}
}

// HideParams adds query parameters that must never be written to disk,
// typically the key property names of configured explorers.
func (r *Recorder) HideParams(names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.secrets = append(append([]string(nil), r.secrets...), names...)
}

// SecretParams lists the parameters stripped from saved URLs. A replay of
// these fixtures must use the same list.
func (r *Recorder) SecretParams() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.secrets...)
}

func (r *Recorder) Perform(ctx context.Context, req explorer.Request) ([]byte, error) {
	return r.record(ctx, "", req)
}

// ForService returns a transport that tags saved fixtures with service.
func (r *Recorder) ForService(service string) explorer.Transport {
	return explorer.TransportFunc(func(ctx context.Context, req explorer.Request) ([]byte, error) {
		return r.record(ctx, service, req)
	})
}

func (r *Recorder) record(ctx context.Context, service string, req explorer.Request) ([]byte, error) {
	body, err := r.next.Perform(ctx, req)
	if err != nil {
		return nil, err
	}

	f := Fixture{
		Service:    service,
		Method:     req.Method,
		URL:        StripParams(req.URL, r.SecretParams()),
		RecordedAt: time.Now().UTC(),
		Body:       string(body),
	}
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		f.Request = payload
	}

	path, err := WriteFixture(r.dir, f)
	if err != nil {
		r.logger.Warn("failed to save fixture", "url", Redact(req.URL), "error", err)
		return body, nil
	}

	r.mu.Lock()
	r.saved = append(r.saved, path)
	r.mu.Unlock()
	r.logger.Info("saved fixture", "url", Redact(req.URL), "path", path)
	return body, nil
}

// Saved lists the fixture files written so far.
func (r *Recorder) Saved() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.saved...)
}
