// Package transport performs the network calls adapters need, either over
// HTTP or from recorded fixtures.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/marko911/tx-lookup/pkg/explorer"
)

var ErrResponseTooLarge = errors.New("response too large")

type HTTPConfig struct {
	// Timeout bounds a single request including reading the body.
	Timeout time.Duration

	// AllowHTTP disables the http to https upgrade for every request.
	AllowHTTP bool

	UserAgent string

	MaxBodyBytes int64
}

func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Timeout:      15 * time.Second,
		AllowHTTP:    false,
		UserAgent:    "tx-lookup/1.0",
		MaxBodyBytes: 8 << 20,
	}
}

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

type HTTP struct {
	cfg    HTTPConfig
	client *http.Client
	logger *slog.Logger
}

// NewHTTP builds an HTTP transport. A nil client gets a default one.
func NewHTTP(cfg HTTPConfig, client *http.Client, logger *slog.Logger) *HTTP {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{}
	}
	return &HTTP{
		cfg:    cfg,
		client: client,
		logger: logger.With("component", "http-transport"),
	}
}

func (h *HTTP) Perform(ctx context.Context, req explorer.Request) ([]byte, error) {
	target := req.URL
	if !req.ForceHTTP && !h.cfg.AllowHTTP && strings.HasPrefix(target, "http://") {
		target = "https://" + strings.TrimPrefix(target, "http://")
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
		if req.Body != nil {
			method = http.MethodPost
		}
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	if h.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if h.cfg.UserAgent != "" {
		httpReq.Header.Set("User-Agent", h.cfg.UserAgent)
	}
	if req.BearerToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.BearerToken)
	}

	start := time.Now()
	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, Redact(target), unwrapURLError(err))
	}
	defer resp.Body.Close()

	reader := io.Reader(resp.Body)
	if h.cfg.MaxBodyBytes > 0 {
		reader = io.LimitReader(resp.Body, h.cfg.MaxBodyBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", Redact(target), err)
	}
	if h.cfg.MaxBodyBytes > 0 && int64(len(data)) > h.cfg.MaxBodyBytes {
		return nil, fmt.Errorf("%w: %s sent more than %d bytes", ErrResponseTooLarge, Redact(target), h.cfg.MaxBodyBytes)
	}

	h.logger.Debug("request completed",
		"method", method,
		"url", Redact(target),
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: Redact(target)}
	}
	return data, nil
}

// DefaultSecretParams are query parameters treated as credentials when
// fixtures are written or matched.
var DefaultSecretParams = []string{"apikey", "api_key", "api-key", "key", "token", "access_token"}

// StripParams removes the named query parameters, ignoring case. URLs that
// carry none of them are returned unchanged.
func StripParams(rawURL string, names []string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.RawQuery == "" {
		return rawURL
	}
	q := u.Query()
	removed := false
	for param := range q {
		for _, name := range names {
			if strings.EqualFold(param, name) {
				q.Del(param)
				removed = true
				break
			}
		}
	}
	if !removed {
		return rawURL
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Redact drops the query string, which may carry API keys.
func Redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	u.RawQuery = ""
	u.User = nil
	return u.String()
}

// unwrapURLError strips *url.Error so the unredacted URL never reaches logs.
func unwrapURLError(err error) error {
	if uerr, ok := err.(*url.Error); ok {
		return uerr.Err
	}
	return err
}
