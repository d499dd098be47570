package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/marko911/tx-lookup/internal/metrics"
	"github.com/marko911/tx-lookup/pkg/explorer"
	"github.com/marko911/tx-lookup/pkg/txlookup"
)

const blockcypherBody = `{
  "confirmations": 12,
  "received": "2018-02-08T00:23:34Z",
  "inputs": [{"addresses": ["1AwdUWQzJgfDDjeKtpPzMfYMHejFBrxZfo"]}],
  "outputs": [{"script": "6a20b2ceea1d52627b6ed8d919ad1039eca32f6e099ef4a357cbb7f7361c471ea6c8"}]
}`

func newTestServer(t *testing.T, fn explorer.TransportFunc) (*Server, *metrics.Observer) {
	t.Helper()
	observer := metrics.New("test")
	resolver := txlookup.New(
		txlookup.WithTransport(fn),
		txlookup.WithLogger(slog.Default()),
		txlookup.WithObserver(observer),
	)
	server := NewServer(resolver, nil, time.Second, slog.Default())
	server.SetMetricsHandler(observer.Handler())
	return server, observer
}

func serveBlockcypher(_ context.Context, req explorer.Request) ([]byte, error) {
	if strings.HasPrefix(req.URL, "https://api.blockcypher.com/") {
		return []byte(blockcypherBody), nil
	}
	return nil, fmt.Errorf("unexpected request %s", req.URL)
}

func TestServer_HealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t, serveBlockcypher)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	var response map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["status"] != "healthy" {
		t.Errorf("expected status 'healthy', got %v", response["status"])
	}
}

func TestServer_ReadyEndpoint(t *testing.T) {
	server, _ := newTestServer(t, serveBlockcypher)
	connected := false
	server.SetReadiness(func() bool { return connected })

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503 while disconnected, got %d", rec.Code)
	}

	connected = true
	rec = httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
}

func TestServer_LookupQuery(t *testing.T) {
	server, _ := newTestServer(t, serveBlockcypher)

	req := httptest.NewRequest(http.MethodGet, "/v1/lookup?tx=2378076e&chain=bitcoin", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var out txlookup.Outcome
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !out.Resolved || out.Record == nil {
		t.Fatalf("expected a resolved outcome, got %+v", out)
	}
	if out.Record.IssuingAddress != "1AwdUWQzJgfDDjeKtpPzMfYMHejFBrxZfo" {
		t.Errorf("unexpected issuer %q", out.Record.IssuingAddress)
	}
}

func TestServer_LookupBodyWithCustomExplorer(t *testing.T) {
	var requested []string
	server, _ := newTestServer(t, func(_ context.Context, req explorer.Request) ([]byte, error) {
		requested = append(requested, req.URL)
		return []byte(blockcypherBody), nil
	})

	body := `{
	  "transaction_id": "0x01",
	  "chain": "matic",
	  "explorers": [{"url": "https://polygon.example/tx/{transaction_id}", "parser": "blockcypher"}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/v1/lookup", strings.NewReader(body))
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(requested) != 1 || requested[0] != "https://polygon.example/tx/0x01" {
		t.Errorf("unexpected requests %v", requested)
	}
}

func TestServer_LookupErrors(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{"missing tx", http.MethodGet, "/v1/lookup?chain=bitcoin", "", http.StatusBadRequest},
		{"unsupported chain", http.MethodGet, "/v1/lookup?tx=abc&chain=dogecoin", "", http.StatusUnprocessableEntity},
		{"bad json", http.MethodPost, "/v1/lookup", "{", http.StatusBadRequest},
		{"bad explorer", http.MethodPost, "/v1/lookup", `{"transaction_id":"a","chain":"bitcoin","explorers":[{"url":"https://x","key":"k"}]}`, http.StatusBadRequest},
		{"all sources fail", http.MethodGet, "/v1/lookup?tx=abc&chain=testnet", "", http.StatusBadGateway},
	}

	server, _ := newTestServer(t, func(context.Context, explorer.Request) ([]byte, error) {
		return nil, errors.New("connection refused")
	})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			server.Router().ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestServer_MetricsEndpoint(t *testing.T) {
	server, _ := newTestServer(t, serveBlockcypher)
	router := server.Router()

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/lookup?tx=a&chain=bitcoin", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `test_lookups_total{outcome="resolved"} 1`) {
		t.Errorf("metrics missing resolved lookup:\n%s", rec.Body.String())
	}
}
