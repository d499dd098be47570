package explorer

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/marko911/tx-lookup/pkg/blockchain"
	"github.com/marko911/tx-lookup/pkg/txdata"
)

type fakeTransport struct {
	body     []byte
	err      error
	requests []Request
}

func (f *fakeTransport) Perform(_ context.Context, req Request) ([]byte, error) {
	f.requests = append(f.requests, req)
	return f.body, f.err
}

func recordParser(rec *txdata.Record, err error) ParseFunc {
	return func(context.Context, ParseContext) (*txdata.Record, error) {
		return rec, err
	}
}

func TestInvokeREST(t *testing.T) {
	want := &txdata.Record{IssuingAddress: "1Awd", RemoteHash: "b2ce"}
	var seen ParseContext
	adapter := Adapter{
		ServiceName:     ServiceBlockstream,
		URL:             FixedURL("https://example.com/tx/{transaction_id}"),
		Key:             "secret",
		KeyPropertyName: "key",
		Parse: func(_ context.Context, pc ParseContext) (*txdata.Record, error) {
			seen = pc
			return want, nil
		},
	}
	tr := &fakeTransport{body: []byte(`{"txid":"abc"}`)}

	got, err := Invoke(context.Background(), tr, adapter, "abc", blockchain.Bitcoin)
	if err != nil {
		t.Fatalf("Invoke() error: %v", err)
	}
	if got != want {
		t.Errorf("Invoke() = %+v, want %+v", got, want)
	}
	if len(tr.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(tr.requests))
	}
	if tr.requests[0].Method != http.MethodGet || tr.requests[0].URL != "https://example.com/tx/abc?key=secret" {
		t.Errorf("unexpected request: %+v", tr.requests[0])
	}
	if string(seen.Response) != `{"txid":"abc"}` {
		t.Errorf("parser response = %s", seen.Response)
	}
	if seen.Key != "secret" || seen.KeyPropertyName != "key" || seen.Chain != blockchain.Bitcoin {
		t.Errorf("parser context missing fields: %+v", seen)
	}
}

func TestInvokeRPCSkipsFetch(t *testing.T) {
	var seen ParseContext
	adapter := Adapter{
		URL:  FixedURL("https://node.example.com"),
		Kind: KindRPC,
		Parse: func(_ context.Context, pc ParseContext) (*txdata.Record, error) {
			seen = pc
			return &txdata.Record{IssuingAddress: "a", RemoteHash: "h"}, nil
		},
	}
	tr := &fakeTransport{}

	if _, err := Invoke(context.Background(), tr, adapter, "abc", blockchain.Ethmain); err != nil {
		t.Fatalf("Invoke() error: %v", err)
	}
	if len(tr.requests) != 0 {
		t.Errorf("RPC adapter should not be fetched by the invoker, got %d requests", len(tr.requests))
	}
	if seen.Response != nil {
		t.Errorf("RPC parser got a response: %s", seen.Response)
	}
	if seen.ServiceURL != "https://node.example.com" || seen.Transport == nil {
		t.Errorf("RPC parser context incomplete: %+v", seen)
	}
}

func TestInvokeFailures(t *testing.T) {
	errTransport := errors.New("connection refused")
	errParse := errors.New("not enough confirmations")

	tests := []struct {
		name    string
		adapter Adapter
		tr      *fakeTransport
		wantErr error
	}{
		{
			name:    "transport failure",
			adapter: Adapter{ServiceName: ServiceBlockcypher, URL: FixedURL("https://x/{transaction_id}"), Parse: recordParser(nil, nil)},
			tr:      &fakeTransport{err: errTransport},
			wantErr: errTransport,
		},
		{
			name:    "invalid json",
			adapter: Adapter{ServiceName: ServiceBlockcypher, URL: FixedURL("https://x/{transaction_id}"), Parse: recordParser(nil, nil)},
			tr:      &fakeTransport{body: []byte("<html>")},
			wantErr: ErrInvalidJSON,
		},
		{
			name:    "parse failure",
			adapter: Adapter{ServiceName: ServiceEtherscan, URL: FixedURL("https://x/{transaction_id}"), Parse: recordParser(nil, errParse)},
			tr:      &fakeTransport{body: []byte("{}")},
			wantErr: errParse,
		},
		{
			name:    "nil record",
			adapter: Adapter{ServiceName: ServiceEtherscan, URL: FixedURL("https://x/{transaction_id}"), Parse: recordParser(nil, nil)},
			tr:      &fakeTransport{body: []byte("{}")},
			wantErr: ErrEmptyRecord,
		},
		{
			name:    "missing parser",
			adapter: Adapter{ServiceName: ServiceEtherscan, URL: FixedURL("https://x/{transaction_id}")},
			tr:      &fakeTransport{body: []byte("{}")},
			wantErr: ErrMissingParser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Invoke(context.Background(), tt.tr, tt.adapter, "abc", blockchain.Bitcoin)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Invoke() error = %v, want %v", err, tt.wantErr)
			}
			var lerr *LookupError
			if !errors.As(err, &lerr) {
				t.Fatalf("Invoke() error %T is not a *LookupError", err)
			}
			if lerr.Service != tt.adapter.Name() {
				t.Errorf("LookupError.Service = %q, want %q", lerr.Service, tt.adapter.Name())
			}
		})
	}
}

func TestExhaustedErrorUnwraps(t *testing.T) {
	err := error(&ExhaustedError{Waves: 2, Err: ErrConsistency})
	if !errors.Is(err, ErrConsistency) {
		t.Error("ExhaustedError should unwrap to its cause")
	}
}
