package nats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/marko911/tx-lookup/pkg/txdata"
	"github.com/marko911/tx-lookup/pkg/txlookup"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.URL != "nats://localhost:4222" {
		t.Errorf("expected default URL nats://localhost:4222, got %s", cfg.URL)
	}
	if cfg.Name != "tx-lookup" {
		t.Errorf("expected client name tx-lookup, got %s", cfg.Name)
	}
	if cfg.MaxReconnects != -1 {
		t.Errorf("expected unlimited reconnects (-1), got %d", cfg.MaxReconnects)
	}
	if cfg.ReconnectWait != 2*time.Second {
		t.Errorf("expected 2s reconnect wait, got %v", cfg.ReconnectWait)
	}
	if cfg.Stream != "TX_LOOKUPS" || cfg.SubjectPrefix != "lookups.outcome" {
		t.Errorf("unexpected outcomes stream %s on %s", cfg.Stream, cfg.SubjectPrefix)
	}
}

func TestDefaultOutcomesStreamConfig(t *testing.T) {
	cfg := DefaultOutcomesStreamConfig("TX_LOOKUPS", "lookups.outcome")

	if cfg.Name != "TX_LOOKUPS" {
		t.Errorf("expected stream name TX_LOOKUPS, got %s", cfg.Name)
	}
	if len(cfg.Subjects) != 1 || cfg.Subjects[0] != "lookups.outcome.>" {
		t.Errorf("expected subjects [lookups.outcome.>], got %v", cfg.Subjects)
	}
	if cfg.Retention != jetstream.LimitsPolicy {
		t.Errorf("expected limits retention, got %v", cfg.Retention)
	}
}

func TestSubjectForOutcome(t *testing.T) {
	tests := []struct {
		chain    string
		resolved bool
		expected string
	}{
		{"bitcoin", true, "lookups.outcome.bitcoin.resolved"},
		{"ethmain", false, "lookups.outcome.ethmain.failed"},
		{"matic", true, "lookups.outcome.matic.resolved"},
	}

	for _, tt := range tests {
		got := SubjectForOutcome("lookups.outcome", tt.chain, tt.resolved)
		if got != tt.expected {
			t.Errorf("SubjectForOutcome(%q, %v) = %q, want %q", tt.chain, tt.resolved, got, tt.expected)
		}
	}
}

type fakeStream struct {
	subject string
	data    []byte
	opts    int
	err     error
}

func (f *fakeStream) Publish(_ context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.subject = subject
	f.data = data
	f.opts = len(opts)
	return &jetstream.PubAck{Stream: "TX_LOOKUPS", Sequence: 1}, nil
}

func TestOutcomePublisher(t *testing.T) {
	fs := &fakeStream{}
	p := NewOutcomePublisher(fs, "lookups.outcome", nil)

	out := txlookup.Outcome{
		LookupID:      "3f1c2b1e-0000-4000-8000-000000000001",
		TransactionID: "0xabc",
		Chain:         "ethmain",
		Resolved:      true,
		Record:        &txdata.Record{IssuingAddress: "0x3d995ef85a8d1bcbed78182ab225b9f88dc8937c", RemoteHash: "ec04"},
	}
	if err := p.Publish(context.Background(), out); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}

	if fs.subject != "lookups.outcome.ethmain.resolved" {
		t.Errorf("subject = %q", fs.subject)
	}
	if fs.opts != 1 {
		t.Errorf("expected the msg id option, got %d options", fs.opts)
	}
	var got txlookup.Outcome
	if err := json.Unmarshal(fs.data, &got); err != nil {
		t.Fatalf("payload is not an outcome: %v", err)
	}
	if got.LookupID != out.LookupID || got.Record.IssuingAddress != out.Record.IssuingAddress {
		t.Errorf("payload = %+v", got)
	}
}

func TestOutcomePublisherError(t *testing.T) {
	boom := errors.New("no responders")
	p := NewOutcomePublisher(&fakeStream{err: boom}, "lookups.outcome", nil)

	err := p.Publish(context.Background(), txlookup.Outcome{LookupID: "x", Chain: "bitcoin"})
	if !errors.Is(err, boom) {
		t.Fatalf("Publish() error = %v, want wrapped %v", err, boom)
	}
}
