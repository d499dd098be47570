//go:build integration

package nats_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	pnats "github.com/marko911/tx-lookup/internal/platform/nats"
	"github.com/marko911/tx-lookup/pkg/txlookup"
)

func TestOutcomePublishIntegration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := pnats.DefaultConfig()
	cfg.Name = "integration-test"
	cfg.Stream = "TX_LOOKUPS_IT"
	cfg.SubjectPrefix = "it.outcome"

	client, err := pnats.Connect(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer client.Close()

	stream, err := client.JetStream().Stream(ctx, cfg.Stream)
	if err != nil {
		t.Fatalf("Connect did not create the outcomes stream: %v", err)
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       "integration-test-consumer",
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
		FilterSubject: "it.outcome.bitcoin.>",
	})
	if err != nil {
		t.Fatalf("Failed to create consumer: %v", err)
	}

	out := txlookup.Outcome{
		LookupID:      uuid.NewString(),
		TransactionID: "2378076e8e140012814e98a2b2cb1af07ec760b239c1d6d93ba54d658a010ecd",
		Chain:         "bitcoin",
		Error:         "all explorer waves failed",
		CompletedAt:   time.Now().UTC(),
	}

	pub := client.Outcomes()
	// The second publish shares the msg id and is dropped by the stream.
	for range 2 {
		if err := pub.Publish(ctx, out); err != nil {
			t.Fatalf("Failed to publish outcome: %v", err)
		}
	}

	msgs, err := consumer.Fetch(2, jetstream.FetchMaxWait(2*time.Second))
	if err != nil {
		t.Fatalf("Failed to fetch messages: %v", err)
	}

	count := 0
	for msg := range msgs.Messages() {
		var received txlookup.Outcome
		if err := json.Unmarshal(msg.Data(), &received); err != nil {
			t.Errorf("Failed to unmarshal received message: %v", err)
		} else if received.LookupID != out.LookupID {
			t.Errorf("LookupID mismatch: got %v, want %v", received.LookupID, out.LookupID)
		}
		if msg.Subject() != "it.outcome.bitcoin.failed" {
			t.Errorf("unexpected subject %s", msg.Subject())
		}
		msg.Ack()
		count++
	}

	if count != 1 {
		t.Errorf("Expected 1 message after dedup, got %d", count)
	}
}
