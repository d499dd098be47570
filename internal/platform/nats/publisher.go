package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/marko911/tx-lookup/pkg/txlookup"
)

// streamPublisher is the part of jetstream.JetStream the publisher needs.
type streamPublisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// OutcomePublisher sends each lookup outcome to JetStream, deduplicated by
// lookup id.
type OutcomePublisher struct {
	js     streamPublisher
	prefix string
	logger *slog.Logger
}

func NewOutcomePublisher(js streamPublisher, prefix string, logger *slog.Logger) *OutcomePublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &OutcomePublisher{
		js:     js,
		prefix: prefix,
		logger: logger.With("component", "outcome-publisher"),
	}
}

func (p *OutcomePublisher) Publish(ctx context.Context, o txlookup.Outcome) error {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshal outcome: %w", err)
	}

	subject := SubjectForOutcome(p.prefix, string(o.Chain), o.Resolved)
	ack, err := p.js.Publish(ctx, subject, data, jetstream.WithMsgID(o.LookupID))
	if err != nil {
		return fmt.Errorf("publish outcome to %s: %w", subject, err)
	}

	p.logger.Debug("published outcome",
		"subject", subject,
		"lookup_id", o.LookupID,
		"stream", ack.Stream,
		"seq", ack.Sequence,
		"duplicate", ack.Duplicate,
	)
	return nil
}
