package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

type StreamConfig struct {
	Name        string
	Subjects    []string
	Retention   jetstream.RetentionPolicy
	MaxAge      time.Duration
	MaxBytes    int64
	Replicas    int
	Description string
}

// DefaultOutcomesStreamConfig captures every outcome published under prefix.
func DefaultOutcomesStreamConfig(name, prefix string) StreamConfig {
	return StreamConfig{
		Name:        name,
		Subjects:    []string{prefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      7 * 24 * time.Hour,
		MaxBytes:    1 << 30,
		Replicas:    1,
		Description: "Transaction lookup outcomes",
	}
}

// EnsureStream creates or updates the stream. Safe to call repeatedly.
func EnsureStream(ctx context.Context, js jetstream.JetStream, cfg StreamConfig) (jetstream.Stream, error) {
	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        cfg.Name,
		Subjects:    cfg.Subjects,
		Retention:   cfg.Retention,
		MaxAge:      cfg.MaxAge,
		MaxBytes:    cfg.MaxBytes,
		Replicas:    cfg.Replicas,
		Description: cfg.Description,
		Storage:     jetstream.FileStorage,
		Discard:     jetstream.DiscardOld,
		Duplicates:  2 * time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
	}
	return stream, nil
}

// SubjectForOutcome is <prefix>.<chain>.<resolved|failed>.
func SubjectForOutcome(prefix, chain string, resolved bool) string {
	status := "failed"
	if resolved {
		status = "resolved"
	}
	return fmt.Sprintf("%s.%s.%s", prefix, chain, status)
}
