package txdata

import (
	"testing"
	"time"
)

func TestRecord_Valid(t *testing.T) {
	tests := []struct {
		name   string
		record *Record
		want   bool
	}{
		{"nil record", nil, false},
		{"empty record", &Record{}, false},
		{"missing hash", &Record{IssuingAddress: "1Awd"}, false},
		{"missing address", &Record{RemoteHash: "b2ce"}, false},
		{"complete", &Record{IssuingAddress: "1Awd", RemoteHash: "b2ce", Time: time.Now()}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.record.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecord_SameAs(t *testing.T) {
	a := &Record{IssuingAddress: "addr", RemoteHash: "hash", Time: time.Unix(1, 0)}
	b := &Record{IssuingAddress: "addr", RemoteHash: "hash", Time: time.Unix(2, 0), RevokedAddresses: []string{"x"}}
	c := &Record{IssuingAddress: "other", RemoteHash: "hash"}

	if !a.SameAs(b) {
		t.Error("expected records differing only in time and revocations to agree")
	}
	if a.SameAs(c) {
		t.Error("expected records with different issuing addresses to disagree")
	}
	if a.SameAs(nil) {
		t.Error("expected non-nil record to disagree with nil")
	}
}
