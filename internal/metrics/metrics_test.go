package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/marko911/tx-lookup/pkg/explorer"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "resolved"},
		{explorer.ConfigError("bad"), "configuration"},
		{&explorer.ExhaustedError{Waves: 1, Err: fmt.Errorf("%w: a vs b", explorer.ErrConsistency)}, "inconsistent"},
		{&explorer.ExhaustedError{Waves: 2, Err: explorer.ErrNoConfirmation}, "unconfirmed"},
		{errors.New("boom"), "failed"},
	}
	for _, tt := range tests {
		if got := outcome(tt.err); got != tt.want {
			t.Errorf("outcome(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestHandlerExposesCounters(t *testing.T) {
	o := New("txlookup")
	o.SourceSettled("blockstream", nil, 120*time.Millisecond)
	o.SourceSettled("blockcypher", errors.New("429"), 80*time.Millisecond)
	o.WaveFinished(0, nil)
	o.LookupFinished(nil, time.Second)

	rec := httptest.NewRecorder()
	o.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		`txlookup_lookups_total{outcome="resolved"} 1`,
		`txlookup_source_results_total{result="error",service="blockcypher"} 1`,
		`txlookup_source_results_total{result="ok",service="blockstream"} 1`,
		`txlookup_waves_total{outcome="resolved",wave="0"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
