package explorer

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/marko911/tx-lookup/pkg/blockchain"
	"github.com/marko911/tx-lookup/pkg/txdata"
)

// Invoke queries one adapter for transactionID on chain. Every failure is
// returned as a *LookupError naming the adapter.
func Invoke(ctx context.Context, t Transport, a Adapter, transactionID string, chain blockchain.Chain) (*txdata.Record, error) {
	fail := func(err error) (*txdata.Record, error) {
		return nil, &LookupError{Service: a.Name(), Err: err}
	}

	if a.Parse == nil {
		return fail(ErrMissingParser)
	}
	serviceURL, err := BuildURL(a, transactionID, chain)
	if err != nil {
		return fail(err)
	}

	pc := ParseContext{
		Chain:           chain,
		TransactionID:   transactionID,
		ServiceURL:      serviceURL,
		Key:             a.Key,
		KeyPropertyName: a.KeyPropertyName,
		Transport:       t,
	}

	if a.Kind == KindREST {
		body, err := t.Perform(ctx, Request{URL: serviceURL, Method: http.MethodGet})
		if err != nil {
			return fail(err)
		}
		if !json.Valid(body) {
			return fail(ErrInvalidJSON)
		}
		pc.Response = body
	}

	rec, err := a.Parse(ctx, pc)
	if err != nil {
		return fail(err)
	}
	if rec == nil {
		return fail(ErrEmptyRecord)
	}
	return rec, nil
}
