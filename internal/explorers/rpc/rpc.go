// Package rpc implements the default parsers for custom node RPC endpoints.
// Unlike explorer parsers they issue their own JSON-RPC calls against the
// service URL.
package rpc

import (
	"context"
	"fmt"
	"net/http"

	"github.com/marko911/tx-lookup/internal/explorers/ethereum"
	"github.com/marko911/tx-lookup/pkg/explorer"
)

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// call POSTs one JSON-RPC request and decodes its result into out.
func call(ctx context.Context, pc explorer.ParseContext, id, method string, out any, params ...any) error {
	body, err := pc.Transport.Perform(ctx, explorer.Request{
		URL:    pc.ServiceURL,
		Method: http.MethodPost,
		Body:   request{JSONRPC: "2.0", ID: id, Method: method, Params: params},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if err := ethereum.DecodeResult(body, out); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

// DefaultParser returns the parser used by RPC adapters that bring none.
func DefaultParser(family explorer.RPCFamily) explorer.ParseFunc {
	if family == explorer.RPCBitcoin {
		return ParseBitcoin
	}
	return ParseEthereum
}
