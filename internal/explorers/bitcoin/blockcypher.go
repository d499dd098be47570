package bitcoin

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/marko911/tx-lookup/pkg/blockchain"
	"github.com/marko911/tx-lookup/pkg/explorer"
	"github.com/marko911/tx-lookup/pkg/txdata"
)

// BlockcypherTx is the subset of the blockcypher transaction payload we read.
// The ethereum endpoint shares the same shape.
type BlockcypherTx struct {
	Confirmations int64     `json:"confirmations"`
	Received      time.Time `json:"received"`
	Inputs        []struct {
		Addresses []string `json:"addresses"`
	} `json:"inputs"`
	Outputs []BlockcypherOutput `json:"outputs"`
}

type BlockcypherOutput struct {
	Script    string   `json:"script"`
	Addresses []string `json:"addresses"`
	SpentBy   string   `json:"spent_by"`
}

// DecodeBlockcypher decodes and sanity checks a blockcypher payload.
func DecodeBlockcypher(raw []byte) (*BlockcypherTx, error) {
	var tx BlockcypherTx
	if err := json.Unmarshal(raw, &tx); err != nil {
		return nil, fmt.Errorf("decode blockcypher tx: %w", err)
	}
	if tx.Confirmations < explorer.MinimumConfirmations {
		return nil, notConfirmed("Blockcypher")
	}
	if len(tx.Inputs) == 0 || len(tx.Inputs[0].Addresses) == 0 {
		return nil, malformed("blockcypher tx has no input address")
	}
	if len(tx.Outputs) == 0 {
		return nil, malformed("blockcypher tx has no outputs")
	}
	return &tx, nil
}

// Record maps the payload to a record, stripping prefixes from the last
// output script. Spent outputs are reported as revoked addresses.
func (tx *BlockcypherTx) Record(prefixes []string) *txdata.Record {
	last := tx.Outputs[len(tx.Outputs)-1]
	revoked := []string{}
	for _, out := range tx.Outputs {
		if out.SpentBy != "" && len(out.Addresses) > 0 {
			revoked = append(revoked, out.Addresses[0])
		}
	}
	return &txdata.Record{
		RemoteHash:       blockchain.StripHashPrefix(last.Script, prefixes),
		IssuingAddress:   tx.Inputs[0].Addresses[0],
		Time:             tx.Received.UTC(),
		RevokedAddresses: revoked,
	}
}

func parseBlockcypher(_ context.Context, pc explorer.ParseContext) (*txdata.Record, error) {
	tx, err := DecodeBlockcypher(pc.Response)
	if err != nil {
		return nil, err
	}
	return tx.Record(blockchain.BitcoinPrefixes), nil
}

// Blockcypher reads api.blockcypher.com.
func Blockcypher() explorer.Adapter {
	return explorer.Adapter{
		ServiceName: explorer.ServiceBlockcypher,
		URL: explorer.NetworkURLs{
			Main: "https://api.blockcypher.com/v1/btc/main/txs/" + explorer.TransactionIDPlaceholder + "?limit=500",
			Test: "https://api.blockcypher.com/v1/btc/test3/txs/" + explorer.TransactionIDPlaceholder + "?limit=500",
		},
		Parse:    parseBlockcypher,
		Priority: explorer.PriorityBuiltIn,
	}
}
