package bitcoin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/marko911/tx-lookup/pkg/blockchain"
	"github.com/marko911/tx-lookup/pkg/explorer"
	"github.com/marko911/tx-lookup/pkg/txdata"
)

type blockstreamTx struct {
	Status struct {
		Confirmed bool  `json:"confirmed"`
		BlockTime int64 `json:"block_time"`
	} `json:"status"`
	Vin []struct {
		Prevout struct {
			Address string `json:"scriptpubkey_address"`
		} `json:"prevout"`
	} `json:"vin"`
	Vout []struct {
		ScriptPubKey string `json:"scriptpubkey"`
		Address      string `json:"scriptpubkey_address"`
	} `json:"vout"`
}

func parseBlockstream(_ context.Context, pc explorer.ParseContext) (*txdata.Record, error) {
	var tx blockstreamTx
	if err := json.Unmarshal(pc.Response, &tx); err != nil {
		return nil, fmt.Errorf("decode blockstream tx: %w", err)
	}
	if !tx.Status.Confirmed {
		return nil, notConfirmed("Blockstream")
	}
	if len(tx.Vin) == 0 || len(tx.Vout) == 0 {
		return nil, malformed("blockstream tx has no inputs or outputs")
	}

	revoked := []string{}
	for _, out := range tx.Vout {
		if out.Address != "" {
			revoked = append(revoked, out.Address)
		}
	}
	return &txdata.Record{
		RemoteHash:       blockchain.StripHashPrefix(tx.Vout[len(tx.Vout)-1].ScriptPubKey, blockchain.BitcoinPrefixes),
		IssuingAddress:   tx.Vin[0].Prevout.Address,
		Time:             unixTime(tx.Status.BlockTime),
		RevokedAddresses: revoked,
	}, nil
}

// Blockstream reads blockstream.info esplora.
func Blockstream() explorer.Adapter {
	return explorer.Adapter{
		ServiceName: explorer.ServiceBlockstream,
		URL: explorer.NetworkURLs{
			Main: "https://blockstream.info/api/tx/" + explorer.TransactionIDPlaceholder,
			Test: "https://blockstream.info/testnet/api/tx/" + explorer.TransactionIDPlaceholder,
		},
		Parse:    parseBlockstream,
		Priority: explorer.PriorityBuiltIn,
	}
}
