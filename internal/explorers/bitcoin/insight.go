package bitcoin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/marko911/tx-lookup/pkg/blockchain"
	"github.com/marko911/tx-lookup/pkg/explorer"
	"github.com/marko911/tx-lookup/pkg/txdata"
)

// insightTx is the insight API shape served by bitpay and blockexplorer.
type insightTx struct {
	Confirmations int64 `json:"confirmations"`
	BlockTime     int64 `json:"blocktime"`
	Vout          []struct {
		SpentTxID    string `json:"spentTxId"`
		ScriptPubKey struct {
			Hex       string   `json:"hex"`
			Addresses []string `json:"addresses"`
		} `json:"scriptPubKey"`
	} `json:"vout"`
}

func insightParser(service string) explorer.ParseFunc {
	return func(_ context.Context, pc explorer.ParseContext) (*txdata.Record, error) {
		var tx insightTx
		if err := json.Unmarshal(pc.Response, &tx); err != nil {
			return nil, fmt.Errorf("decode %s tx: %w", service, err)
		}
		if tx.Confirmations < explorer.MinimumConfirmations {
			return nil, notConfirmed(service)
		}
		if len(tx.Vout) == 0 || len(tx.Vout[0].ScriptPubKey.Addresses) == 0 {
			return nil, malformed("%s tx has no output address", service)
		}

		revoked := []string{}
		for _, out := range tx.Vout {
			if out.SpentTxID != "" && len(out.ScriptPubKey.Addresses) > 0 {
				revoked = append(revoked, out.ScriptPubKey.Addresses[0])
			}
		}
		return &txdata.Record{
			RemoteHash:       blockchain.StripHashPrefix(tx.Vout[len(tx.Vout)-1].ScriptPubKey.Hex, blockchain.BitcoinPrefixes),
			IssuingAddress:   tx.Vout[0].ScriptPubKey.Addresses[0],
			Time:             unixTime(tx.BlockTime),
			RevokedAddresses: revoked,
		}, nil
	}
}

// Bitpay reads the bitpay insight API.
func Bitpay() explorer.Adapter {
	return explorer.Adapter{
		ServiceName: explorer.ServiceBitpay,
		URL: explorer.NetworkURLs{
			Main: "https://insight.bitpay.com/api/tx/" + explorer.TransactionIDPlaceholder,
			Test: "https://api.bitcore.io/api/BTC/testnet/tx/" + explorer.TransactionIDPlaceholder,
		},
		Parse:    insightParser("Bitpay"),
		Priority: explorer.PriorityBuiltIn,
	}
}

// Blockexplorer reads blockexplorer.com.
func Blockexplorer() explorer.Adapter {
	return explorer.Adapter{
		ServiceName: explorer.ServiceBlockexplorer,
		URL: explorer.NetworkURLs{
			Main: "https://blockexplorer.com/api/tx/" + explorer.TransactionIDPlaceholder,
			Test: "https://testnet.blockexplorer.com/api/tx/" + explorer.TransactionIDPlaceholder,
		},
		Parse:    insightParser("Blockexplorer"),
		Priority: explorer.PriorityBuiltIn,
	}
}
