package ethereum

import (
	"context"

	"github.com/marko911/tx-lookup/internal/explorers/bitcoin"
	"github.com/marko911/tx-lookup/pkg/blockchain"
	"github.com/marko911/tx-lookup/pkg/explorer"
	"github.com/marko911/tx-lookup/pkg/txdata"
)

// parseBlockcypher reuses the bitcoin decoder since the payload shape is shared.
// Addresses come back without the 0x prefix.
func parseBlockcypher(_ context.Context, pc explorer.ParseContext) (*txdata.Record, error) {
	tx, err := bitcoin.DecodeBlockcypher(pc.Response)
	if err != nil {
		return nil, err
	}
	rec := tx.Record(blockchain.EthereumPrefixes)
	rec.IssuingAddress = blockchain.PrependHashPrefix(rec.IssuingAddress, blockchain.EthereumPrefixes)
	return rec, nil
}

// Blockcypher reads api.blockcypher.com for ethereum chains.
func Blockcypher() explorer.Adapter {
	return explorer.Adapter{
		ServiceName: explorer.ServiceBlockcypher,
		URL: explorer.NetworkURLs{
			Main: "https://api.blockcypher.com/v1/eth/main/txs/" + explorer.TransactionIDPlaceholder + "?limit=500",
			Test: "https://api.blockcypher.com/v1/beth/test/txs/" + explorer.TransactionIDPlaceholder + "?limit=500",
		},
		Parse:    parseBlockcypher,
		Priority: explorer.PriorityBuiltIn,
	}
}
