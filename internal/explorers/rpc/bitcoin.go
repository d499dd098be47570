package rpc

import (
	"context"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/marko911/tx-lookup/pkg/blockchain"
	"github.com/marko911/tx-lookup/pkg/explorer"
	"github.com/marko911/tx-lookup/pkg/txdata"
)

// ParseBitcoin looks the transaction up with verbose getrawtransaction. The
// data output is expected at index 1 and every output address is reported.
func ParseBitcoin(ctx context.Context, pc explorer.ParseContext) (*txdata.Record, error) {
	if _, err := chainhash.NewHashFromStr(pc.TransactionID); err != nil {
		return nil, fmt.Errorf("invalid bitcoin transaction id: %w", err)
	}

	var tx btcjson.TxRawResult
	if err := call(ctx, pc, "rpctest", "getrawtransaction", &tx, pc.TransactionID, true); err != nil {
		return nil, err
	}
	if len(tx.Vout) < 2 || len(tx.Vout[0].ScriptPubKey.Addresses) == 0 {
		return nil, fmt.Errorf("getrawtransaction: unexpected output layout for %s", pc.TransactionID)
	}

	revoked := []string{}
	for _, out := range tx.Vout {
		revoked = append(revoked, out.ScriptPubKey.Addresses...)
	}
	return &txdata.Record{
		RemoteHash:       blockchain.StripHashPrefix(tx.Vout[1].ScriptPubKey.Asm, blockchain.BitcoinPrefixes),
		IssuingAddress:   tx.Vout[0].ScriptPubKey.Addresses[0],
		Time:             time.Unix(tx.Blocktime, 0).UTC(),
		RevokedAddresses: revoked,
	}, nil
}
