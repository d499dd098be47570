package rpc

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/marko911/tx-lookup/internal/explorers/ethereum"
	"github.com/marko911/tx-lookup/pkg/explorer"
	"github.com/marko911/tx-lookup/pkg/txdata"
)

// ParseEthereum fetches the transaction and then its block for the timestamp.
func ParseEthereum(ctx context.Context, pc explorer.ParseContext) (*txdata.Record, error) {
	hash := pc.TransactionID
	if !strings.HasPrefix(hash, "0x") {
		hash = "0x" + hash
	}

	var tx ethereum.Transaction
	if err := call(ctx, pc, "getbyhash", "eth_getTransactionByHash", &tx, hash); err != nil {
		return nil, err
	}
	if tx.BlockNumber == nil {
		return nil, ethereum.ErrNotConfirmed
	}

	var block ethereum.Block
	if err := call(ctx, pc, "blockbynumber", "eth_getBlockByNumber", &block, hexutil.EncodeUint64(uint64(*tx.BlockNumber)), true); err != nil {
		return nil, err
	}
	return ethereum.Record(&tx, &block)
}
