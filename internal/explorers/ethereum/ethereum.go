// Package ethereum holds the built-in explorer adapters for ethereum chains and
// the JSON-RPC shapes they share with node RPC lookups.
package ethereum

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/marko911/tx-lookup/pkg/blockchain"
	"github.com/marko911/tx-lookup/pkg/explorer"
	"github.com/marko911/tx-lookup/pkg/txdata"
)

var (
	ErrNotConfirmed = errors.New("not enough confirmations")
	ErrNotFound     = errors.New("transaction not found")
	ErrRemoteHash   = errors.New("unable to get remote hash")
)

// Explorers returns the default ethereum adapter list in race order.
func Explorers() []explorer.Adapter {
	return []explorer.Adapter{Etherscan(), Blockcypher()}
}

// Transaction is the eth_getTransactionByHash result fields we read.
type Transaction struct {
	BlockNumber *hexutil.Uint64 `json:"blockNumber"`
	From        string          `json:"from"`
	Input       string          `json:"input"`
}

// Block is the eth_getBlockByNumber result fields we read.
type Block struct {
	Timestamp hexutil.Uint64 `json:"timestamp"`
}

// Envelope is a JSON-RPC style response, also used by the etherscan proxy module.
type Envelope struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// DecodeResult unwraps an envelope into out. A null result is ErrNotFound.
func DecodeResult(raw []byte, out any) error {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if env.Error != nil {
		return fmt.Errorf("rpc error %d: %s", env.Error.Code, env.Error.Message)
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return ErrNotFound
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

// Record builds the normalized record for a transaction mined in block.
// Ethereum has no spendable outputs, so nothing is ever reported as revoked.
func Record(tx *Transaction, block *Block) (*txdata.Record, error) {
	if !common.IsHexAddress(tx.From) {
		return nil, fmt.Errorf("invalid sender address %q", tx.From)
	}
	return &txdata.Record{
		RemoteHash:       blockchain.StripHashPrefix(tx.Input, blockchain.EthereumPrefixes),
		IssuingAddress:   tx.From,
		Time:             time.Unix(int64(block.Timestamp), 0).UTC(),
		RevokedAddresses: []string{},
	}, nil
}
