package ethereum

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/sync/errgroup"

	"github.com/marko911/tx-lookup/pkg/blockchain"
	"github.com/marko911/tx-lookup/pkg/explorer"
	"github.com/marko911/tx-lookup/pkg/txdata"
)

const etherscanMainBase = "https://api.etherscan.io/api?module=proxy"

var etherscanBases = map[blockchain.Chain]string{
	blockchain.Ethmain:    etherscanMainBase,
	blockchain.Ethropst:   "https://api-ropsten.etherscan.io/api?module=proxy",
	blockchain.Ethrinkeby: "https://api-rinkeby.etherscan.io/api?module=proxy",
	blockchain.Ethgoerli:  "https://api-goerli.etherscan.io/api?module=proxy",
	blockchain.Ethsepolia: "https://api-sepolia.etherscan.io/api?module=proxy",
}

func etherscanBase(chain blockchain.Chain) string {
	if base, ok := etherscanBases[chain]; ok {
		return base
	}
	return etherscanMainBase
}

func etherscanTxURL(chain blockchain.Chain) string {
	return etherscanBase(chain) + "&action=eth_getTransactionByHash&txhash=" + explorer.TransactionIDPlaceholder
}

// parseEtherscan needs two follow-up calls: the block for its timestamp and the
// chain head for the confirmation count. Both run concurrently.
func parseEtherscan(ctx context.Context, pc explorer.ParseContext) (*txdata.Record, error) {
	var tx Transaction
	if err := DecodeResult(pc.Response, &tx); err != nil {
		return nil, fmt.Errorf("etherscan transaction: %w", err)
	}
	if tx.BlockNumber == nil {
		return nil, ErrNotConfirmed
	}
	blockNumber := uint64(*tx.BlockNumber)
	base := etherscanBase(pc.Chain)

	withKey := func(u string) string {
		if pc.Key != "" && pc.KeyPropertyName != "" {
			return explorer.AppendURLParameter(u, pc.KeyPropertyName, pc.Key)
		}
		return u
	}
	blockURL := withKey(base + "&action=eth_getBlockByNumber&boolean=true&tag=" + hexutil.EncodeUint64(blockNumber))
	headURL := withKey(base + "&action=eth_blockNumber")

	var (
		block Block
		head  hexutil.Uint64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		body, err := pc.Transport.Perform(gctx, explorer.Request{URL: blockURL, Method: http.MethodGet})
		if err != nil {
			return err
		}
		return DecodeResult(body, &block)
	})
	g.Go(func() error {
		body, err := pc.Transport.Perform(gctx, explorer.Request{URL: headURL, Method: http.MethodGet})
		if err != nil {
			return err
		}
		return DecodeResult(body, &head)
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteHash, err)
	}

	if uint64(head) < blockNumber || uint64(head)-blockNumber < explorer.MinimumConfirmations {
		return nil, ErrNotConfirmed
	}
	return Record(&tx, &block)
}

// Etherscan reads the etherscan proxy module.
func Etherscan() explorer.Adapter {
	return explorer.Adapter{
		ServiceName: explorer.ServiceEtherscan,
		URL:         explorer.URLFunc(etherscanTxURL),
		Parse:       parseEtherscan,
		Priority:    explorer.PriorityBuiltIn,
	}
}
