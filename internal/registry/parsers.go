package registry

import (
	"sort"

	"github.com/marko911/tx-lookup/internal/explorers/bitcoin"
	"github.com/marko911/tx-lookup/internal/explorers/ethereum"
	"github.com/marko911/tx-lookup/internal/explorers/rpc"
	"github.com/marko911/tx-lookup/pkg/explorer"
)

// parsers lets configured adapters reuse a built-in response format, for
// example a self-hosted esplora instance parsed like blockstream.
var parsers = map[string]explorer.ParseFunc{
	"blockcypher":     bitcoin.Blockcypher().Parse,
	"blockstream":     bitcoin.Blockstream().Parse,
	"bitpay":          bitcoin.Bitpay().Parse,
	"blockexplorer":   bitcoin.Blockexplorer().Parse,
	"etherscan":       ethereum.Etherscan().Parse,
	"blockcypher-eth": ethereum.Blockcypher().Parse,
	"rpc-bitcoin":     rpc.ParseBitcoin,
	"rpc-ethereum":    rpc.ParseEthereum,
}

// NamedParser returns the built-in parser registered under name.
func NamedParser(name string) (explorer.ParseFunc, bool) {
	p, ok := parsers[name]
	return p, ok
}

// ParserNames lists the names NamedParser accepts.
func ParserNames() []string {
	names := make([]string, 0, len(parsers))
	for name := range parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
