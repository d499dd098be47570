// Package blockchain defines the chain identifiers understood by the lookup
// and the per-family details adapters need (test network flag, hash prefixes).
package blockchain

import (
	"strings"
)

// Chain is a chain identifier code such as "bitcoin" or "ethmain".
type Chain string

const (
	Bitcoin    Chain = "bitcoin"
	Testnet    Chain = "testnet"
	Regtest    Chain = "regtest"
	Mocknet    Chain = "mocknet"
	Ethmain    Chain = "ethmain"
	Ethropst   Chain = "ethropst"
	Ethrinkeby Chain = "ethrinkeby"
	Ethgoerli  Chain = "ethgoerli"
	Ethsepolia Chain = "ethsepolia"
)

// Family groups chains that share built-in explorers.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyBitcoin
	FamilyEthereum
)

func (f Family) String() string {
	switch f {
	case FamilyBitcoin:
		return "bitcoin"
	case FamilyEthereum:
		return "ethereum"
	default:
		return "unknown"
	}
}

// Hash prefixes stripped from embedded data, per family.
var (
	BitcoinPrefixes  = []string{"6a20", "OP_RETURN "}
	EthereumPrefixes = []string{"0x"}
)

type chainInfo struct {
	family Family
	test   bool
	name   string
}

var chains = map[Chain]chainInfo{
	Bitcoin:    {FamilyBitcoin, false, "Bitcoin"},
	Testnet:    {FamilyBitcoin, true, "Bitcoin Testnet"},
	Regtest:    {FamilyBitcoin, true, "Bitcoin Regtest"},
	Mocknet:    {FamilyBitcoin, true, "Mocknet"},
	Ethmain:    {FamilyEthereum, false, "Ethereum"},
	Ethropst:   {FamilyEthereum, true, "Ethereum Testnet Ropsten"},
	Ethrinkeby: {FamilyEthereum, true, "Ethereum Testnet Rinkeby"},
	Ethgoerli:  {FamilyEthereum, true, "Ethereum Testnet Goerli"},
	Ethsepolia: {FamilyEthereum, true, "Ethereum Testnet Sepolia"},
}

// Parse normalizes a user supplied chain code. Unknown codes are returned as-is
// so callers can still resolve them through custom explorers.
func Parse(code string) Chain {
	return Chain(strings.ToLower(strings.TrimSpace(code)))
}

// Family returns the chain family, FamilyUnknown for unrecognized chains.
func (c Chain) Family() Family {
	return chains[c].family
}

// Supported reports whether the chain has built-in explorers.
func (c Chain) Supported() bool {
	_, ok := chains[c]
	return ok
}

// IsTest reports whether the chain is a test network. Unknown chains are
// treated as main networks.
func (c Chain) IsTest() bool {
	return chains[c].test
}

// Name returns a human readable chain name.
func (c Chain) Name() string {
	if info, ok := chains[c]; ok {
		return info.name
	}
	return string(c)
}

func (c Chain) String() string {
	return string(c)
}

// Prefixes returns the hash prefixes for the chain family.
func (c Chain) Prefixes() []string {
	switch c.Family() {
	case FamilyBitcoin:
		return BitcoinPrefixes
	case FamilyEthereum:
		return EthereumPrefixes
	default:
		return nil
	}
}

// StripHashPrefix removes the first matching prefix from hash.
func StripHashPrefix(hash string, prefixes []string) string {
	for _, prefix := range prefixes {
		if strings.HasPrefix(hash, prefix) {
			return hash[len(prefix):]
		}
	}
	return hash
}

// PrependHashPrefix adds the first prefix hash does not already start with.
func PrependHashPrefix(hash string, prefixes []string) string {
	for _, prefix := range prefixes {
		if !strings.HasPrefix(hash, prefix) {
			return prefix + hash
		}
	}
	return hash
}
