// Package explorer describes transaction data sources (explorer REST APIs and
// node RPC endpoints) and how a single source is queried and normalized.
package explorer

import (
	"context"
	"encoding/json"

	"github.com/marko911/tx-lookup/pkg/blockchain"
	"github.com/marko911/tx-lookup/pkg/txdata"
)

// ServiceName identifies a known explorer service. Custom adapters using one of
// these names override the built-in adapter of the same name.
type ServiceName string

const (
	ServiceBitpay        ServiceName = "bitpay"
	ServiceBlockcypher   ServiceName = "blockcypher"
	ServiceBlockexplorer ServiceName = "blockexplorer"
	ServiceBlockstream   ServiceName = "blockstream"
	ServiceEtherscan     ServiceName = "etherscan"
)

// Known reports whether the name belongs to the known-service enumeration.
func (s ServiceName) Known() bool {
	switch s {
	case ServiceBitpay, ServiceBlockcypher, ServiceBlockexplorer, ServiceBlockstream, ServiceEtherscan:
		return true
	default:
		return false
	}
}

// Priority places custom adapters relative to the built-in wave.
type Priority int

const (
	PriorityBuiltIn Priority = -1 // reserved for built-in adapters
	PriorityFirst   Priority = 0  // custom wave raced before the built-ins
	PriorityLast    Priority = 1  // custom wave raced after the built-ins
)

// Valid reports whether p can be used by a custom adapter.
func (p Priority) Valid() bool {
	return p == PriorityFirst || p == PriorityLast
}

// SourceKind tells the invoker whether it fetches the response itself (REST)
// or hands the service URL to the parsing function (RPC).
type SourceKind int

const (
	KindREST SourceKind = iota
	KindRPC
)

func (k SourceKind) String() string {
	if k == KindRPC {
		return "rpc"
	}
	return "rest"
}

// RPCFamily selects the default parser for RPC adapters without one.
type RPCFamily int

const (
	RPCEthereum RPCFamily = iota
	RPCBitcoin
)

// ParseContext is everything a parsing function may need. Response is nil for
// RPC adapters, which issue their own requests through Transport.
type ParseContext struct {
	Response        json.RawMessage
	Chain           blockchain.Chain
	TransactionID   string
	ServiceURL      string
	Key             string
	KeyPropertyName string
	Transport       Transport
}

// ParseFunc maps one service's response into a normalized record. It may block
// on secondary requests and must fail when the service's own confirmation
// requirement is not met.
type ParseFunc func(ctx context.Context, pc ParseContext) (*txdata.Record, error)

// Adapter describes one transaction data source.
type Adapter struct {
	ServiceName     ServiceName
	URL             URLSource
	Parse           ParseFunc
	Priority        Priority
	Key             string
	KeyPropertyName string
	Kind            SourceKind
	RPCFamily       RPCFamily
}

// Name returns a label for logs and errors.
func (a Adapter) Name() string {
	if a.ServiceName != "" {
		return string(a.ServiceName)
	}
	if a.URL != nil {
		return "custom:" + a.Kind.String()
	}
	return "custom"
}

// Overlay returns a copy of a with every field set on o taking precedence.
// Priority is not carried over: an overridden adapter keeps its position.
func (a Adapter) Overlay(o Adapter) Adapter {
	merged := a
	if o.ServiceName != "" {
		merged.ServiceName = o.ServiceName
	}
	if o.URL != nil {
		merged.URL = o.URL
	}
	if o.Parse != nil {
		merged.Parse = o.Parse
	}
	if o.Key != "" {
		merged.Key = o.Key
	}
	if o.KeyPropertyName != "" {
		merged.KeyPropertyName = o.KeyPropertyName
	}
	if o.Kind != KindREST {
		merged.Kind = o.Kind
	}
	if o.RPCFamily != RPCEthereum {
		merged.RPCFamily = o.RPCFamily
	}
	return merged
}

// CheckKey enforces that a key always comes with the query parameter name it
// is sent under.
func (a Adapter) CheckKey() error {
	if a.Key != "" && a.KeyPropertyName == "" {
		return ConfigError("property keyPropertyName is not set for %s, cannot pass the key property to the service", a.Name())
	}
	return nil
}

// MinimumConfirmations is the confirmation count built-in parsers require
// before they accept a transaction.
const MinimumConfirmations = 1
