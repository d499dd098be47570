// Package registry turns a chain and a caller's custom adapters into the
// ordered waves the engine races.
package registry

import (
	"fmt"

	"github.com/marko911/tx-lookup/internal/explorers/bitcoin"
	"github.com/marko911/tx-lookup/internal/explorers/ethereum"
	"github.com/marko911/tx-lookup/internal/explorers/rpc"
	"github.com/marko911/tx-lookup/pkg/blockchain"
	"github.com/marko911/tx-lookup/pkg/explorer"
)

// Registry maps chain families to their built-in adapter lists. The
// catalogue of a family may hold services that are not raced by default but
// can be enabled by naming them.
type Registry struct {
	builtIns  map[blockchain.Family]func() []explorer.Adapter
	catalogue map[blockchain.Family]func() []explorer.Adapter
}

// New returns a registry with the bitcoin and ethereum built-ins registered.
func New() *Registry {
	reg := &Registry{
		builtIns:  make(map[blockchain.Family]func() []explorer.Adapter),
		catalogue: make(map[blockchain.Family]func() []explorer.Adapter),
	}

	reg.Register(blockchain.FamilyBitcoin, bitcoin.Explorers)
	reg.Register(blockchain.FamilyEthereum, ethereum.Explorers)
	reg.RegisterCatalogue(blockchain.FamilyBitcoin, bitcoin.All)

	return reg
}

// Register sets the built-in list constructor for a family, replacing any
// previous one.
func (r *Registry) Register(family blockchain.Family, list func() []explorer.Adapter) {
	r.builtIns[family] = list
}

// RegisterCatalogue sets every adapter a family knows by name. Families
// without a catalogue use their built-in list.
func (r *Registry) RegisterCatalogue(family blockchain.Family, all func() []explorer.Adapter) {
	r.catalogue[family] = all
}

// SelectBuiltIns returns a fresh copy of the built-in list for chain.
func (r *Registry) SelectBuiltIns(chain blockchain.Chain) ([]explorer.Adapter, error) {
	list, ok := r.builtIns[chain.Family()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", explorer.ErrUnsupportedChain, chain)
	}
	return list(), nil
}

// Waves builds the ordered waves for one lookup. Nothing here touches the
// network, so every configuration error surfaces before the first request.
func (r *Registry) Waves(chain blockchain.Chain, custom []explorer.Adapter) ([][]explorer.Adapter, error) {
	custom = Prepare(custom)

	builtIns, err := r.SelectBuiltIns(chain)
	if err != nil {
		custom = r.resolveNamed(chain.Family(), custom)
		if len(custom) == 0 {
			return nil, err
		}
		if err := ValidateCustom(custom); err != nil {
			return nil, err
		}
		return [][]explorer.Adapter{custom}, nil
	}

	merged, remaining, err := MergeOverrides(custom, builtIns)
	if err != nil {
		return nil, err
	}
	remaining = r.resolveNamed(chain.Family(), remaining)
	if err := ValidateCustom(remaining); err != nil {
		return nil, err
	}
	return BuildWaves(merged, remaining), nil
}

// resolveNamed completes customs that only name a known service. A service
// in the family's catalogue becomes an additional source built on the
// catalogue entry, keeping the custom's priority. Name-only entries for
// services this family does not know are dropped, so one configuration can
// carry keys for every family.
func (r *Registry) resolveNamed(family blockchain.Family, custom []explorer.Adapter) []explorer.Adapter {
	var known []explorer.Adapter
	if all, ok := r.catalogue[family]; ok {
		known = all()
	} else if list, ok := r.builtIns[family]; ok {
		known = list()
	}

	out := make([]explorer.Adapter, 0, len(custom))
	for _, c := range custom {
		if !c.ServiceName.Known() || c.Parse != nil {
			out = append(out, c)
			continue
		}
		base, ok := findService(known, c.ServiceName)
		if !ok {
			continue
		}
		a := base.Overlay(c)
		a.Priority = c.Priority
		out = append(out, a)
	}
	return out
}

func findService(adapters []explorer.Adapter, name explorer.ServiceName) (explorer.Adapter, bool) {
	for _, a := range adapters {
		if a.ServiceName == name {
			return a, true
		}
	}
	return explorer.Adapter{}, false
}

// Prepare returns a copy of custom where RPC adapters without a parsing
// function get the default parser for their family.
func Prepare(custom []explorer.Adapter) []explorer.Adapter {
	if len(custom) == 0 {
		return nil
	}
	out := make([]explorer.Adapter, len(custom))
	for i, a := range custom {
		if a.Kind == explorer.KindRPC && a.Parse == nil {
			a.Parse = rpc.DefaultParser(a.RPCFamily)
		}
		out[i] = a
	}
	return out
}
