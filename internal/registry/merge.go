package registry

import (
	"github.com/marko911/tx-lookup/pkg/explorer"
)

// MergeOverrides overlays custom adapters onto the built-ins sharing their
// service name. The merged list always has the built-ins' length and order.
// Customs that override nothing come back in remaining, in their original
// order. Neither input is modified.
func MergeOverrides(custom, builtIns []explorer.Adapter) (merged, remaining []explorer.Adapter, err error) {
	consumed := make([]bool, len(custom))
	merged = make([]explorer.Adapter, len(builtIns))

	for i, builtIn := range builtIns {
		merged[i] = builtIn
		j := findOverride(custom, consumed, builtIn.ServiceName)
		if j < 0 {
			continue
		}
		if err := custom[j].CheckKey(); err != nil {
			return nil, nil, err
		}
		merged[i] = builtIn.Overlay(custom[j])
		merged[i].Priority = builtIn.Priority
		consumed[j] = true
	}

	for j, c := range custom {
		if !consumed[j] {
			remaining = append(remaining, c)
		}
	}
	return merged, remaining, nil
}

func findOverride(custom []explorer.Adapter, consumed []bool, name explorer.ServiceName) int {
	if !name.Known() {
		return -1
	}
	for j, c := range custom {
		if !consumed[j] && c.ServiceName == name {
			return j
		}
	}
	return -1
}
