package registry

import (
	"github.com/marko911/tx-lookup/pkg/explorer"
)

// ValidateCustom checks the adapters that will form the additional wave.
func ValidateCustom(additional []explorer.Adapter) error {
	for _, a := range additional {
		if !a.Priority.Valid() {
			return explorer.ConfigError("one or more of your custom explorer APIs has a priority set below 0 or above 1, " +
				"use 0 to give precedence to custom explorers over the default ones, or 1 for the contrary")
		}
	}
	for _, a := range additional {
		if a.Parse == nil {
			return explorer.ConfigError("one or more of your custom explorer APIs does not have a parsing function, " +
				"parsing functions are required to convert the data received from the explorer")
		}
	}
	for _, a := range additional {
		if err := a.CheckKey(); err != nil {
			return err
		}
	}
	if len(additional) > 1 {
		first := additional[0].Priority
		for _, a := range additional[1:] {
			if a.Priority != first {
				return explorer.ConfigError("custom explorer APIs form a single wave and must share one priority, got %d and %d", first, a.Priority)
			}
		}
	}
	return nil
}

// BuildWaves places the defaults at index 0 and inserts the additional wave
// at its shared priority: 0 races it first, 1 races it after the defaults.
func BuildWaves(defaults, additional []explorer.Adapter) [][]explorer.Adapter {
	waves := [][]explorer.Adapter{defaults}
	if len(additional) == 0 {
		return waves
	}
	if additional[0].Priority == explorer.PriorityFirst {
		return [][]explorer.Adapter{additional, defaults}
	}
	return append(waves, additional)
}
