package engine

import (
	"fmt"
	"strings"
)

// Policy decides how a wave's results become one answer.
type Policy int

const (
	// PolicyQuorum waits for MinimumSources successes and requires them to
	// agree on issuing address and remote hash.
	PolicyQuorum Policy = iota
	// PolicyFirstValid races every adapter in the wave and takes the first
	// structurally valid record. A single lying source can win under it.
	PolicyFirstValid
)

func (p Policy) String() string {
	switch p {
	case PolicyQuorum:
		return "quorum"
	case PolicyFirstValid:
		return "first-valid"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy accepts the names printed by Policy.String.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "quorum":
		return PolicyQuorum, nil
	case "first-valid", "first_valid", "firstvalid":
		return PolicyFirstValid, nil
	default:
		return 0, fmt.Errorf("unknown arbitration policy %q", s)
	}
}

type Config struct {
	// MinimumSources is the quorum threshold. It must fit every wave.
	MinimumSources int

	// RaceAll launches every adapter of a wave instead of only the first
	// MinimumSources of them. First-valid always races the whole wave.
	RaceAll bool

	Policy Policy
}

func DefaultConfig() Config {
	return Config{
		MinimumSources: 1,
		RaceAll:        false,
		Policy:         PolicyQuorum,
	}
}
