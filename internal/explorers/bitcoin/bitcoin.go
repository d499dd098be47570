// Package bitcoin holds the built-in explorer adapters for bitcoin chains.
package bitcoin

import (
	"errors"
	"fmt"
	"time"

	"github.com/marko911/tx-lookup/pkg/explorer"
)

var (
	ErrNotConfirmed = errors.New("number of transaction confirmations were less than the minimum required")
	ErrMalformed    = errors.New("malformed explorer response")
)

// Explorers returns the default bitcoin adapter list in race order.
func Explorers() []explorer.Adapter {
	return []explorer.Adapter{Blockcypher(), Blockstream()}
}

// All returns every bitcoin adapter shipped with the module, including those
// that are not raced by default.
func All() []explorer.Adapter {
	return []explorer.Adapter{Blockcypher(), Blockstream(), Bitpay(), Blockexplorer()}
}

func notConfirmed(service string) error {
	return fmt.Errorf("%w, according to %s API", ErrNotConfirmed, service)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
