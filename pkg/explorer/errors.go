package explorer

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks fatal setup problems: bad priority, missing parser,
	// key without keyPropertyName, minimum source count out of range.
	ErrConfiguration = errors.New("invalid explorer configuration")

	// ErrUnsupportedChain is returned when a chain has no built-in explorers and
	// no custom explorers were supplied.
	ErrUnsupportedChain = errors.New("chain is not natively supported, use custom explorers to retrieve tx data")

	// ErrConsistency is returned when successful sources of one wave disagree.
	ErrConsistency = errors.New("explorer responses do not match consistently")

	// ErrNoConfirmation is returned when a wave settles without enough usable answers.
	ErrNoConfirmation = errors.New("could not confirm transaction data")

	ErrMissingURL    = errors.New("no service URL defined")
	ErrMissingParser = errors.New("no parsing function defined")
	ErrInvalidJSON   = errors.New("response is not valid JSON")
	ErrEmptyRecord   = errors.New("parsing function returned no record")
)

// LookupError is a single source failure: transport, decoding or parsing.
// It is counted as one failed vote and never escapes its wave on its own.
type LookupError struct {
	Service string
	Err     error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup via %s failed: %v", e.Service, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// ExhaustedError is the terminal error once every wave failed. It wraps the
// cause reported by the last wave.
type ExhaustedError struct {
	Waves int
	Err   error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("transaction lookup error: all %d explorer waves failed: %v", e.Waves, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// ConfigError builds an error wrapping ErrConfiguration.
func ConfigError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
