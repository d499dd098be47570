// Package txdata holds the chain-agnostic transaction summary produced by a lookup.
package txdata

import (
	"time"
)

// Record is the normalized answer for one transaction lookup. RemoteHash is the
// payload embedded in the transaction with any chain-specific prefix stripped.
type Record struct {
	RemoteHash       string    `json:"remote_hash"`
	IssuingAddress   string    `json:"issuing_address"`
	Time             time.Time `json:"time"`
	RevokedAddresses []string  `json:"revoked_addresses"`
}

// Valid reports whether the record carries the two fields arbitration relies on.
func (r *Record) Valid() bool {
	return r != nil && r.IssuingAddress != "" && r.RemoteHash != ""
}

// SameAs reports whether two records agree on issuing address and remote hash.
func (r *Record) SameAs(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.IssuingAddress == other.IssuingAddress && r.RemoteHash == other.RemoteHash
}
