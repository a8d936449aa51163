// Package blacklist records revoked access-token identifiers (jti) until the
// token would have expired on its own. Entries past their natural expiry are
// dropped automatically, so the set stays bounded by the number of live
// revoked tokens.
package blacklist

import (
	"context"
	"time"
)

// Blacklist is safe for concurrent use.
type Blacklist interface {
	// Add marks jti as revoked until expiresAt. Adding the same jti twice is
	// not an error; tokens already past expiresAt are not stored.
	Add(ctx context.Context, jti string, expiresAt time.Time) error
	// Contains reports whether jti is currently revoked.
	Contains(ctx context.Context, jti string) (bool, error)
}
