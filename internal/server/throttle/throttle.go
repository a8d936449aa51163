// Package throttle counts failed login attempts per key and blocks the key
// once the limit is reached, until the lockout window elapses. The window is
// fixed: it starts at the first failure and is not extended by later ones.
package throttle

import "context"

// Throttle is safe for concurrent use.
type Throttle interface {
	// Blocked reports whether key has reached the failure limit.
	Blocked(ctx context.Context, key string) (bool, error)
	// Fail records a failed attempt for key.
	Fail(ctx context.Context, key string) error
	// Reset forgets all failures of key.
	Reset(ctx context.Context, key string) error
}

// Disabled never blocks. It is used when the attempt limit is not positive.
type Disabled struct{}

func (Disabled) Blocked(context.Context, string) (bool, error) { return false, nil }
func (Disabled) Fail(context.Context, string) error            { return nil }
func (Disabled) Reset(context.Context, string) error           { return nil }
