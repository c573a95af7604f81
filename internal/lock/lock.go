// Package lock serializes work per key (one key per product) so that the
// ledger's read-check-write sequence never interleaves for the same product.
package lock

import (
	"context"
	"errors"
)

// ErrNotObtained is returned when a lock could not be acquired before the
// context or the backend's retry budget ran out.
var ErrNotObtained = errors.New("lock: not obtained")

// Locker hands out exclusive locks by key. The returned release func must be
// called exactly once.
type Locker interface {
	Obtain(ctx context.Context, key string) (release func(), err error)
}
