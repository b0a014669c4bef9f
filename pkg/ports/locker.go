package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serialises conversation turns for one chat across replicas.
// The session manager already serialises turns inside a single process.
type DistributedLocker interface {
	// Lock blocks until the lock for key (a chat ID) is held or ctx is done.
	// The lock expires after ttl if the holder never releases it.
	// The returned UnlockFunc must be called once the turn is finished.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
