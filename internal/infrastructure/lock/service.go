// Package lock provides cross-process mutual exclusion keyed by publication,
// backed by Redis with TTL auto-expiry.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
)

// Service is the distributed lock contract.
//
// AcquireLock returns a caller-unique token, or "" when the lock is already
// held or the store is unreachable. "" always means "do not proceed": the
// lock fails closed, never open.
//
// ReleaseLock is a compare-and-delete: it only removes the lock when the
// presented token still matches, so a holder whose TTL expired can never
// release a lock re-acquired by someone else. Failures degrade to a no-op;
// the TTL alone bounds staleness.
type Service interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) string
	ReleaseLock(ctx context.Context, key string, token string)
}

const keyPrefix = "lock:"

// newToken builds a caller-unique lock value: timestamp plus random suffix.
func newToken() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), xid.New().String())
}
