package lockmgr

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultRetryInterval = 50 * time.Millisecond
)

// generateLockID creates a new unique lock id (random uuid)
func generateLockID() string {
	return uuid.NewString()
}

// Option configures a lock manager
type Option func(*config)

type config struct {
	ttl           time.Duration
	retryInterval time.Duration
	newID         func() string
}

// WithDefaultTTL sets the TTL of every acquisition and refresh. Zero means no expiration.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *config) {
		c.ttl = ttl
	}
}

// WithRetryInterval sets the polling interval of the blocking acquisitions
func WithRetryInterval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.retryInterval = d
		}
	}
}

// WithIDGenerator replaces the lock id generator
func WithIDGenerator(newID func() string) Option {
	return func(c *config) {
		if newID != nil {
			c.newID = newID
		}
	}
}
