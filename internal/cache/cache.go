package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for verifier read-through caching.
// Every cache is owned by exactly one verifier instance - there is no
// process-wide shared cache.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	// Invalidate removes the entry for a resolved file path. Callers use it
	// when they know the underlying file changed before the TTL expired.
	Invalidate(path string) error
	Clear() error
}

// Key generates a cache key from a resolved file path
func Key(path string) string {
	hash := sha256.Sum256([]byte(path))
	return "claimgate:v1:" + hex.EncodeToString(hash[:])
}
