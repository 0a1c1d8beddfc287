package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the interface for caching serialized search results
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a cache key from a provider name and query payload
func Key(provider, payload string) string {
	hash := sha256.Sum256([]byte(provider + "\x00" + payload))
	return "scout:v1:" + hex.EncodeToString(hash[:])
}
