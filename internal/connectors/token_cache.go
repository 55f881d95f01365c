package connectors

import (
	"sync"
	"time"
)

// tokenCache holds a bearer token until shortly before it expires, so
// one resolution pass authenticates at most once per connector.
type tokenCache struct {
	mu      sync.Mutex
	token   string
	expires time.Time
}

// expirySlack is subtracted from the TTL so a token close to expiry is
// never handed to an in-flight request.
const expirySlack = 30 * time.Second

func newTokenCache() *tokenCache {
	return &tokenCache{}
}

// Get returns the cached token if it is still valid.
func (t *tokenCache) Get() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token == "" || time.Now().After(t.expires) {
		return "", false
	}
	return t.token, true
}

// Set stores a token with its time to live.
func (t *tokenCache) Set(token string, ttl time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.token = token
	t.expires = time.Now().Add(ttl - expirySlack)
}
