// Package auth provides API key verification helpers.
package auth

import (
	"crypto/subtle"
	"os"
	"strings"
)

// Keys validates bearer API keys against a configured allow list.
// An empty list disables authentication (dev mode).
type Keys struct {
	keys []string
}

// NewKeysFromEnv reads API_KEYS (comma separated) or API_KEY.
func NewKeysFromEnv() *Keys {
	raw := os.Getenv("API_KEYS")
	if raw == "" {
		raw = os.Getenv("API_KEY")
	}
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return &Keys{keys: keys}
}

// Enabled reports whether any key is configured.
func (k *Keys) Enabled() bool { return len(k.keys) > 0 }

// Verify checks a presented key in constant time against each configured key.
func (k *Keys) Verify(presented string) bool {
	if !k.Enabled() {
		return true
	}
	ok := false
	for _, key := range k.keys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(presented)) == 1 {
			ok = true
		}
	}
	return ok
}
