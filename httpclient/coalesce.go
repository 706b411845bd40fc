package httpclient

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/sync/singleflight"
)

// refreshCoalescer collapses concurrent refresh cycles that would send the
// same refresh token to the same endpoint into a single exchange.
//
// Followers receive the leader's token pair. A failed exchange fails every
// caller that joined it.
type refreshCoalescer struct {
	group singleflight.Group
}

// do runs fn once per key among concurrent callers. shared reports whether
// the result came from another caller's exchange.
func (c *refreshCoalescer) do(key string, fn func() (tokenPair, error)) (pair tokenPair, shared bool, err error) {
	v, err, shared := c.group.Do(key, func() (any, error) {
		return fn()
	})
	if err != nil {
		return tokenPair{}, shared, err
	}
	return v.(tokenPair), shared, nil
}

// coalesceKey identifies a refresh exchange by endpoint and refresh token.
// The token is hashed so the key can be logged or traced safely.
func coalesceKey(endpoint RequestSpec, refreshToken string) string {
	return hashString(strings.Join([]string{
		endpoint.Method(),
		endpoint.URL(),
		refreshToken,
	}, "|"))
}

// hashString creates a SHA256 hash of the input string.
func hashString(s string) string {
	hash := sha256.Sum256([]byte(s))
	return hex.EncodeToString(hash[:])
}
