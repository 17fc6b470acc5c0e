package hasher

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Header carries the hex HMAC-SHA256 of the request body.
const Header = "HashSHA256"

// Hasher signs collector payloads with HMAC-SHA256.
type Hasher struct {
	key []byte
}

// New creates a Hasher with the given key.
func New(key string) *Hasher {
	return &Hasher{key: []byte(key)}
}

// Hash returns the hex HMAC-SHA256 of data.
func (h *Hasher) Hash(data []byte) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether sum is the hex HMAC of data, in constant time.
func (h *Hasher) Verify(data []byte, sum string) bool {
	got, err := hex.DecodeString(sum)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, h.key)
	mac.Write(data)
	return hmac.Equal(got, mac.Sum(nil))
}
