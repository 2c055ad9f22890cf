package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Codec signs and verifies raw webhook payloads with HMAC-SHA256.
// Verification operates over the exact bytes that were signed; callers
// must not re-serialize the payload before verifying.
type Codec struct {
	secret []byte
}

func New(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

func (c *Codec) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the digest and compares in constant time. Any parse
// failure or length mismatch yields false, never an error.
func (c *Codec) Verify(sig string, payload []byte) bool {
	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, c.secret)
	mac.Write(payload)
	want := mac.Sum(nil)
	if len(got) != len(want) {
		return false
	}
	return hmac.Equal(got, want)
}
