package blob

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// Signer produces and verifies expiring signatures for playback URLs.
// The signature covers the object path and the expiry timestamp so a
// locator for one recording cannot be replayed against another.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

// NewSigner creates a signer with the given shared secret and default
// time-to-live for issued locators.
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Signer{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Sign returns the expiry (unix seconds) and hex signature for the
// given object path, valid for the signer's TTL from now.
func (s *Signer) Sign(path string, now time.Time) (int64, string) {
	exp := now.Add(s.ttl).Unix()
	return exp, s.signAt(path, exp)
}

// Verify checks a signature against the path and expiry, rejecting
// expired or forged locators.
func (s *Signer) Verify(path string, exp int64, sig string, now time.Time) error {
	if now.Unix() > exp {
		return fmt.Errorf("playback link expired at %d", exp)
	}
	expected := s.signAt(path, exp)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return fmt.Errorf("invalid playback signature")
	}
	return nil
}

func (s *Signer) signAt(path string, exp int64) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(path))
	mac.Write([]byte("\n"))
	mac.Write([]byte(strconv.FormatInt(exp, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
