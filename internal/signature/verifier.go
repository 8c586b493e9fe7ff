package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

const (
	// TimestampHeader carries the sender-supplied time at which the request
	// was signed, as a unix timestamp in seconds
	TimestampHeader = "X-Slack-Request-Timestamp"
	// SignatureHeader carries the versioned, hex-encoded HMAC that the sender
	// computed over the request timestamp and body
	SignatureHeader = "X-Slack-Signature"
)

// protocolVersion is the fixed tag that prefixes both the signed base string
// and the resulting signature value
const protocolVersion = "v0"

// maxTimestampSkew bounds how stale (or how far in the future) a signed
// request's timestamp may be before the request is rejected outright: a
// captured request can only be replayed within this window, even with a valid
// signature
const maxTimestampSkew = 5 * time.Minute

// Verifier checks request signatures against a shared signing secret
type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(signingSecret string) *Verifier {
	return &Verifier{
		secret: []byte(signingSecret),
		now:    time.Now,
	}
}

// Verify returns true only if the supplied signature header matches the value
// computed locally over the raw request body, and the timestamp is within the
// allowed freshness window. A forged or malformed request is an expected
// input, not a fault: missing or garbled values simply verify as false.
func (v *Verifier) Verify(timestamp, signatureHeader string, body []byte) bool {
	if timestamp == "" || signatureHeader == "" {
		return false
	}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	skew := v.now().Sub(time.Unix(ts, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > maxTimestampSkew {
		return false
	}

	// hmac.Equal compares in constant time, so an attacker probing with
	// crafted signatures learns nothing from response latency
	expected := v.Compute(timestamp, body)
	return hmac.Equal([]byte(expected), []byte(signatureHeader))
}

// Compute derives the signature value for the given timestamp and raw body:
// an HMAC-SHA256 over 'v0:{timestamp}:{body}' keyed with the signing secret,
// hex-encoded and prefixed with the protocol version
func (v *Verifier) Compute(timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	fmt.Fprintf(mac, "%s:%s:%s", protocolVersion, timestamp, body)
	return fmt.Sprintf("%s=%s", protocolVersion, hex.EncodeToString(mac.Sum(nil)))
}
