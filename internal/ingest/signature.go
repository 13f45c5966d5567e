// Package ingest implements the webhook ingestion pipeline: signature
// verification, destination schema reconciliation, event transformation,
// bounded retry with an append-only audit trail, and per-configuration
// fault isolation.
package ingest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifySignature checks that an inbound payload was signed with the shared
// secret. The signature header is the hex-encoded HMAC-SHA256 of the raw
// request body. It returns false, never an error, on any mismatch including
// a missing header or secret; callers must treat false as unauthenticated.
func VerifySignature(signatureHeader string, rawBody []byte, secret string) bool {
	if signatureHeader == "" || secret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signatureHeader), []byte(expected))
}
