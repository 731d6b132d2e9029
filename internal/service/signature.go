package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SignatureVerifier authenticates webhook bodies against the shared signing
// secret. An empty secret disables verification and every body is accepted;
// that mode is meant for development deployments only.
type SignatureVerifier struct {
	secret []byte
}

// NewSignatureVerifier creates a new signature verifier
func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: []byte(secret)}
}

// Enabled reports whether a signing secret is configured
func (v *SignatureVerifier) Enabled() bool {
	return len(v.secret) > 0
}

// Verify checks the signature header against the HMAC-SHA256 of the raw body.
// Comparison is constant time.
func (v *SignatureVerifier) Verify(body []byte, signature string) error {
	if !v.Enabled() {
		return nil
	}

	if signature == "" {
		return ErrMissingSignature
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("signature does not match body digest: %w", ErrInvalidSignature)
	}

	return nil
}
