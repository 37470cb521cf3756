package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Signature verification errors.
var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrMissingSignature = errors.New("missing signature")
)

// SignaturePolicy controls when inbound webhook signatures are checked.
type SignaturePolicy string

const (
	// SignatureOff never verifies signatures.
	SignatureOff SignaturePolicy = "off"
	// SignatureOptional verifies only when the caller supplied a signature header.
	// An unsigned request is accepted; this is a compatibility choice, not a guarantee.
	SignatureOptional SignaturePolicy = "optional"
	// SignatureRequired rejects unsigned requests.
	SignatureRequired SignaturePolicy = "required"
)

// ParseSignaturePolicy maps a configuration value to a policy.
func ParseSignaturePolicy(value string) (SignaturePolicy, error) {
	switch SignaturePolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", SignatureOptional:
		return SignatureOptional, nil
	case SignatureOff, "disabled", "none":
		return SignatureOff, nil
	case SignatureRequired, "strict":
		return SignatureRequired, nil
	default:
		return "", fmt.Errorf("unsupported signature policy: %s", value)
	}
}

// SignatureVerifier checks HMAC-SHA256 signatures of webhook bodies.
type SignatureVerifier struct {
	secret []byte
	policy SignaturePolicy
}

// NewSignatureVerifier builds a verifier. Without a secret nothing can be
// verified, so the policy falls back to SignatureOff.
func NewSignatureVerifier(secret string, policy SignaturePolicy) *SignatureVerifier {
	if secret == "" {
		policy = SignatureOff
	}
	if policy == "" {
		policy = SignatureOptional
	}
	return &SignatureVerifier{secret: []byte(secret), policy: policy}
}

// Policy reports the effective policy.
func (v *SignatureVerifier) Policy() SignaturePolicy {
	return v.policy
}

// Sign returns the hex encoded HMAC-SHA256 of payload.
func (v *SignatureVerifier) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks signature against payload according to the configured policy.
func (v *SignatureVerifier) Verify(payload []byte, signature string) error {
	if v == nil || v.policy == SignatureOff {
		return nil
	}

	signature = strings.TrimSpace(signature)
	if signature == "" {
		if v.policy == SignatureRequired {
			return ErrMissingSignature
		}
		return nil
	}
	signature = strings.TrimPrefix(strings.ToLower(signature), "sha256=")

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return ErrInvalidSignature
	}
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}
