package service

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	ErrSignatureMissing   = errors.New("signature is missing")
	ErrTimestampMissing   = errors.New("timestamp is missing")
	ErrSignatureMalformed = errors.New("signature is not a valid Ed25519 signature")
	ErrSignatureMismatch  = errors.New("message was not signed with the private key matching the public key")
	ErrPublicKeyInvalid   = errors.New("public key is not a valid Ed25519 public key")
)

// VerificationError is returned for every rejected request. Its message is the same whatever went wrong, the
// reason is only available through errors.Is for diagnostics.
type VerificationError struct {
	Reason error
}

func (e *VerificationError) Error() string {
	return "request signature verification failed"
}

func (e *VerificationError) Unwrap() error {
	return e.Reason
}

// VerifySignature checks that signature was produced over timestamp followed by body.
func VerifySignature(body, timestamp, signature []byte, publicKey ed25519.PublicKey) error {
	if len(signature) == 0 {
		return &VerificationError{Reason: ErrSignatureMissing}
	}

	if len(signature) != ed25519.SignatureSize || len(publicKey) != ed25519.PublicKeySize {
		return &VerificationError{Reason: ErrSignatureMalformed}
	}

	message := make([]byte, 0, len(timestamp)+len(body))
	message = append(message, timestamp...)
	message = append(message, body...)

	if !ed25519.Verify(publicKey, message, signature) {
		return &VerificationError{Reason: ErrSignatureMismatch}
	}

	return nil
}

type SignatureVerifier struct {
	publicKey ed25519.PublicKey
}

func NewSignatureVerifier(publicKey ed25519.PublicKey) (*SignatureVerifier, error) {
	if len(publicKey) != ed25519.PublicKeySize {
		return nil, ErrPublicKeyInvalid
	}

	return &SignatureVerifier{publicKey: publicKey}, nil
}

// Verify checks a request given the hex encoded signature and the timestamp as they appear in the headers.
func (v *SignatureVerifier) Verify(body []byte, timestamp, signatureHex string) error {
	if signatureHex == "" {
		return &VerificationError{Reason: ErrSignatureMissing}
	}

	if timestamp == "" {
		return &VerificationError{Reason: ErrTimestampMissing}
	}

	signature, err := hex.DecodeString(signatureHex)
	if err != nil {
		return &VerificationError{Reason: fmt.Errorf("%w: %w", ErrSignatureMalformed, err)}
	}

	return VerifySignature(body, []byte(timestamp), signature, v.publicKey)
}

// ParsePublicKey decodes a hex encoded Ed25519 public key.
func ParsePublicKey(s string) (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("the given public key is not represented in hex: %w", err)
	}

	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrPublicKeyInvalid, len(raw), ed25519.PublicKeySize)
	}

	return ed25519.PublicKey(raw), nil
}
