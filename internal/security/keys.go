package security

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"math/big"
)

// GenerateKey creates a fresh P-256 key pair for a sensor identity.
// Used by cmd/keygen, cmd/seed, and tests; production devices generate their
// keys in firmware and only register the public half.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
}

// EncodePublicKeyRaw encodes pub as the 64-byte raw X||Y point form the
// device firmware registers (each coordinate left-padded to 32 bytes).
func EncodePublicKeyRaw(pub *ecdsa.PublicKey) []byte {
	out := make([]byte, rawPointLen)
	pub.X.FillBytes(out[:rawPointLen/2])
	pub.Y.FillBytes(out[rawPointLen/2:])
	return out
}

// SignRaw signs message (SHA-256 digest) and returns the 64-byte raw r||s
// signature form produced by the device firmware.
func SignRaw(priv *ecdsa.PrivateKey, message []byte) ([]byte, error) {
	digest := sha256.Sum256(message)
	r, s, err := ecdsa.Sign(rand.Reader, priv, digest[:])
	if err != nil {
		return nil, err
	}
	return encodeRawSignature(r, s), nil
}

func encodeRawSignature(r, s *big.Int) []byte {
	out := make([]byte, rawSignatureLen)
	r.FillBytes(out[:rawSignatureLen/2])
	s.FillBytes(out[rawSignatureLen/2:])
	return out
}
