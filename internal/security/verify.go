// Package security implements ECDSA P-256 message verification for sensor
// payloads, plus the key and signature codecs shared with the device tooling.
package security

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"crypto/x509"
	"errors"
	"math/big"
	"strconv"
)

// ErrInvalidKey is returned when key bytes are not a P-256 public key in a
// supported encoding.
var ErrInvalidKey = errors.New("invalid key")

// rawPointLen is the length of a raw uncompressed P-256 point (X||Y, 32 bytes each).
const rawPointLen = 64

// rawSignatureLen is the length of a raw P-256 signature (r||s, 32 bytes each).
const rawSignatureLen = 64

// CanonicalMessage builds the exact byte string a device signs: the decimal
// value, a literal ':', and the decimal unix-seconds device timestamp. Any
// deviation (whitespace, float formatting) makes every verification fail, so
// this is the single canonical form; historical float-timestamp variants are
// deliberately not accepted.
func CanonicalMessage(value, deviceTimestamp int64) []byte {
	return []byte(strconv.FormatInt(value, 10) + ":" + strconv.FormatInt(deviceTimestamp, 10))
}

// ParsePublicKey parses sensor key bytes as a P-256 public key. Exactly two
// encodings are accepted: a 64-byte raw X||Y point, or a DER/PKIX structure.
// The raw form is tried first, then DER; anything else is ErrInvalidKey.
func ParsePublicKey(b []byte) (*ecdsa.PublicKey, error) {
	if len(b) == 0 {
		return nil, ErrInvalidKey
	}
	if len(b) == rawPointLen {
		x := new(big.Int).SetBytes(b[:rawPointLen/2])
		y := new(big.Int).SetBytes(b[rawPointLen/2:])
		pub := &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}
		if !pub.Curve.IsOnCurve(x, y) {
			return nil, ErrInvalidKey
		}
		return pub, nil
	}
	parsed, err := x509.ParsePKIXPublicKey(b)
	if err != nil {
		return nil, ErrInvalidKey
	}
	pub, ok := parsed.(*ecdsa.PublicKey)
	if !ok || pub.Curve != elliptic.P256() {
		return nil, ErrInvalidKey
	}
	return pub, nil
}

// Verify reports whether signature authenticates message under the sensor's
// registered key bytes. Fail-closed: malformed keys, malformed signatures,
// and cryptographic mismatches all yield false, never an error.
//
// The message is hashed with SHA-256. The signature may be ASN.1/DER or a
// 64-byte raw r||s; either decoding is accepted if it verifies.
func Verify(publicKey, message, signature []byte) bool {
	pub, err := ParsePublicKey(publicKey)
	if err != nil {
		return false
	}
	digest := sha256.Sum256(message)

	if ecdsa.VerifyASN1(pub, digest[:], signature) {
		return true
	}
	if len(signature) == rawSignatureLen {
		r := new(big.Int).SetBytes(signature[:rawSignatureLen/2])
		s := new(big.Int).SetBytes(signature[rawSignatureLen/2:])
		return ecdsa.Verify(pub, digest[:], r, s)
	}
	return false
}
