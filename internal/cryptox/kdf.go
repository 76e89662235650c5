// Package cryptox implements the client-side cryptography of LedgerLock:
// passphrase-based key derivation and the versioned authenticated-encryption
// envelope used for every record at rest and on the wire.
//
// The server never receives anything produced here except ciphertext.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KDFIterations is the fixed PBKDF2 iteration count. Changing it would
	// silently orphan every existing account, so it is a constant, not config.
	KDFIterations = 250_000

	// SaltSize is the per-account random salt length in bytes.
	SaltSize = 32

	// keySize is the AES-256 key length.
	keySize = 32

	// VerifierSize is the stored passphrase-verifier length in bytes.
	VerifierSize = 32
)

// stretch runs the PBKDF2-HMAC-SHA256 stretch once, producing 64 bytes:
// the first 32 are the encryption key, the last 32 the verifier. PBKDF2
// output blocks are independent HMAC chains, so leaking the verifier does
// not reveal the key even though both share the salt and iteration count.
func stretch(passphrase, salt []byte) []byte {
	return pbkdf2.Key(passphrase, salt, KDFIterations, keySize+VerifierSize, sha256.New)
}

// DeriveKey derives the account encryption key from passphrase and salt and
// wraps it in a KeyHandle. The raw key bytes are wiped before returning;
// the key is usable only through the handle and cannot be exported.
func DeriveKey(passphrase, salt []byte) (*KeyHandle, error) {
	out := stretch(passphrase, salt)
	defer wipe(out)
	return NewKeyHandle(out[:keySize])
}

// DeriveVerifier derives the 32-byte passphrase verifier for storage.
// It is equality-check material only; it is never used as key material.
func DeriveVerifier(passphrase, salt []byte) []byte {
	out := stretch(passphrase, salt)
	verifier := make([]byte, VerifierSize)
	copy(verifier, out[keySize:])
	wipe(out)
	return verifier
}

// VerifyPassphrase recomputes the verifier for (passphrase, salt) and
// compares it against stored in constant time. Mismatched lengths are
// rejected immediately; equal-length inputs are compared in full with
// OR-accumulated XOR regardless of where they first differ.
func VerifyPassphrase(passphrase, salt, stored []byte) bool {
	if len(stored) != VerifierSize {
		return false
	}
	candidate := DeriveVerifier(passphrase, salt)
	defer wipe(candidate)
	return subtle.ConstantTimeCompare(candidate, stored) == 1
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
