package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ledgerlock/ledgerlock/internal/common"
)

const (
	// EnvelopeVersion is the envelope schema version. Decrypt rejects
	// anything else outright.
	EnvelopeVersion = "1.0"

	// EnvelopeAlgorithm names the only supported AEAD.
	EnvelopeAlgorithm = "AES-GCM"

	ivSize = 12
)

// Envelope is the versioned authenticated-ciphertext container for one
// record. Data holds ciphertext with the 128-bit GCM tag appended.
// This layout is the stable wire and disk format.
type Envelope struct {
	Version   string `json:"version"`
	Algorithm string `json:"algorithm"`
	IV        []byte `json:"iv"`
	Data      []byte `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

// KeyHandle is an opaque handle over the derived symmetric key. It exposes
// Encrypt/Decrypt only; the key itself is consumed by the AEAD at
// construction and never stored in the handle.
type KeyHandle struct {
	aead cipher.AEAD
}

// NewKeyHandle builds an AES-256-GCM handle from a 32-byte key. The caller
// retains ownership of key and should wipe it after the call.
func NewKeyHandle(key []byte) (*KeyHandle, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return &KeyHandle{aead: aead}, nil
}

// Destroy invalidates the handle. Subsequent Encrypt/Decrypt calls fail
// with common.ErrSessionClosed.
func (k *KeyHandle) Destroy() {
	k.aead = nil
}

// Encrypt serializes v to JSON and seals it under a fresh random 96-bit iv.
// A new iv is drawn from crypto/rand on every call; the iv is never reused
// for the same key.
func (k *KeyHandle) Encrypt(v any) (*Envelope, error) {
	if k == nil || k.aead == nil {
		return nil, common.ErrSessionClosed
	}

	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("read iv: %w", err)
	}

	return &Envelope{
		Version:   EnvelopeVersion,
		Algorithm: EnvelopeAlgorithm,
		IV:        iv,
		Data:      k.aead.Seal(nil, iv, plaintext, nil),
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// Decrypt opens env and unmarshals the plaintext into v. It fails closed:
// an unrecognized version or algorithm, a tampered ciphertext, a corrupted
// iv or a wrong key all yield an error wrapping common.ErrDecrypt, never a
// partial decode.
func (k *KeyHandle) Decrypt(env *Envelope, v any) error {
	if k == nil || k.aead == nil {
		return common.ErrSessionClosed
	}
	if env == nil {
		return fmt.Errorf("%w: nil envelope", common.ErrDecrypt)
	}
	if env.Version != EnvelopeVersion {
		return fmt.Errorf("%w: unsupported version %q", common.ErrDecrypt, env.Version)
	}
	if env.Algorithm != EnvelopeAlgorithm {
		return fmt.Errorf("%w: unsupported algorithm %q", common.ErrDecrypt, env.Algorithm)
	}
	if len(env.IV) != ivSize {
		return fmt.Errorf("%w: bad iv length %d", common.ErrDecrypt, len(env.IV))
	}

	plaintext, err := k.aead.Open(nil, env.IV, env.Data, nil)
	if err != nil {
		return fmt.Errorf("%w: authentication failed", common.ErrDecrypt)
	}

	if err := json.Unmarshal(plaintext, v); err != nil {
		return fmt.Errorf("%w: plaintext decode: %v", common.ErrDecrypt, err)
	}
	return nil
}
