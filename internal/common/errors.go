// Package common defines shared constants and sentinel errors used across
// client and server layers of LedgerLock. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Auth errors. The same value is returned whether the account id or the
	// passphrase was wrong, so callers cannot enumerate accounts.
	ErrInvalidPassphrase = errors.New("invalid account or passphrase")

	// Envelope errors. Decryption fails closed: tampered ciphertext, a wrong
	// key, iv corruption and unknown version/algorithm all map here.
	ErrDecrypt = errors.New("envelope decrypt failed")

	// Session lifecycle errors.
	ErrSessionClosed = errors.New("session closed")

	// Validation errors (malformed sync payload, empty inputs).
	ErrValidation     = errors.New("validation error")
	ErrBundleTooLarge = errors.New("bundle exceeds size limit")

	// Transport errors (network unreachable, request timeout).
	ErrTransport = errors.New("transport error")

	// Admission control.
	ErrRateLimited = errors.New("rate limited")

	// Generic internal failure.
	ErrInternal = errors.New("internal error")
)
