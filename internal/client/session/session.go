// Package session holds the ephemeral key material of a signed-in account.
//
// A Session is an explicit value owned by the caller and passed into the
// store and sync layers; there is no global signed-in state. Closing the
// session destroys the key handle, which invalidates every component that
// was constructed with it.
package session

import (
	"sync"

	"github.com/ledgerlock/ledgerlock/internal/common"
	"github.com/ledgerlock/ledgerlock/internal/cryptox"
)

// Session binds an account id to its derived key handle for the lifetime of
// a sign-in. It exists only in process memory and is never persisted.
type Session struct {
	mu        sync.Mutex
	accountID string
	name      string
	key       *cryptox.KeyHandle
	closed    bool
}

// New creates a session for the given account. The session takes ownership
// of the key handle.
func New(accountID, name string, key *cryptox.KeyHandle) *Session {
	return &Session{accountID: accountID, name: name, key: key}
}

// AccountID returns the signed-in account id.
func (s *Session) AccountID() string { return s.accountID }

// Name returns the signed-in account display name.
func (s *Session) Name() string { return s.name }

// Key returns the key handle, or common.ErrSessionClosed after Close.
func (s *Session) Key() (*cryptox.KeyHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, common.ErrSessionClosed
	}
	return s.key, nil
}

// Close destroys the key handle and marks the session closed. It is
// idempotent. Encrypted data at rest is untouched; only the in-memory key
// is discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.key != nil {
		s.key.Destroy()
		s.key = nil
	}
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
