// Package services contains the application services of the LedgerLock
// client: the account registry, the encrypted local store and the sync
// engine. This file defines the registry: account creation, sign-in and
// listing.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerlock/ledgerlock/internal/client/models"
	"github.com/ledgerlock/ledgerlock/internal/client/repositories/accounts"
	"github.com/ledgerlock/ledgerlock/internal/client/session"
	"github.com/ledgerlock/ledgerlock/internal/common"
	"github.com/ledgerlock/ledgerlock/internal/cryptox"
)

// AccountService owns account identity: it creates accounts, verifies
// passphrases at sign-in and establishes sessions. It never stores a
// passphrase or a derived key; only salt and verifier are persisted.
type AccountService struct {
	repo accounts.Repository
}

// NewAccountService constructs an AccountService over the given repository.
func NewAccountService(repo accounts.Repository) *AccountService {
	return &AccountService{repo: repo}
}

// Create registers a new account: random UUID id, random salt, derived
// verifier. Empty name or passphrase is rejected here (entropy policy lives
// at this layer, not in the KDF).
func (s *AccountService) Create(ctx context.Context, name, passphrase string) (*models.Account, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: account name must not be empty", common.ErrValidation)
	}
	if passphrase == "" {
		return nil, fmt.Errorf("%w: passphrase must not be empty", common.ErrValidation)
	}

	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	a := &models.Account{
		ID:        uuid.NewString(),
		Name:      name,
		Salt:      salt,
		Verifier:  cryptox.DeriveVerifier([]byte(passphrase), salt),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("creating account: %w", err)
	}
	return a, nil
}

// SignIn verifies the passphrase and returns an established session holding
// the derived key. An unknown account id and a wrong passphrase produce the
// same error; the unknown-account path still burns a full KDF stretch
// against a throwaway salt so the two cases are indistinguishable by timing.
func (s *AccountService) SignIn(ctx context.Context, accountID, passphrase string) (*session.Session, error) {
	a, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			cryptox.VerifyPassphrase([]byte(passphrase),
				common.GenerateRandByteArray(cryptox.SaltSize),
				common.GenerateRandByteArray(cryptox.VerifierSize))
			return nil, common.ErrInvalidPassphrase
		}
		return nil, fmt.Errorf("loading account: %w", err)
	}

	if !cryptox.VerifyPassphrase([]byte(passphrase), a.Salt, a.Verifier) {
		return nil, common.ErrInvalidPassphrase
	}

	key, err := cryptox.DeriveKey([]byte(passphrase), a.Salt)
	if err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}

	return session.New(a.ID, a.Name, key), nil
}

// List returns the account-picker view: id, name and creation time only.
func (s *AccountService) List(ctx context.Context) ([]models.AccountInfo, error) {
	infos, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	return infos, nil
}
