package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ledgerlock/ledgerlock/internal/common"
)

// getSimpleText and getPassphrase are indirections used to facilitate
// testing. They point to interactive input helpers and can be swapped in
// tests.
var getSimpleText = GetSimpleText
var getPassphrase = GetPassphrase

// Register prompts for a display name and passphrase and creates a new
// local account. The passphrase byte slice is wiped before returning.
// Registration does not sign the account in.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Account name", os.Stdout)
	if err != nil {
		return err
	}

	passphrase, err := getPassphrase(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(passphrase)

	acc, err := a.accounts.Create(ctx, name, string(passphrase))
	if err != nil {
		fmt.Println("Registration failed:", err)
		return err
	}

	fmt.Printf("Account created: %s (%s)\n", acc.Name, acc.ID)
	fmt.Println("There is no passphrase recovery. If you lose it, the data is gone.")
	return nil
}

// Login prompts for an account name and passphrase, verifies them and
// establishes the session. A wrong passphrase and an unknown account produce
// the same message; nothing distinguishes the two.
func (a *App) Login(ctx context.Context) error {
	if a.isLoggedIn() {
		fmt.Println("Already signed in; logout first.")
		return nil
	}

	name, err := getSimpleText(a.reader, "Account name", os.Stdout)
	if err != nil {
		return err
	}

	passphrase, err := getPassphrase(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(passphrase)

	// Resolve name to id locally. A name that matches nothing still goes
	// through SignIn so the failure is indistinguishable from a wrong
	// passphrase.
	accountID := ""
	infos, err := a.accounts.List(ctx)
	if err != nil {
		return err
	}
	for _, info := range infos {
		if info.Name == name {
			accountID = info.ID
			break
		}
	}

	sess, err := a.accounts.SignIn(ctx, accountID, string(passphrase))
	if err != nil {
		if errors.Is(err, common.ErrInvalidPassphrase) {
			fmt.Println("Invalid account or passphrase.")
			return nil
		}
		return err
	}

	a.beginSession(sess)
	fmt.Printf("Signed in as %s\n", sess.Name())
	return nil
}

// Logout stops the sync engine and destroys the in-memory key. Encrypted
// data on disk is untouched.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Println("Not signed in.")
		return nil
	}
	a.endSession()
	fmt.Println("Signed out.")
	return nil
}

// Accounts lists the locally known accounts: names, ids and creation times.
// Nothing here requires a passphrase and nothing here is secret.
func (a *App) Accounts(ctx context.Context) error {
	infos, err := a.accounts.List(ctx)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("No accounts yet; use 'register'.")
		return nil
	}
	for _, info := range infos {
		fmt.Printf("%s  %s  created %s\n",
			info.ID, info.Name, info.CreatedAt.Format("2006-01-02"))
	}
	return nil
}
