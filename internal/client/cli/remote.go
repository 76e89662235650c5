package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/ledgerlock/ledgerlock/internal/client/models"
	"github.com/ledgerlock/ledgerlock/internal/client/repositories/records"
)

// Pull replaces the local account state with the server's bundle. The swap
// is transactional: on any failure the local data is left untouched. The
// fetched ciphertext stays opaque; nothing is decrypted here.
func (a *App) Pull(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}

	confirm, err := getSimpleText(a.reader,
		"Replace local data with the server copy? Type yes to continue", os.Stdout)
	if err != nil {
		return err
	}
	if confirm != "yes" {
		fmt.Println("Aborted.")
		return nil
	}

	bundle, err := a.client.FetchBundle(ctx, a.sess.AccountID())
	if err != nil {
		fmt.Println("Fetch failed:", err)
		return err
	}

	recs := make([]models.Record, 0, bundle.Len())
	for _, group := range [][]models.WireRecord{
		bundle.Transactions, bundle.RecurringBills, bundle.Goals,
		bundle.Budgets, bundle.Reminders,
	} {
		for _, w := range group {
			recs = append(recs, w.Record())
		}
	}

	if err := records.ReplaceAll(ctx, a.db, a.sess.AccountID(), recs, bundle.Settings); err != nil {
		fmt.Println("Restore failed:", err)
		return err
	}
	fmt.Printf("Restored %d records (server sync #%d).\n", len(recs), bundle.SyncCount)
	return nil
}

// WipeRemote irreversibly deletes the account's server-side bundle. The
// typed confirmation is passed through as-is; the server enforces the
// literal phrase.
func (a *App) WipeRemote(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}

	confirm, err := getSimpleText(a.reader,
		"Type DELETE to erase the server copy (local data stays)", os.Stdout)
	if err != nil {
		return err
	}
	if confirm == "" {
		fmt.Println("Aborted.")
		return nil
	}

	if err := a.client.DeleteBundle(ctx, a.sess.AccountID(), confirm); err != nil {
		fmt.Println("Wipe failed:", err)
		return err
	}
	fmt.Println("Server copy erased.")
	return nil
}
