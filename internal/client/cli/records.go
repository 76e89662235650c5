package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ledgerlock/ledgerlock/internal/client/models"
	"github.com/ledgerlock/ledgerlock/internal/client/services"
)

func (a *App) requireSession() error {
	if !a.isLoggedIn() {
		fmt.Println("Sign in first ('login').")
		return errNotSignedIn
	}
	return nil
}

var errNotSignedIn = fmt.Errorf("not signed in")

func (a *App) promptAmount(prompt string) (float64, error) {
	raw, err := getSimpleText(a.reader, prompt, os.Stdout)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		fmt.Println("Not a number:", raw)
		return 0, err
	}
	return v, nil
}

func (a *App) promptInt(prompt string) (int, error) {
	raw, err := getSimpleText(a.reader, prompt, os.Stdout)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		fmt.Println("Not a number:", raw)
		return 0, err
	}
	return v, nil
}

func (a *App) put(ctx context.Context, t models.RecordType, payload any) error {
	id, err := a.store.Put(ctx, t, payload)
	if err != nil {
		fmt.Println("Save failed:", err)
		return err
	}
	fmt.Println("Saved", id)
	return nil
}

// AddTransaction prompts for an expense or income entry and stores it
// encrypted. The date defaults to today when left empty.
func (a *App) AddTransaction(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}

	amount, err := a.promptAmount("Amount")
	if err != nil {
		return err
	}
	category, err := getSimpleText(a.reader, "Category", os.Stdout)
	if err != nil {
		return err
	}
	note, err := GetMultiline(a.reader, "Note (optional)", os.Stdout)
	if err != nil {
		return err
	}
	date, err := getSimpleText(a.reader, "Date (YYYY-MM-DD, empty for today)", os.Stdout)
	if err != nil {
		return err
	}
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	return a.put(ctx, models.RecordTypeTransaction, models.Transaction{
		Amount: amount, Category: category, Note: note, Date: date,
	})
}

// AddBill prompts for a recurring bill.
func (a *App) AddBill(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}

	name, err := getSimpleText(a.reader, "Bill name", os.Stdout)
	if err != nil {
		return err
	}
	amount, err := a.promptAmount("Amount")
	if err != nil {
		return err
	}
	dueDay, err := a.promptInt("Due day of month (1-31)")
	if err != nil {
		return err
	}

	return a.put(ctx, models.RecordTypeBill, models.Bill{
		Name: name, Amount: amount, DueDay: dueDay,
	})
}

// AddGoal prompts for a savings goal.
func (a *App) AddGoal(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}

	name, err := getSimpleText(a.reader, "Goal name", os.Stdout)
	if err != nil {
		return err
	}
	target, err := a.promptAmount("Target amount")
	if err != nil {
		return err
	}
	saved, err := a.promptAmount("Already saved")
	if err != nil {
		return err
	}

	return a.put(ctx, models.RecordTypeGoal, models.Goal{
		Name: name, Target: target, Saved: saved,
	})
}

// AddBudget prompts for a per-category monthly limit.
func (a *App) AddBudget(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}

	category, err := getSimpleText(a.reader, "Category", os.Stdout)
	if err != nil {
		return err
	}
	limit, err := a.promptAmount("Monthly limit")
	if err != nil {
		return err
	}

	return a.put(ctx, models.RecordTypeBudget, models.Budget{
		Category: category, Limit: limit,
	})
}

// AddReminder prompts for a dated note.
func (a *App) AddReminder(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}

	text, err := GetMultiline(a.reader, "Reminder text", os.Stdout)
	if err != nil {
		return err
	}
	remindAt, err := getSimpleText(a.reader, "Remind at (YYYY-MM-DD)", os.Stdout)
	if err != nil {
		return err
	}

	return a.put(ctx, models.RecordTypeReminder, models.Reminder{
		Text: text, RemindAt: remindAt,
	})
}

// List decrypts and prints every record of the signed-in account. Records
// that fail to decrypt are listed as unreadable instead of hiding the whole
// listing.
func (a *App) List(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}

	results, err := a.store.GetAll(ctx)
	if err != nil {
		fmt.Println("Listing failed:", err)
		return err
	}
	if len(results) == 0 {
		fmt.Println("No records yet.")
		return nil
	}
	for _, res := range results {
		fmt.Println(formatResult(res))
	}
	return nil
}

// Show prompts for a record id and prints the decrypted record.
func (a *App) Show(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}

	id, err := getSimpleText(a.reader, "Record id", os.Stdout)
	if err != nil {
		return err
	}

	res, err := a.store.Get(ctx, id)
	if err != nil {
		fmt.Println("Lookup failed:", err)
		return err
	}
	fmt.Println(formatResult(*res))
	return nil
}

// Delete prompts for a record id and removes it permanently.
func (a *App) Delete(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}

	id, err := getSimpleText(a.reader, "Record id", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.store.Delete(ctx, id); err != nil {
		fmt.Println("Delete failed:", err)
		return err
	}
	fmt.Println("Deleted", id)
	return nil
}

// Settings shows current preferences and optionally updates them.
func (a *App) Settings(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}

	current, err := a.store.Settings(ctx)
	if err != nil {
		fmt.Println("Loading settings failed:", err)
		return err
	}
	fmt.Printf("Currency: %q, display name: %q\n", current.Currency, current.DisplayName)

	currency, err := getSimpleText(a.reader, "Currency (empty to keep)", os.Stdout)
	if err != nil {
		return err
	}
	if currency == "" {
		return nil
	}
	current.Currency = currency

	if err := a.store.PutSettings(ctx, current); err != nil {
		fmt.Println("Saving settings failed:", err)
		return err
	}
	fmt.Println("Settings saved.")
	return nil
}

// Sync requests a sync outside the normal mutation-triggered flow. It still
// rides the debounce window.
func (a *App) Sync(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	a.engine.Schedule()
	fmt.Println("Sync scheduled.")
	return nil
}

// Status prints the sync engine's current state.
func (a *App) Status(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	fmt.Println("Sync status:", a.engine.Status())
	return nil
}

func formatResult(res services.DecryptResult) string {
	if res.Err != nil {
		return fmt.Sprintf("%s  (unreadable: %v)", res.Record.ID, res.Err)
	}

	switch p := res.Payload.(type) {
	case *models.Transaction:
		return fmt.Sprintf("%s  %s  %.2f  %s  %s", res.Record.ID, p.Date, p.Amount, p.Category, p.Note)
	case *models.Bill:
		return fmt.Sprintf("%s  %s  %.2f  due day %d", res.Record.ID, p.Name, p.Amount, p.DueDay)
	case *models.Goal:
		return fmt.Sprintf("%s  %s  %.2f of %.2f saved", res.Record.ID, p.Name, p.Saved, p.Target)
	case *models.Budget:
		return fmt.Sprintf("%s  %s  limit %.2f", res.Record.ID, p.Category, p.Limit)
	case *models.Reminder:
		return fmt.Sprintf("%s  %s  %s", res.Record.ID, p.RemindAt, p.Text)
	}
	return res.Record.ID
}
