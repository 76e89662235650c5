package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Accounts(ctx context.Context) error
	AddTransaction(ctx context.Context) error
	AddBill(ctx context.Context) error
	AddGoal(ctx context.Context) error
	AddBudget(ctx context.Context) error
	AddReminder(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context) error
	Delete(ctx context.Context) error
	Settings(ctx context.Context) error
	Status(ctx context.Context) error
	Sync(ctx context.Context) error
	Pull(ctx context.Context) error
	WipeRemote(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the ledgerlock client.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not signed in:
//	  - help           — show available commands
//	  - register       — create an account
//	  - login          — sign in
//	  - accounts       — list local accounts
//	  - exit | quit    — leave the program
//
//	Signed in:
//	  - help           — show available commands
//	  - addtx          — add a transaction
//	  - addbill        — add a recurring bill
//	  - addgoal        — add a savings goal
//	  - addbudget      — add a budget
//	  - addreminder    — add a reminder
//	  - list           — list all records
//	  - show           — show a single record (interactive id prompt)
//	  - delete         — delete a record
//	  - settings       — view or change preferences
//	  - status         — show sync status
//	  - sync           — schedule a sync now
//	  - pull           — replace local data with the server copy
//	  - wipe           — erase the server copy (confirmation required)
//	  - logout         — sign out
//	  - exit | quit    — leave the program
//
// Any errors returned by command handlers are ignored here; handlers should
// report their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("ll> %s ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: addtx, addbill, addgoal, addbudget, addreminder, (l)ist, show, delete, settings, status, sync, pull, wipe, logout, exit")
			} else {
				printlnFn("Available commands: register, login, accounts, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "accounts":
			_ = a.Accounts(ctx)

		case "addtx":
			_ = a.AddTransaction(ctx)

		case "addbill":
			_ = a.AddBill(ctx)

		case "addgoal":
			_ = a.AddGoal(ctx)

		case "addbudget":
			_ = a.AddBudget(ctx)

		case "addreminder":
			_ = a.AddReminder(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "show":
			_ = a.Show(ctx)

		case "delete":
			_ = a.Delete(ctx)

		case "settings":
			_ = a.Settings(ctx)

		case "status":
			_ = a.Status(ctx)

		case "sync":
			_ = a.Sync(ctx)

		case "pull":
			_ = a.Pull(ctx)

		case "wipe":
			_ = a.WipeRemote(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
