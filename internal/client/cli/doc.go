// Package cli implements the interactive ledgerlock client: a small REPL
// over the account registry, the encrypted local store and the sync engine.
//
// The REPL itself (runREPL) is decoupled from the App through a narrow
// command interface so the loop can be tested without a terminal, a
// database or a server.
package cli
