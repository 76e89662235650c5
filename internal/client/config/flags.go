package config

import (
	"flag"
	"os"
	"time"

	"github.com/ledgerlock/ledgerlock/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the sync server (default from Config)
//	-d string   path to the local SQLite database (default from Config)
//	-b int      sync debounce interval in seconds (default from Config)
//	-t int      sync request timeout in seconds (default from Config)
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-b", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "base URL of the sync server")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "path to the local database file")
	debounce := fs.Int("b", int(cfg.DebounceInterval.Seconds()), "sync debounce interval (in seconds)")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "sync request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.DebounceInterval = time.Duration(*debounce) * time.Second
	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
}
