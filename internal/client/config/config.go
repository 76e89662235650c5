package config

import "time"

// Config holds runtime settings for the ledgerlock client.
//
// Fields:
//   - ServerEndpointAddr: base URL of the sync server, e.g. "http://127.0.0.1:8080".
//   - DatabaseDSN: path to the local SQLite database file.
//   - DebounceInterval: quiet window after the last mutation before a sync runs.
//   - RequestTimeout: per-request deadline for sync HTTP calls.
//
// Units: DebounceInterval and RequestTimeout are time.Durations.
type Config struct {
	ServerEndpointAddr string
	DatabaseDSN        string
	DebounceInterval   time.Duration
	RequestTimeout     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.DatabaseDSN = "ledgerlock.db"
	c.DebounceInterval = 2 * time.Second
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
