// Package migrations embeds the client SQLite schema migrations.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
