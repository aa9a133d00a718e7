// Package migrations embeds SQL migration files for the SQLite store.
package migrations

import "embed"

// FS holds the migration files, applied in lexical order at startup.
//
//go:embed *.sql
var FS embed.FS
