// Package migrations embeds the SQL schema for the SQLite database: the
// profile store tables and the command audit log.
package migrations

import "embed"

// FS holds the migration files at its root.
//
//go:embed *.sql
var FS embed.FS
