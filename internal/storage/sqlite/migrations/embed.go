// Package migrations embeds the SQLite schema migrations for visage storage.
package migrations

import "embed"

// FS contains embedded SQLite migrations for visage storage.
//
//go:embed *.sql
var FS embed.FS
