package migrations

import "embed"

// FS contains embedded SQLite migrations for the squadup schema.
//
//go:embed *.sql
var FS embed.FS
