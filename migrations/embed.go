// Package migrations embeds the goose SQL migrations of the document store.
package migrations

import "embed"

// FS holds the *.sql migration files.
//
//go:embed *.sql
var FS embed.FS
