// Package migrations embeds the roll journal schema.
package migrations

import "embed"

// FS holds the journal migrations.
//
//go:embed *.sql
var FS embed.FS
