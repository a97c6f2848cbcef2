// Package migrations embeds the SQL schema applied by "intake-server migrate".
package migrations

import "embed"

// FS holds the versioned *.sql files.
//
//go:embed *.sql
var FS embed.FS
