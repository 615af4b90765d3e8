// Package migrations embeds the schema applied by MIGRATE_ON_START.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
