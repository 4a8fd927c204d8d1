// Package migrations embeds the SQL schema files applied at server startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
