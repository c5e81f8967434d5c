// Package migrations embeds the SQL schema applied at API startup.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS
