// Package migrations embeds the SQL schema migrations applied at startup.
package migrations

import "embed"

// FS holds the migration files. database.RunMigrations applies the .up.sql
// files in filename order and tracks applied versions.
//
//go:embed *.up.sql
var FS embed.FS
