// Package migrations embeds the goose schema migrations, one directory per
// SQL dialect.
package migrations

import "embed"

//go:embed mysql/*.sql postgres/*.sql
var Migrations embed.FS

// Dir returns the migration directory for a goose dialect.
func Dir(dialect string) string {
	if dialect == "mysql" {
		return "mysql"
	}
	return "postgres"
}
