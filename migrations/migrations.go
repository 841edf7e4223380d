// Package migrations embeds the SQL schema for cmd/migrate.
package migrations

import "embed"

//go:embed postgres/*.sql mysql/*.sql
var FS embed.FS

// Dir returns the directory holding the migrations of the driver.
func Dir(driver string) string {
	return driver
}
