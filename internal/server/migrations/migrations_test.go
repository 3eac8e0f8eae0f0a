package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestMigrations_EmbeddedPerDialect(t *testing.T) {
	for _, dialect := range []string{"mysql", "postgres"} {
		entries, err := fs.ReadDir(Migrations, Dir(dialect))
		if err != nil {
			t.Fatalf("%s: %v", dialect, err)
		}
		if len(entries) == 0 {
			t.Fatalf("%s: no migrations embedded", dialect)
		}

		b, err := fs.ReadFile(Migrations, Dir(dialect)+"/"+entries[0].Name())
		if err != nil {
			t.Fatalf("%s: %v", dialect, err)
		}
		sql := string(b)
		for _, table := range []string{"donator", "donations", "food_packages", "refresh_tokens"} {
			if !strings.Contains(sql, "CREATE TABLE IF NOT EXISTS "+table) {
				t.Fatalf("%s: table %s missing", dialect, table)
			}
		}
		if !strings.Contains(sql, "token VARCHAR(1024) NOT NULL") {
			t.Fatalf("%s: refresh_tokens.token narrower than a refresh token for a 255-char email", dialect)
		}
		if !strings.Contains(sql, "-- +goose Up") || !strings.Contains(sql, "-- +goose Down") {
			t.Fatalf("%s: goose annotations missing", dialect)
		}
	}
}
