// Package migrations creates and upgrades the user_profiles table backing
// PostgresUserStore, grounded on rakaoran-GuessTheObject's
// backend/migrations/migrate.go goose.Up call, adapted from that repo's
// drawing-game schema to this one's flat profile table.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var embedMigrations embed.FS

// Migrate opens its own *sql.DB against pgurl, runs every pending goose
// migration, and closes the connection. Called once at startup, before any
// PostgresUserStore query runs.
func Migrate(pgurl string) error {
	db, err := sql.Open("pgx", pgurl)
	if err != nil {
		return fmt.Errorf("open migration db: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
