package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed files/postgres/*.sql files/sqlite/*.sql
var migrationFS embed.FS

// Dialect selects the SQL flavour of the embedded migrations.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite3"
)

func (d Dialect) dir() string {
	if d == Postgres {
		return "files/postgres"
	}
	return "files/sqlite"
}

func setup(d Dialect) error {
	goose.SetBaseFS(migrationFS)
	if err := goose.SetDialect(string(d)); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

func Up(ctx context.Context, db *sql.DB, d Dialect) error {
	if err := setup(d); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, d.dir()); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Down rolls back the most recent migration.
func Down(ctx context.Context, db *sql.DB, d Dialect) error {
	if err := setup(d); err != nil {
		return err
	}
	if err := goose.DownContext(ctx, db, d.dir()); err != nil {
		return fmt.Errorf("roll back migration: %w", err)
	}
	return nil
}

// Status prints the applied state of every migration through goose's logger.
func Status(ctx context.Context, db *sql.DB, d Dialect) error {
	if err := setup(d); err != nil {
		return err
	}
	return goose.StatusContext(ctx, db, d.dir())
}

func Version(ctx context.Context, db *sql.DB, d Dialect) (int64, error) {
	if err := setup(d); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, db)
}
