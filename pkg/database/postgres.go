package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/uptrace/bun/driver/pgdriver"
)

// NewPostgres opens the database and applies pending migrations. pgURL wins
// when both are set; pgHost is the local-development fallback with baked-in
// credentials matching docker-compose.
func NewPostgres(pgURL, pgHost string) (*sql.DB, error) {
	var connector *pgdriver.Connector
	if pgURL != "" {
		connector = pgdriver.NewConnector(pgdriver.WithDSN(pgURL))
	} else {
		connector = pgdriver.NewConnector(
			pgdriver.WithAddr(pgHost),
			pgdriver.WithUser("postgres"),
			pgdriver.WithPassword("postgres"),
			pgdriver.WithDatabase("qa_docgen"),
			pgdriver.WithInsecure(true),
		)
	}

	db := sql.OpenDB(connector)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		return nil, fmt.Errorf("applying migrations: %w", err)
	}

	return db, nil
}

func applyMigrations(db *sql.DB) error {
	migrations := &migrate.MemoryMigrationSource{
		Migrations: []*migrate.Migration{
			{
				Id: "001_create_kv_store",
				Up: []string{`
					CREATE TABLE IF NOT EXISTS kv_store (
						key TEXT PRIMARY KEY,
						value BYTEA NOT NULL
					)
				`},
				Down: []string{`DROP TABLE kv_store`},
			},
		},
	}

	n, err := migrate.Exec(db, "postgres", migrations, migrate.Up)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("Applied migrations", "count", n)
	}
	return nil
}
