package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akovalev/qa-docgen/pkg/domain"
)

type postgresKV struct {
	db *sql.DB
}

func NewPostgresKV(db *sql.DB) *postgresKV {
	return &postgresKV{db: db}
}

func (p *postgresKV) Get(ctx context.Context, key string) ([]byte, error) {
	const query = `
		SELECT value
		FROM kv_store
		WHERE key = $1
	`

	var value []byte
	err := p.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("fetching value for key %q: %w", key, err)
	}

	return value, nil
}

func (p *postgresKV) Set(ctx context.Context, key string, value []byte) error {
	const query = `
		INSERT INTO kv_store (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value
	`

	if _, err := p.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("saving value for key %q: %w", key, err)
	}

	return nil
}

func (p *postgresKV) Delete(ctx context.Context, key string) error {
	const query = `
		DELETE FROM kv_store
		WHERE key = $1
	`

	if _, err := p.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("deleting key %q: %w", key, err)
	}

	return nil
}
