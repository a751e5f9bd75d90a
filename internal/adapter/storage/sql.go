package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/niksmo/paintstore/internal/core/domain"
	"github.com/niksmo/paintstore/internal/core/port"
)

var _ port.CartSlot = (*SQLSlot)(nil)

const (
	selectSlotQuery = `SELECT value FROM cart_slots WHERE key = $1;`

	upsertSlotQuery = `
		INSERT INTO cart_slots (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at;
	`
)

// A SQLSlot keeps cart slots in the cart_slots table.
type SQLSlot struct {
	sqldb sqldb
}

func NewSQLSlot(sqldb sqldb) SQLSlot {
	return SQLSlot{sqldb}
}

func (s SQLSlot) Get(ctx context.Context, key string) (string, error) {
	const op = "SQLSlot.Get"

	var value string
	err := s.sqldb.QueryRowContext(ctx, selectSlotQuery, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return value, nil
}

func (s SQLSlot) Set(ctx context.Context, key, value string) error {
	const op = "SQLSlot.Set"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.sqldb.ExecContext(ctx, upsertSlotQuery, key, value); err != nil {
		return fmt.Errorf("%s: failed to upsert: %w", op, err)
	}
	return nil
}
