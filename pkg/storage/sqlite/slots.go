package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/absmach/cvdash/pkg/errors"
)

type slotRepo struct {
	db *Database
}

func NewSlotRepository(db *Database) SlotRepository {
	return &slotRepo{db: db}
}

func (r *slotRepo) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return pkgerrors.ErrEmptyKey
	}

	query := `INSERT INTO slots (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	if _, err := r.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return nil
}

func (r *slotRepo) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, pkgerrors.ErrEmptyKey
	}

	var value []byte
	if err := r.db.GetContext(ctx, &value, `SELECT value FROM slots WHERE key = ?`, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pkgerrors.ErrNotFound
		}

		return nil, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return value, nil
}

func (r *slotRepo) Delete(ctx context.Context, key string) error {
	if key == "" {
		return pkgerrors.ErrEmptyKey
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM slots WHERE key = ?`, key); err != nil {
		return fmt.Errorf("%w: %w", ErrDelete, err)
	}

	return nil
}
