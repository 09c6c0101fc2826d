package badger

import (
	"context"

	pkgerrors "github.com/absmach/cvdash/pkg/errors"
)

const slotPrefix = "slot/"

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

	return r.db.set([]byte(slotPrefix+key), value)
}

func (r *slotRepo) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, pkgerrors.ErrEmptyKey
	}

	return r.db.get([]byte(slotPrefix + key))
}

func (r *slotRepo) Delete(ctx context.Context, key string) error {
	if key == "" {
		return pkgerrors.ErrEmptyKey
	}

	return r.db.delete([]byte(slotPrefix + key))
}
