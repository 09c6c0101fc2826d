package storage

import (
	"context"

	"github.com/absmach/cvdash/pkg/prediction"
)

type Storage interface {
	Create(ctx context.Context, key string, value any) error
	Get(ctx context.Context, key string) (any, error)
	Update(ctx context.Context, key string, value any) error
	List(ctx context.Context, offset, limit uint64) ([]any, uint64, error)
	Delete(ctx context.Context, key string) error
}

// PredictionRepository persists scored predictions. List returns a
// hospital's predictions newest first.
type PredictionRepository interface {
	Save(ctx context.Context, r prediction.Result) error
	Retrieve(ctx context.Context, id string) (prediction.Result, error)
	List(ctx context.Context, hospitalID string, offset, limit uint64) (prediction.Page, error)
}

// SlotRepository is an opaque key-value store. Sessions keep their role
// token in it.
type SlotRepository interface {
	Set(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
