package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	pkgerrors "github.com/absmach/cvdash/pkg/errors"
	"github.com/absmach/cvdash/pkg/prediction"
	"github.com/dgraph-io/badger/v4"
)

const (
	predictionPrefix = "prediction/"
	predictionIDs    = "prediction-id/"
)

type predictionRepo struct {
	db *Database
}

func NewPredictionRepository(db *Database) PredictionRepository {
	return &predictionRepo{db: db}
}

// Entries sort newest first within a hospital because the timestamp
// component is inverted.
func predictionKey(p prediction.Result) []byte {
	inverted := uint64(math.MaxInt64 - p.Timestamp.UnixNano())

	return fmt.Appendf(nil, "%s%s/%020d/%s", predictionPrefix, p.HospitalID, inverted, p.ID)
}

func hospitalPrefix(hospitalID string) []byte {
	return []byte(predictionPrefix + hospitalID + "/")
}

func (r *predictionRepo) Save(ctx context.Context, p prediction.Result) error {
	if p.ID == "" {
		return pkgerrors.ErrEmptyKey
	}

	val, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	idKey := []byte(predictionIDs + p.ID)
	key := predictionKey(p)

	err = r.db.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(idKey); err == nil {
			return pkgerrors.ErrEntityExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(key, val); err != nil {
			return err
		}

		return txn.Set(idKey, key)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return nil
}

func (r *predictionRepo) Retrieve(ctx context.Context, id string) (prediction.Result, error) {
	key, err := r.db.get([]byte(predictionIDs + id))
	if err != nil {
		return prediction.Result{}, err
	}

	val, err := r.db.get(key)
	if err != nil {
		return prediction.Result{}, err
	}

	return decodePrediction(val)
}

func (r *predictionRepo) List(ctx context.Context, hospitalID string, offset, limit uint64) (prediction.Page, error) {
	prefix := hospitalPrefix(hospitalID)

	total, err := r.db.countWithPrefix(prefix)
	if err != nil {
		return prediction.Page{}, err
	}

	items, err := r.db.listWithPrefix(prefix, offset, limit)
	if err != nil {
		return prediction.Page{}, err
	}

	results := make([]prediction.Result, 0, len(items))
	for _, item := range items {
		res, err := decodePrediction(item)
		if err != nil {
			return prediction.Page{}, err
		}
		results = append(results, res)
	}

	return prediction.Page{
		Offset:      offset,
		Limit:       limit,
		Total:       total,
		Predictions: results,
	}, nil
}

func decodePrediction(val []byte) (prediction.Result, error) {
	var res prediction.Result
	if err := json.Unmarshal(val, &res); err != nil {
		return prediction.Result{}, fmt.Errorf("%w: %w", ErrDBScan, err)
	}

	return res, nil
}
