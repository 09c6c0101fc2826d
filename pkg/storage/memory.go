package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/absmach/cvdash/pkg/errors"
	"github.com/absmach/cvdash/pkg/prediction"
)

type inMemoryStorage struct {
	sync.Mutex

	data map[string]any
}

func NewInMemoryStorage() Storage {
	return &inMemoryStorage{
		data: make(map[string]any),
	}
}

func (s *inMemoryStorage) Create(_ context.Context, key string, value any) error {
	if key == "" {
		return errors.ErrEmptyKey
	}

	s.Lock()
	defer s.Unlock()

	if _, ok := s.data[key]; ok {
		return errors.ErrEntityExists
	}

	s.data[key] = value

	return nil
}

func (s *inMemoryStorage) Get(_ context.Context, key string) (any, error) {
	if key == "" {
		return nil, errors.ErrEmptyKey
	}

	s.Lock()
	defer s.Unlock()

	if val, ok := s.data[key]; ok {
		return val, nil
	}

	return nil, errors.ErrNotFound
}

func (s *inMemoryStorage) Update(_ context.Context, key string, value any) error {
	if key == "" {
		return errors.ErrEmptyKey
	}

	s.Lock()
	defer s.Unlock()

	if _, ok := s.data[key]; !ok {
		return errors.ErrNotFound
	}

	s.data[key] = value

	return nil
}

// List pages over values in key order.
func (s *inMemoryStorage) List(_ context.Context, offset, limit uint64) (result []any, total uint64, err error) {
	s.Lock()
	defer s.Unlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	total = uint64(len(keys))
	if offset >= total {
		return []any{}, total, nil
	}

	end := total
	if limit < total-offset {
		end = offset + limit
	}

	result = make([]any, end-offset)
	for i := offset; i < end; i++ {
		result[i-offset] = s.data[keys[i]]
	}

	return result, total, nil
}

func (s *inMemoryStorage) Delete(_ context.Context, key string) error {
	if key == "" {
		return errors.ErrEmptyKey
	}

	s.Lock()
	defer s.Unlock()

	delete(s.data, key)

	return nil
}

type memoryPredictionRepo struct {
	storage Storage
}

func NewMemoryPredictionRepository(s Storage) PredictionRepository {
	return &memoryPredictionRepo{storage: s}
}

func (r *memoryPredictionRepo) Save(ctx context.Context, p prediction.Result) error {
	return r.storage.Create(ctx, p.ID, p)
}

func (r *memoryPredictionRepo) Retrieve(ctx context.Context, id string) (prediction.Result, error) {
	v, err := r.storage.Get(ctx, id)
	if err != nil {
		return prediction.Result{}, err
	}
	p, ok := v.(prediction.Result)
	if !ok {
		return prediction.Result{}, ErrInvalidType
	}

	return p, nil
}

func (r *memoryPredictionRepo) List(ctx context.Context, hospitalID string, offset, limit uint64) (prediction.Page, error) {
	all, _, err := r.storage.List(ctx, 0, ^uint64(0))
	if err != nil {
		return prediction.Page{}, err
	}

	matched := make([]prediction.Result, 0, len(all))
	for _, v := range all {
		p, ok := v.(prediction.Result)
		if !ok {
			return prediction.Page{}, ErrInvalidType
		}
		if p.HospitalID == hospitalID {
			matched = append(matched, p)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	page := prediction.Page{
		Offset:      offset,
		Limit:       limit,
		Total:       uint64(len(matched)),
		Predictions: []prediction.Result{},
	}
	if offset >= page.Total {
		return page, nil
	}
	end := page.Total
	if limit < page.Total-offset {
		end = offset + limit
	}
	page.Predictions = matched[offset:end]

	return page, nil
}

type memorySlotRepo struct {
	sync.Mutex

	slots map[string][]byte
}

func NewMemorySlotRepository() SlotRepository {
	return &memorySlotRepo{slots: make(map[string][]byte)}
}

func (r *memorySlotRepo) Set(_ context.Context, key string, value []byte) error {
	if key == "" {
		return errors.ErrEmptyKey
	}

	r.Lock()
	defer r.Unlock()

	r.slots[key] = append([]byte(nil), value...)

	return nil
}

func (r *memorySlotRepo) Get(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.ErrEmptyKey
	}

	r.Lock()
	defer r.Unlock()

	v, ok := r.slots[key]
	if !ok {
		return nil, errors.ErrNotFound
	}

	return append([]byte(nil), v...), nil
}

func (r *memorySlotRepo) Delete(_ context.Context, key string) error {
	if key == "" {
		return errors.ErrEmptyKey
	}

	r.Lock()
	defer r.Unlock()

	delete(r.slots, key)

	return nil
}
