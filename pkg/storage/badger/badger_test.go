package badger_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	pkgerrors "github.com/absmach/cvdash/pkg/errors"
	"github.com/absmach/cvdash/pkg/storage/badger"
	"github.com/absmach/cvdash/pkg/storage/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testDB    *badger.Database
	invalidID = "invalid-id-that-does-not-exist"
)

func TestMain(m *testing.M) {
	tmpDir := os.TempDir()
	dbPath := filepath.Join(tmpDir, "badger_test_"+uuid.NewString())

	var err error
	testDB, err = badger.NewDatabase(dbPath)
	if err != nil {
		panic(err)
	}

	code := m.Run()

	testDB.Close()
	os.RemoveAll(dbPath)

	os.Exit(code)
}

func TestPredictionRepository_SaveRetrieve(t *testing.T) {
	repo := badger.NewPredictionRepository(testDB)
	ctx := context.Background()

	p := testutil.TestPrediction(uuid.NewString(), "h1", time.Now())
	require.NoError(t, repo.Save(ctx, p))

	got, err := repo.Retrieve(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	err = repo.Save(ctx, p)
	assert.ErrorIs(t, err, pkgerrors.ErrEntityExists)
	assert.ErrorIs(t, err, badger.ErrCreate)

	_, err = repo.Retrieve(ctx, invalidID)
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)

	assert.ErrorIs(t, repo.Save(ctx, testutil.TestPrediction("", "h1", time.Now())), pkgerrors.ErrEmptyKey)
}

func TestPredictionRepository_List(t *testing.T) {
	repo := badger.NewPredictionRepository(testDB)
	ctx := context.Background()

	hospital := "list-" + uuid.NewString()
	preds := testutil.TestPredictions(hospital, 4, time.Now().Add(-time.Hour))
	// Insert out of order; listing must still be newest first.
	for _, i := range []int{2, 0, 3, 1} {
		require.NoError(t, repo.Save(ctx, preds[i]))
	}
	// A hospital whose id shares the prefix must not leak into the listing.
	require.NoError(t, repo.Save(ctx, testutil.TestPrediction(uuid.NewString(), hospital+"x", time.Now())))

	cases := []struct {
		desc   string
		offset uint64
		limit  uint64
		ids    []string
	}{
		{
			desc:  "list all newest first",
			limit: 10,
			ids:   []string{preds[3].ID, preds[2].ID, preds[1].ID, preds[0].ID},
		},
		{
			desc:   "list second page",
			offset: 2,
			limit:  2,
			ids:    []string{preds[1].ID, preds[0].ID},
		},
		{
			desc:   "list beyond total",
			offset: 4,
			limit:  2,
			ids:    []string{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			page, err := repo.List(ctx, hospital, tc.offset, tc.limit)
			require.NoError(t, err)
			assert.Equal(t, uint64(4), page.Total)

			ids := make([]string, 0, len(page.Predictions))
			for _, p := range page.Predictions {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tc.ids, ids)
		})
	}
}

func TestSlotRepository(t *testing.T) {
	repo := badger.NewSlotRepository(testDB)
	ctx := context.Background()
	key := "cli/" + uuid.NewString()

	_, err := repo.Get(ctx, key)
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)

	require.NoError(t, repo.Set(ctx, key, []byte("admin")))
	got, err := repo.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("admin"), got)

	require.NoError(t, repo.Delete(ctx, key))
	_, err = repo.Get(ctx, key)
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)

	_, err = repo.Get(ctx, "")
	assert.ErrorIs(t, err, pkgerrors.ErrEmptyKey)
}
