package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/absmach/cvdash/pkg/prediction"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	migrate "github.com/rubenv/sql-migrate"
)

var (
	ErrDBConnection = errors.New("database connection error")
	ErrDBQuery      = errors.New("database query error")
	ErrDBScan       = errors.New("database scan error")
	ErrCreate       = errors.New("create error")
	ErrDelete       = errors.New("delete error")
	ErrMigration    = errors.New("database migration error")
)

type PredictionRepository interface {
	Save(ctx context.Context, r prediction.Result) error
	Retrieve(ctx context.Context, id string) (prediction.Result, error)
	List(ctx context.Context, hospitalID string, offset, limit uint64) (prediction.Page, error)
}

type SlotRepository interface {
	Set(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

type Database struct {
	*sqlx.DB
}

func NewDatabase(path string) (*Database, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	database := &Database{DB: db}

	if err := database.Migrate(); err != nil {
		return nil, err
	}

	return database, nil
}

func (db *Database) Migrate() error {
	migrations := &migrate.MemoryMigrationSource{
		Migrations: []*migrate.Migration{
			{
				Id: "1_create_predictions",
				Up: []string{
					`CREATE TABLE IF NOT EXISTS predictions (
						id TEXT PRIMARY KEY,
						hospital_id TEXT NOT NULL,
						patient_id TEXT NOT NULL,
						risk_score REAL NOT NULL,
						confidence REAL NOT NULL DEFAULT 0,
						shap_values TEXT NOT NULL,
						note TEXT,
						synthetic BOOLEAN NOT NULL DEFAULT 0,
						created_at DATETIME NOT NULL
					)`,
					`CREATE INDEX IF NOT EXISTS idx_predictions_hospital ON predictions(hospital_id, created_at DESC)`,
				},
				Down: []string{
					`DROP INDEX IF EXISTS idx_predictions_hospital`,
					`DROP TABLE IF EXISTS predictions`,
				},
			},
			{
				Id: "2_create_slots",
				Up: []string{
					`CREATE TABLE IF NOT EXISTS slots (
						key TEXT PRIMARY KEY,
						value BLOB NOT NULL,
						updated_at DATETIME NOT NULL
					)`,
				},
				Down: []string{
					`DROP TABLE IF EXISTS slots`,
				},
			},
		},
	}

	if _, err := migrate.Exec(db.DB.DB, "sqlite3", migrations, migrate.Up); err != nil {
		return fmt.Errorf("%w: %w", ErrMigration, err)
	}

	return nil
}
