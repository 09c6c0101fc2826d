package storage

import (
	"fmt"
	"io"

	"github.com/absmach/cvdash/pkg/storage/badger"
	"github.com/absmach/cvdash/pkg/storage/postgres"
	"github.com/absmach/cvdash/pkg/storage/sqlite"
)

type Config struct {
	Type string `env:"CVDASH_STORAGE_TYPE" envDefault:"memory"`

	PostgresHost    string `env:"CVDASH_POSTGRES_HOST"    envDefault:"localhost"`
	PostgresPort    string `env:"CVDASH_POSTGRES_PORT"    envDefault:"5432"`
	PostgresUser    string `env:"CVDASH_POSTGRES_USER"    envDefault:"cvdash"`
	PostgresPass    string `env:"CVDASH_POSTGRES_PASS"    envDefault:"cvdash"`
	PostgresDB      string `env:"CVDASH_POSTGRES_DB"      envDefault:"cvdash"`
	PostgresSSLMode string `env:"CVDASH_POSTGRES_SSLMODE" envDefault:"disable"`

	SQLitePath string `env:"CVDASH_SQLITE_PATH" envDefault:"./cvdash.db"`

	BadgerPath string `env:"CVDASH_BADGER_PATH" envDefault:"./data/badger"`
}

type Repositories struct {
	Predictions PredictionRepository
	Slots       SlotRepository
	// Closer closes the underlying persistent storage connection.
	// It is nil for the in-memory backend.
	Closer io.Closer
}

func NewRepositories(cfg Config) (*Repositories, error) {
	switch cfg.Type {
	case "postgres":
		return newPostgresRepositories(cfg)
	case "sqlite":
		return newSQLiteRepositories(cfg)
	case "badger":
		return newBadgerRepositories(cfg)
	case "memory", "":
		return newMemoryRepositories(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, cfg.Type)
	}
}

func newPostgresRepositories(cfg Config) (*Repositories, error) {
	db, err := postgres.NewDatabase(
		cfg.PostgresHost,
		cfg.PostgresPort,
		cfg.PostgresUser,
		cfg.PostgresPass,
		cfg.PostgresDB,
		cfg.PostgresSSLMode,
	)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Predictions: postgres.NewPredictionRepository(db),
		Slots:       postgres.NewSlotRepository(db),
		Closer:      db,
	}, nil
}

func newSQLiteRepositories(cfg Config) (*Repositories, error) {
	db, err := sqlite.NewDatabase(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Predictions: sqlite.NewPredictionRepository(db),
		Slots:       sqlite.NewSlotRepository(db),
		Closer:      db,
	}, nil
}

func newBadgerRepositories(cfg Config) (*Repositories, error) {
	db, err := badger.NewDatabase(cfg.BadgerPath)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Predictions: badger.NewPredictionRepository(db),
		Slots:       badger.NewSlotRepository(db),
		Closer:      db,
	}, nil
}

func newMemoryRepositories() *Repositories {
	return &Repositories{
		Predictions: NewMemoryPredictionRepository(NewInMemoryStorage()),
		Slots:       NewMemorySlotRepository(),
	}
}
