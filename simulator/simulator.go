package simulator

import (
	"context"
	"errors"
	"time"

	"github.com/absmach/cvdash/pkg/prediction"
	"github.com/absmach/cvdash/pkg/training"
)

var (
	ErrTrainingInProgress = errors.New("training is already in progress")
	ErrResetWhileTraining = errors.New("cannot reset while training is in progress")
)

type Config struct {
	Rounds        uint64        `env:"ROUNDS"          envDefault:"5"`
	RoundDuration time.Duration `env:"ROUND_DURATION"  envDefault:"3s"`
	// FailAtRound moves a run into the error state when that round is due;
	// 0 never fails.
	FailAtRound    uint64 `env:"FAIL_AT_ROUND"   envDefault:"0"`
	ExtraHospitals int    `env:"EXTRA_HOSPITALS" envDefault:"0"`
	Seed           uint64 `env:"SEED"            envDefault:"0"`
	// TrainingSchedule is a five-field cron expression starting runs
	// unattended; empty disables it.
	TrainingSchedule string `env:"TRAINING_SCHEDULE" envDefault:""`
	Timezone         string `env:"TIMEZONE"          envDefault:"UTC"`
}

// Service is the remote status source: a federated training backend whose
// runs advance one round per RoundDuration.
type Service interface {
	GlobalStatus(ctx context.Context) (training.GlobalStatus, error)
	TrainingStatus(ctx context.Context) (training.Status, error)
	Metrics(ctx context.Context) (training.Summary, error)
	Rounds(ctx context.Context) ([]training.Round, error)
	Clients(ctx context.Context) ([]training.Client, error)
	Logs(ctx context.Context) ([]training.LogEntry, error)
	Features(ctx context.Context) ([]prediction.Feature, error)
	HospitalDashboard(ctx context.Context, hospitalID string) (training.HospitalDashboard, error)
	LocalMetrics(ctx context.Context, hospitalID string) (training.History, error)

	// Predict rejects vectors whose length is not prediction.NumFeatures.
	Predict(ctx context.Context, hospitalID string, req prediction.Request) (prediction.Response, error)

	// StartTraining fails with ErrTrainingInProgress while a run is active.
	StartTraining(ctx context.Context, hospitalID string) (training.StartAck, error)

	// Reset returns to the untrained idle state. It fails with
	// ErrResetWhileTraining while a run is active.
	Reset(ctx context.Context) error
}
