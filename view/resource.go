package view

import (
	"context"
	"time"

	"github.com/absmach/cvdash/pkg/training"
)

// Resource identifies one independently polled remote collection.
type Resource uint8

const (
	TrainingStatus Resource = iota
	Metrics
	Logs
	Clients
	GlobalStatus

	numResources
)

func (r Resource) String() string {
	switch r {
	case TrainingStatus:
		return "training-status"
	case Metrics:
		return "metrics"
	case Logs:
		return "logs"
	case Clients:
		return "clients"
	case GlobalStatus:
		return "global-status"
	default:
		return "unknown"
	}
}

// gated resources poll only while a training run is observed or started.
func (r Resource) gated() bool {
	return r == TrainingStatus || r == Metrics
}

const (
	DefTrainingInterval = 2 * time.Second
	DefMetricsInterval  = 2 * time.Second
	DefLogsInterval     = 10 * time.Second
	DefClientsInterval  = 30 * time.Second
	DefGlobalInterval   = 15 * time.Second
)

// Config sets the poll interval of every resource. A zero interval disables
// the resource for the view.
type Config struct {
	HospitalID       string
	TrainingInterval time.Duration
	MetricsInterval  time.Duration
	LogsInterval     time.Duration
	ClientsInterval  time.Duration
	GlobalInterval   time.Duration
}

// AdminConfig polls every resource.
func AdminConfig() Config {
	return Config{
		TrainingInterval: DefTrainingInterval,
		MetricsInterval:  DefMetricsInterval,
		LogsInterval:     DefLogsInterval,
		ClientsInterval:  DefClientsInterval,
		GlobalInterval:   DefGlobalInterval,
	}
}

// HospitalConfig polls the training run of a single hospital.
func HospitalConfig(hospitalID string) Config {
	return Config{
		HospitalID:       hospitalID,
		TrainingInterval: DefTrainingInterval,
		MetricsInterval:  DefMetricsInterval,
	}
}

func (c Config) interval(r Resource) time.Duration {
	switch r {
	case TrainingStatus:
		return c.TrainingInterval
	case Metrics:
		return c.MetricsInterval
	case Logs:
		return c.LogsInterval
	case Clients:
		return c.ClientsInterval
	case GlobalStatus:
		return c.GlobalInterval
	default:
		return 0
	}
}

// Backend is the data source a view polls. dashboard.Service satisfies it.
type Backend interface {
	TrainingStatus(ctx context.Context) (training.Status, error)
	Metrics(ctx context.Context) (training.Summary, error)
	Logs(ctx context.Context) ([]training.LogEntry, error)
	Clients(ctx context.Context) ([]training.Client, error)
	GlobalStatus(ctx context.Context) (training.GlobalStatus, error)
	StartTraining(ctx context.Context, hospitalID string) (training.StartAck, error)
}

// fetch runs the backend call for r and wraps the outcome as an event.
func fetch(ctx context.Context, b Backend, r Resource, issued uint64) Event {
	switch r {
	case TrainingStatus:
		s, err := b.TrainingStatus(ctx)
		if err != nil {
			return FetchFailed{Resource: r, Issued: issued, Err: err}
		}

		return TrainingFetched{Issued: issued, Status: s}
	case Metrics:
		m, err := b.Metrics(ctx)
		if err != nil {
			return FetchFailed{Resource: r, Issued: issued, Err: err}
		}

		return MetricsFetched{Issued: issued, Summary: m}
	case Logs:
		l, err := b.Logs(ctx)
		if err != nil {
			return FetchFailed{Resource: r, Issued: issued, Err: err}
		}

		return LogsFetched{Issued: issued, Logs: l}
	case Clients:
		c, err := b.Clients(ctx)
		if err != nil {
			return FetchFailed{Resource: r, Issued: issued, Err: err}
		}

		return ClientsFetched{Issued: issued, Clients: c}
	default:
		g, err := b.GlobalStatus(ctx)
		if err != nil {
			return FetchFailed{Resource: GlobalStatus, Issued: issued, Err: err}
		}

		return GlobalFetched{Issued: issued, Status: g}
	}
}
