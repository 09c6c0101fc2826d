package mocks

import (
	"context"

	"github.com/absmach/cvdash/dashboard"
	"github.com/absmach/cvdash/pkg/prediction"
	"github.com/absmach/cvdash/pkg/training"
	"github.com/stretchr/testify/mock"
)

var _ dashboard.Service = (*Service)(nil)

// Service is a mock implementation of the dashboard.Service interface.
type Service struct {
	mock.Mock
}

func (m *Service) GlobalStatus(ctx context.Context) (training.GlobalStatus, error) {
	args := m.Called(ctx)

	return args.Get(0).(training.GlobalStatus), args.Error(1)
}

func (m *Service) TrainingStatus(ctx context.Context) (training.Status, error) {
	args := m.Called(ctx)

	return args.Get(0).(training.Status), args.Error(1)
}

func (m *Service) Metrics(ctx context.Context) (training.Summary, error) {
	args := m.Called(ctx)

	return args.Get(0).(training.Summary), args.Error(1)
}

func (m *Service) Rounds(ctx context.Context) ([]training.Round, error) {
	args := m.Called(ctx)

	return args.Get(0).([]training.Round), args.Error(1)
}

func (m *Service) Clients(ctx context.Context) ([]training.Client, error) {
	args := m.Called(ctx)

	return args.Get(0).([]training.Client), args.Error(1)
}

func (m *Service) Logs(ctx context.Context) ([]training.LogEntry, error) {
	args := m.Called(ctx)

	return args.Get(0).([]training.LogEntry), args.Error(1)
}

func (m *Service) Features(ctx context.Context) ([]prediction.Feature, error) {
	args := m.Called(ctx)

	return args.Get(0).([]prediction.Feature), args.Error(1)
}

func (m *Service) HospitalDashboard(ctx context.Context, hospitalID string) (training.HospitalDashboard, error) {
	args := m.Called(ctx, hospitalID)

	return args.Get(0).(training.HospitalDashboard), args.Error(1)
}

func (m *Service) LocalMetrics(ctx context.Context, hospitalID string) (training.History, error) {
	args := m.Called(ctx, hospitalID)

	return args.Get(0).(training.History), args.Error(1)
}

func (m *Service) Predict(ctx context.Context, hospitalID string, form prediction.Form) (prediction.Result, error) {
	args := m.Called(ctx, hospitalID, form)

	return args.Get(0).(prediction.Result), args.Error(1)
}

func (m *Service) PredictionHistory(ctx context.Context, hospitalID string, offset, limit uint64) (prediction.Page, error) {
	args := m.Called(ctx, hospitalID, offset, limit)

	return args.Get(0).(prediction.Page), args.Error(1)
}

func (m *Service) StartTraining(ctx context.Context, hospitalID string) (training.StartAck, error) {
	args := m.Called(ctx, hospitalID)

	return args.Get(0).(training.StartAck), args.Error(1)
}
