package sdk

import (
	"context"
	"net/http"

	"github.com/absmach/cvdash/pkg/training"
)

const (
	globalStatusEndpoint   = "/admin/global-status"
	trainingStatusEndpoint = "/training-status"
	metricsEndpoint        = "/metrics"
	roundsEndpoint         = "/rounds"
	startTrainingEndpoint  = "/start-training"
	resetEndpoint          = "/reset"
)

type roundsPage struct {
	Rounds []training.Round `json:"rounds"`
}

func (p roundsPage) Validate() error {
	return training.ValidateRounds(p.Rounds)
}

func (sdk *cvSDK) GlobalStatus(ctx context.Context) (training.GlobalStatus, error) {
	var gs training.GlobalStatus
	if err := sdk.fetch(ctx, globalStatusEndpoint, Options{}, &gs); err != nil {
		return training.GlobalStatus{}, err
	}

	return gs, nil
}

func (sdk *cvSDK) TrainingStatus(ctx context.Context) (training.Status, error) {
	var st training.Status
	if err := sdk.fetch(ctx, trainingStatusEndpoint, Options{}, &st); err != nil {
		return training.Status{}, err
	}

	return st, nil
}

func (sdk *cvSDK) Metrics(ctx context.Context) (training.Summary, error) {
	var s training.Summary
	if err := sdk.fetch(ctx, metricsEndpoint, Options{}, &s); err != nil {
		return training.Summary{}, err
	}
	if s.Rounds == nil {
		s.Rounds = training.History{}
	}

	return s, nil
}

func (sdk *cvSDK) Rounds(ctx context.Context) ([]training.Round, error) {
	var p roundsPage
	if err := sdk.fetch(ctx, roundsEndpoint, Options{}, &p); err != nil {
		return nil, err
	}

	return p.Rounds, nil
}

func (sdk *cvSDK) StartTraining(ctx context.Context, hospitalID string) (training.StartAck, error) {
	endpoint := startTrainingEndpoint
	if hospitalID != "" {
		endpoint = hospitalsEndpoint + "/" + hospitalID + startTrainingEndpoint
	}

	var ack training.StartAck
	if err := sdk.fetch(ctx, endpoint, Options{Method: http.MethodPost}, &ack); err != nil {
		return training.StartAck{}, err
	}

	return ack, nil
}

func (sdk *cvSDK) Reset(ctx context.Context) error {
	_, err := sdk.Call(ctx, resetEndpoint, Options{Method: http.MethodPost})

	return err
}
