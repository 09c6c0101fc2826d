package training

import (
	"encoding/json"
	"fmt"
	"time"

	pkgerrors "github.com/absmach/cvdash/pkg/errors"
)

type State uint8

const (
	Idle State = iota
	Training
	Completed
	Error
)

const (
	IdleStr      = "idle"
	TrainingStr  = "training"
	CompletedStr = "completed"
	ErrorStr     = "error"
	UnknownStr   = "unknown"
)

func (s State) String() string {
	switch s {
	case Idle:
		return IdleStr
	case Training:
		return TrainingStr
	case Completed:
		return CompletedStr
	case Error:
		return ErrorStr
	default:
		return UnknownStr
	}
}

// Terminal reports whether polling stops without external intervention.
func (s State) Terminal() bool {
	return s == Completed || s == Error
}

func ParseState(s string) (State, error) {
	switch s {
	case IdleStr:
		return Idle, nil
	case TrainingStr:
		return Training, nil
	case CompletedStr:
		return Completed, nil
	case ErrorStr:
		return Error, nil
	default:
		return Idle, fmt.Errorf("%w: unknown training status %q", pkgerrors.ErrInvalidData, s)
	}
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *State) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	st, err := ParseState(str)
	if err != nil {
		return err
	}
	*s = st

	return nil
}

type Status struct {
	Status       State      `json:"status"`
	CurrentRound uint64     `json:"current_round"`
	TotalRounds  uint64     `json:"total_rounds"`
	Progress     float64    `json:"progress"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

func (s Status) Validate() error {
	if s.Progress < 0 || s.Progress > 1 {
		return pkgerrors.NewValidationError("progress", "must be within [0,1]")
	}
	if s.Status == Training && s.CurrentRound > s.TotalRounds {
		return pkgerrors.NewValidationError("current_round", "exceeds total_rounds while training")
	}

	return nil
}

// GlobalStatus is the aggregate model status shown on the admin overview.
type GlobalStatus struct {
	Version            string    `json:"version"`
	TotalRounds        uint64    `json:"totalRounds"`
	ConnectedHospitals uint64    `json:"connectedHospitals"`
	Accuracy           float64   `json:"accuracy"`
	Loss               float64   `json:"loss"`
	LastUpdate         time.Time `json:"lastUpdate"`
	Status             string    `json:"status"`
}

func (g GlobalStatus) Validate() error {
	if g.Version == "" {
		return pkgerrors.NewValidationError("version", "required")
	}
	if g.Accuracy < 0 || g.Accuracy > 1 {
		return pkgerrors.NewValidationError("accuracy", "must be within [0,1]")
	}
	if g.Loss < 0 {
		return pkgerrors.NewValidationError("loss", "must not be negative")
	}

	return nil
}

// StartAck acknowledges a start-training request.
type StartAck struct {
	TrainingID string `json:"trainingId"`
	Message    string `json:"message,omitempty"`
	Status     string `json:"status,omitempty"`
	Synthetic  bool   `json:"synthetic,omitempty"`
}

func (a StartAck) Validate() error {
	if a.TrainingID == "" && a.Status == "" {
		return pkgerrors.NewValidationError("trainingId", "acknowledgment carries no identifier")
	}

	return nil
}

// HospitalDashboard summarizes a single hospital's local model.
type HospitalDashboard struct {
	HospitalID            string    `json:"hospitalId"`
	HospitalName          string    `json:"hospitalName"`
	ModelVersion          string    `json:"modelVersion"`
	LastSync              time.Time `json:"lastSync"`
	LastTrainingAccuracy  float64   `json:"lastTrainingAccuracy"`
	LastTrainingLoss      float64   `json:"lastTrainingLoss"`
	ModelStatus           string    `json:"modelStatus"`
	TotalPredictions      uint64    `json:"totalPredictions"`
	TotalTrainingSessions uint64    `json:"totalTrainingSessions"`
}

func (h HospitalDashboard) Validate() error {
	if h.HospitalID == "" {
		return pkgerrors.NewValidationError("hospitalId", "required")
	}
	if h.LastTrainingAccuracy < 0 || h.LastTrainingAccuracy > 1 {
		return pkgerrors.NewValidationError("lastTrainingAccuracy", "must be within [0,1]")
	}

	return nil
}
