package view

import (
	"errors"

	pkgerrors "github.com/absmach/cvdash/pkg/errors"
	"github.com/absmach/cvdash/pkg/training"
)

// State is the local view of the remote training process. Collections are
// replaced, never mutated, so a State value can be shared once published.
type State struct {
	// Seq counts reduced events. Fetches record it when issued.
	Seq      uint64                `json:"seq"`
	Training training.Status       `json:"training"`
	Metrics  training.Summary      `json:"metrics"`
	Logs     []training.LogEntry   `json:"logs"`
	Clients  []training.Client     `json:"clients"`
	Global   training.GlobalStatus `json:"global"`
	// Polling is true while the training and metrics pollers are active.
	Polling bool   `json:"polling"`
	Action  Action `json:"action"`
	Alert   string `json:"alert,omitempty"`

	loaded [numResources]bool
	errs   [numResources]string
}

// Action tracks the most recent start-training request.
type Action struct {
	Pending    bool   `json:"pending"`
	StartedAt  uint64 `json:"startedAt,omitempty"`
	ResolvedAt uint64 `json:"resolvedAt,omitempty"`
	TrainingID string `json:"trainingId,omitempty"`
	Synthetic  bool   `json:"synthetic,omitempty"`

	rollback    training.Status
	overwritten bool
}

func (s State) Loaded(r Resource) bool {
	return s.loaded[r]
}

// Err returns the last fetch failure of r, cleared by the next success.
func (s State) Err(r Resource) string {
	return s.errs[r]
}

type Event interface {
	event()
}

type TrainingFetched struct {
	Issued uint64
	Status training.Status
}

type MetricsFetched struct {
	Issued  uint64
	Summary training.Summary
}

type LogsFetched struct {
	Issued uint64
	Logs   []training.LogEntry
}

type ClientsFetched struct {
	Issued  uint64
	Clients []training.Client
}

type GlobalFetched struct {
	Issued uint64
	Status training.GlobalStatus
}

type FetchFailed struct {
	Resource Resource
	Issued   uint64
	Err      error
}

// ActionStarted applies the optimistic training status.
type ActionStarted struct{}

type ActionResolved struct {
	Ack training.StartAck
	Err error
}

type AlertDismissed struct{}

func (TrainingFetched) event() {}
func (MetricsFetched) event()  {}
func (LogsFetched) event()     {}
func (ClientsFetched) event()  {}
func (GlobalFetched) event()   {}
func (FetchFailed) event()     {}
func (ActionStarted) event()   {}
func (ActionResolved) event()  {}
func (AlertDismissed) event()  {}

// Decision tells the event loop how to drive the pollers after a reduction.
type Decision struct {
	Activate       bool
	Deactivate     bool
	RefreshMetrics bool
	Dropped        bool
	Rejected       bool
}

// Reduce merges ev into prev. It is pure; all side effects are expressed in
// the returned Decision.
func Reduce(prev State, ev Event) (State, Decision) {
	next := prev
	next.Seq = prev.Seq + 1

	var d Decision
	switch e := ev.(type) {
	case TrainingFetched:
		if stale(prev.Action, e) {
			d.Dropped = true

			return next, d
		}
		next.Training = e.Status
		next.loaded[TrainingStatus] = true
		next.errs[TrainingStatus] = ""
		if prev.Action.Pending {
			next.Action.overwritten = true
		}
		switch {
		case e.Status.Status == training.Training && !prev.Polling:
			next.Polling = true
			d.Activate = true
		case e.Status.Status.Terminal() && prev.Polling:
			next.Polling = false
			d.Deactivate = true
			d.RefreshMetrics = true
		}
	case MetricsFetched:
		next.Metrics = e.Summary
		next.loaded[Metrics] = true
		next.errs[Metrics] = ""
	case LogsFetched:
		next.Logs = e.Logs
		next.loaded[Logs] = true
		next.errs[Logs] = ""
	case ClientsFetched:
		next.Clients = e.Clients
		next.loaded[Clients] = true
		next.errs[Clients] = ""
	case GlobalFetched:
		next.Global = e.Status
		next.loaded[GlobalStatus] = true
		next.errs[GlobalStatus] = ""
	case FetchFailed:
		if e.Err != nil {
			next.errs[e.Resource] = e.Err.Error()
		}
	case ActionStarted:
		if prev.Action.Pending || prev.Training.Status == training.Training {
			d.Rejected = true

			return next, d
		}
		next.Action = Action{
			Pending:   true,
			StartedAt: next.Seq,
			rollback:  prev.Training,
		}
		next.Training = optimistic(prev.Training)
		next.Alert = ""
		if !prev.Polling {
			next.Polling = true
			d.Activate = true
		}
	case ActionResolved:
		if !prev.Action.Pending {
			d.Dropped = true

			return next, d
		}
		next.Action.Pending = false
		next.Action.ResolvedAt = next.Seq
		if e.Err == nil {
			next.Action.TrainingID = e.Ack.TrainingID
			next.Action.Synthetic = e.Ack.Synthetic
			if !prev.Polling {
				next.Polling = true
				d.Activate = true
			}

			break
		}
		next.Alert = alertText(e.Err)
		if prev.Action.overwritten {
			break
		}
		next.Training = prev.Action.rollback
		if prev.Polling && next.Training.Status != training.Training {
			next.Polling = false
			d.Deactivate = true
		}
	case AlertDismissed:
		next.Alert = ""
	}

	return next, d
}

// stale reports whether a training snapshot must not overwrite the
// optimistic write of the current action. Until the start is resolved the
// remote may still report the state the start left (idle or the previous
// run's terminal status); only a training snapshot is taken as genuine.
func stale(a Action, e TrainingFetched) bool {
	if a.StartedAt == 0 {
		return false
	}
	if e.Issued < a.StartedAt {
		return true
	}
	if !a.Pending && e.Issued >= a.ResolvedAt {
		return false
	}

	return e.Status.Status != training.Training
}

func optimistic(prev training.Status) training.Status {
	return training.Status{
		Status:      training.Training,
		TotalRounds: prev.TotalRounds,
	}
}

func alertText(err error) string {
	var aerr *pkgerrors.ActionError
	if errors.As(err, &aerr) && aerr.Detail != "" {
		return aerr.Detail
	}

	return err.Error()
}
