package view

import (
	"context"
	"log/slog"

	pkgerrors "github.com/absmach/cvdash/pkg/errors"
	"github.com/absmach/cvdash/pkg/training"
)

const (
	startAction    = "start-training"
	alreadyRunning = "Training is already in progress"
)

// command is a reducer event posted by a caller that waits for its Decision.
type command struct {
	event Event
	reply chan Decision
}

func (v *View) dispatch(ev Event) (Decision, error) {
	reply := make(chan Decision, 1)
	if !v.post(command{event: ev, reply: reply}) {
		return Decision{}, ErrClosed
	}

	select {
	case d := <-reply:
		return d, nil
	case <-v.done:
		return Decision{}, ErrClosed
	}
}

// StartTraining applies the optimistic training status, activates polling
// and then performs the remote call. On failure the optimistic write is
// rolled back and the failure detail is set as the view's alert. The call
// is rejected locally while a run is in progress or another start is
// unresolved.
func (v *View) StartTraining(ctx context.Context) (training.StartAck, error) {
	d, err := v.dispatch(ActionStarted{})
	if err != nil {
		return training.StartAck{}, err
	}
	if d.Rejected {
		return training.StartAck{}, &pkgerrors.ActionError{
			Action: startAction,
			Reason: pkgerrors.Rejected,
			Detail: alreadyRunning,
		}
	}

	ack, err := v.backend.StartTraining(ctx, v.cfg.HospitalID)
	if err != nil {
		v.logger.Warn("Start training failed",
			slog.String("hospital_id", v.cfg.HospitalID),
			slog.Any("error", err),
		)
	}

	// The resolution is posted even when ctx is done so the action never
	// stays pending.
	if _, derr := v.dispatch(ActionResolved{Ack: ack, Err: err}); derr != nil && err == nil {
		return ack, derr
	}

	return ack, err
}

func (v *View) DismissAlert() error {
	_, err := v.dispatch(AlertDismissed{})

	return err
}
