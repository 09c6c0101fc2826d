package training

import (
	"fmt"
	"time"

	pkgerrors "github.com/absmach/cvdash/pkg/errors"
)

type RoundMetrics struct {
	Round    uint64  `json:"round"`
	Accuracy float64 `json:"accuracy"`
	Loss     float64 `json:"loss"`
}

// History is ordered by strictly increasing round.
type History []RoundMetrics

func (h History) Validate() error {
	for i, m := range h {
		if m.Accuracy < 0 || m.Accuracy > 1 {
			return pkgerrors.NewValidationError(fmt.Sprintf("rounds[%d].accuracy", i), "must be within [0,1]")
		}
		if m.Loss < 0 {
			return pkgerrors.NewValidationError(fmt.Sprintf("rounds[%d].loss", i), "must not be negative")
		}
		if i > 0 && m.Round <= h[i-1].Round {
			return pkgerrors.NewValidationError(fmt.Sprintf("rounds[%d].round", i), "must be strictly increasing")
		}
	}

	return nil
}

// Extends reports whether h is prev with zero or more rounds appended.
func (h History) Extends(prev History) bool {
	if len(h) < len(prev) {
		return false
	}
	for i := range prev {
		if h[i].Round != prev[i].Round {
			return false
		}
	}

	return true
}

type Summary struct {
	TotalRounds     uint64  `json:"total_rounds"`
	AverageAccuracy float64 `json:"average_accuracy"`
	LatestAccuracy  float64 `json:"latest_accuracy"`
	Improvement     float64 `json:"improvement"`
	Rounds          History `json:"rounds"`
}

func Summarize(h History) Summary {
	if len(h) == 0 {
		return Summary{Rounds: History{}}
	}

	var sum float64
	for _, m := range h {
		sum += m.Accuracy
	}
	latest := h[len(h)-1].Accuracy

	return Summary{
		TotalRounds:     uint64(len(h)),
		AverageAccuracy: sum / float64(len(h)),
		LatestAccuracy:  latest,
		Improvement:     latest - h[0].Accuracy,
		Rounds:          h,
	}
}

func (s Summary) Validate() error {
	return s.Rounds.Validate()
}

// Round is one row of the federated rounds table.
type Round struct {
	ID                   uint64    `json:"id"`
	RoundNumber          uint64    `json:"roundNumber"`
	Accuracy             float64   `json:"accuracy"`
	Loss                 float64   `json:"loss"`
	ParticipatingClients uint64    `json:"participatingClients"`
	Timestamp            time.Time `json:"timestamp"`
	Duration             uint64    `json:"duration"`
	Status               string    `json:"status"`
}

func ValidateRounds(rounds []Round) error {
	for i, r := range rounds {
		if r.Accuracy < 0 || r.Accuracy > 1 {
			return pkgerrors.NewValidationError(fmt.Sprintf("rounds[%d].accuracy", i), "must be within [0,1]")
		}
		if r.Loss < 0 {
			return pkgerrors.NewValidationError(fmt.Sprintf("rounds[%d].loss", i), "must not be negative")
		}
	}

	return nil
}
