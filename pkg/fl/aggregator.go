package fl

import (
	"fmt"
	"math"
)

const fedAvg = "FedAvg"

type FedAvgAggregator struct{}

func NewFedAvgAggregator() Aggregator {
	return &FedAvgAggregator{}
}

// Aggregate averages weights, bias and metrics weighted by each client's
// sample count. All updates must share the weight dimension and round of
// the first one.
func (f *FedAvgAggregator) Aggregate(updates []Update) (Model, error) {
	if len(updates) == 0 {
		return Model{}, ErrNoUpdates
	}

	dim := len(updates[0].Weights)
	aggregatedW := make([]float64, dim)
	var (
		aggregatedB  float64
		accuracy     float64
		loss         float64
		totalSamples uint64
	)

	for _, update := range updates {
		if len(update.Weights) != dim {
			return Model{}, fmt.Errorf("%w: client %s has %d, want %d", ErrDimensionMismatch, update.ClientID, len(update.Weights), dim)
		}
		if totalSamples > math.MaxUint64-update.NumSamples {
			return Model{}, ErrOverflow
		}
		totalSamples += update.NumSamples

		weight := float64(update.NumSamples)
		for i, v := range update.Weights {
			aggregatedW[i] += v * weight
		}
		aggregatedB += update.Bias * weight
		accuracy += update.Accuracy * weight
		loss += update.Loss * weight
	}

	if totalSamples == 0 {
		return Model{}, ErrNoSamples
	}

	norm := float64(totalSamples)
	for i := range aggregatedW {
		aggregatedW[i] /= norm
	}

	return Model{
		Round:        updates[0].Round,
		Weights:      aggregatedW,
		Bias:         aggregatedB / norm,
		Accuracy:     accuracy / norm,
		Loss:         loss / norm,
		TotalSamples: totalSamples,
		NumUpdates:   len(updates),
		Algorithm:    fedAvg,
	}, nil
}
