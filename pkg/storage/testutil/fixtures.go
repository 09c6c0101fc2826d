package testutil

import (
	"time"

	"github.com/absmach/cvdash/pkg/prediction"
)

func TestPrediction(id, hospitalID string, at time.Time) prediction.Result {
	return prediction.Result{
		ID:         id,
		HospitalID: hospitalID,
		PatientID:  "patient-" + id,
		RiskScore:  62.5,
		Confidence: 0.81,
		ShapValues: map[string]float64{
			"age":      0.12,
			"chol":     0.08,
			"thalach":  -0.05,
			"trestbps": 0.03,
		},
		Note:      "",
		Synthetic: false,
		Timestamp: at.UTC().Truncate(time.Second),
	}
}

// TestPredictions returns n predictions for one hospital, one second apart,
// oldest first.
func TestPredictions(hospitalID string, n int, start time.Time) []prediction.Result {
	out := make([]prediction.Result, 0, n)
	for i := range n {
		id := hospitalID + "-p" + string(rune('a'+i))
		out = append(out, TestPrediction(id, hospitalID, start.Add(time.Duration(i)*time.Second)))
	}

	return out
}
