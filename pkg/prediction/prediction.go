package prediction

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	pkgerrors "github.com/absmach/cvdash/pkg/errors"
)

type Class string

const (
	Low    Class = "Low"
	Medium Class = "Medium"
	High   Class = "High"

	highThreshold   = 70
	mediumThreshold = 40
)

// Classify maps a 0-100 risk score onto a class: High above 70, Medium above
// 40 up to and including 70, Low otherwise.
func Classify(riskScore float64) Class {
	switch {
	case riskScore > highThreshold:
		return High
	case riskScore > mediumThreshold:
		return Medium
	default:
		return Low
	}
}

// Result never stores its classification; it is derived from RiskScore.
type Result struct {
	ID         string             `json:"id"`
	HospitalID string             `json:"hospitalId"`
	PatientID  string             `json:"patientId"`
	RiskScore  float64            `json:"riskScore"`
	Confidence float64            `json:"confidence"`
	ShapValues map[string]float64 `json:"shapValues"`
	Note       string             `json:"note,omitempty"`
	Synthetic  bool               `json:"synthetic,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
}

func (r Result) Classification() Class {
	return Classify(r.RiskScore)
}

func (r Result) Validate() error {
	if math.IsNaN(r.RiskScore) || r.RiskScore < 0 || r.RiskScore > 100 {
		return pkgerrors.NewValidationError("riskScore", "must be within [0,100]")
	}
	if r.PatientID == "" {
		return pkgerrors.NewValidationError("patientId", "required")
	}
	if len(r.ShapValues) == 0 {
		return pkgerrors.NewValidationError("shapValues", "required")
	}

	return nil
}

// TopContributions returns features ordered by absolute SHAP value.
func (r Result) TopContributions(n int) []Importance {
	out := make([]Importance, 0, len(r.ShapValues))
	for name, v := range r.ShapValues {
		out = append(out, Importance{Feature: name, ShapValue: v})
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := math.Abs(out[i].ShapValue), math.Abs(out[j].ShapValue)
		if ai == aj {
			return out[i].Feature < out[j].Feature
		}

		return ai > aj
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}

	return out
}

type resultJSON struct {
	ID             string             `json:"id"`
	HospitalID     string             `json:"hospitalId"`
	PatientID      string             `json:"patientId"`
	RiskScore      float64            `json:"riskScore"`
	Classification Class              `json:"classification"`
	Confidence     float64            `json:"confidence"`
	ShapValues     map[string]float64 `json:"shapValues"`
	Note           string             `json:"note,omitempty"`
	Synthetic      bool               `json:"synthetic,omitempty"`
	Timestamp      time.Time          `json:"timestamp"`
}

func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{
		ID:             r.ID,
		HospitalID:     r.HospitalID,
		PatientID:      r.PatientID,
		RiskScore:      r.RiskScore,
		Classification: r.Classification(),
		Confidence:     r.Confidence,
		ShapValues:     r.ShapValues,
		Note:           r.Note,
		Synthetic:      r.Synthetic,
		Timestamp:      r.Timestamp,
	})
}

// UnmarshalJSON ignores any classification on the wire.
func (r *Result) UnmarshalJSON(data []byte) error {
	var rj resultJSON
	if err := json.Unmarshal(data, &rj); err != nil {
		return err
	}
	*r = Result{
		ID:         rj.ID,
		HospitalID: rj.HospitalID,
		PatientID:  rj.PatientID,
		RiskScore:  rj.RiskScore,
		Confidence: rj.Confidence,
		ShapValues: rj.ShapValues,
		Note:       rj.Note,
		Synthetic:  rj.Synthetic,
		Timestamp:  rj.Timestamp,
	}

	return nil
}

type Page struct {
	Offset      uint64   `json:"offset"`
	Limit       uint64   `json:"limit"`
	Total       uint64   `json:"total"`
	Predictions []Result `json:"predictions"`
}

// Request is the body of POST /hospital/{id}/predict.
type Request struct {
	Features []float64 `json:"features" cbor:"features"`
}

func (r Request) Validate() error {
	if len(r.Features) != NumFeatures {
		return pkgerrors.NewValidationError("features", fmt.Sprintf("expected %d features, got %d", NumFeatures, len(r.Features)))
	}
	for i, v := range r.Features {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return pkgerrors.NewValidationError(Features[i].Name, "not a finite number")
		}
	}

	return nil
}

type Importance struct {
	Feature   string  `json:"feature"`
	ShapValue float64 `json:"shap_value"`
}

// Response is the remote model's answer. Prediction is a probability in
// [0,1]; RiskLevel is whatever the backend computed and is not trusted.
type Response struct {
	Prediction        float64      `json:"prediction"`
	RiskLevel         string       `json:"risk_level"`
	Confidence        float64      `json:"confidence"`
	FeatureImportance []Importance `json:"feature_importance"`
	Note              string       `json:"note,omitempty"`
}

func (r Response) Validate() error {
	if math.IsNaN(r.Prediction) || r.Prediction < 0 || r.Prediction > 1 {
		return pkgerrors.NewValidationError("prediction", "must be within [0,1]")
	}
	if len(r.FeatureImportance) == 0 {
		return pkgerrors.NewValidationError("feature_importance", "required")
	}

	return nil
}

// ToResult converts the wire response into a Result with the risk score on
// the 0-100 scale.
func (r Response) ToResult(hospitalID, patientID string, at time.Time) Result {
	shap := make(map[string]float64, len(r.FeatureImportance))
	for _, fi := range r.FeatureImportance {
		shap[fi.Feature] = fi.ShapValue
	}
	score, _ := strconv.ParseFloat(strconv.FormatFloat(r.Prediction*100, 'f', 2, 64), 64)

	return Result{
		HospitalID: hospitalID,
		PatientID:  patientID,
		RiskScore:  score,
		Confidence: r.Confidence,
		ShapValues: shap,
		Note:       r.Note,
		Timestamp:  at,
	}
}
