package prediction

import (
	"math"
	"strconv"
	"strings"

	pkgerrors "github.com/absmach/cvdash/pkg/errors"
)

// Form holds raw clinical values as entered, keyed by feature name.
type Form struct {
	PatientID string             `json:"patientId"`
	Values    map[string]float64 `json:"values"`
}

// DefaultForm is pre-filled with the table defaults.
func DefaultForm(patientID string) Form {
	values := make(map[string]float64, NumFeatures)
	for _, f := range Features {
		values[f.Name] = f.Default
	}

	return Form{PatientID: patientID, Values: values}
}

// ParseForm builds a Form from string inputs; the first unparsable field is
// reported.
func ParseForm(patientID string, raw map[string]string) (Form, error) {
	values := make(map[string]float64, len(raw))
	for _, f := range Features {
		s, ok := raw[f.Name]
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return Form{}, pkgerrors.NewValidationError(f.Name, "not a number")
		}
		values[f.Name] = v
	}

	return Form{PatientID: patientID, Values: values}, nil
}

// Validate runs before any network call.
func (f Form) Validate() error {
	if strings.TrimSpace(f.PatientID) == "" {
		return pkgerrors.NewValidationError("patientId", "required")
	}
	for name := range f.Values {
		if _, ok := FeatureIndex(name); !ok {
			return pkgerrors.NewValidationError(name, "unknown feature")
		}
	}
	for _, feat := range Features {
		v, ok := f.Values[feat.Name]
		if !ok {
			return pkgerrors.NewValidationError(feat.Name, "required")
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return pkgerrors.NewValidationError(feat.Name, "not a finite number")
		}
	}

	return nil
}

// Normalize returns the ordered, min-max scaled vector. Call Validate first.
func (f Form) Normalize() Vector {
	var v Vector
	for i, feat := range Features {
		v[i] = feat.Normalize(f.Values[feat.Name])
	}

	return v
}

func (f Form) Request() Request {
	return Request{Features: f.Normalize().Slice()}
}

// OutOfRange lists features whose raw value lies outside the scaling table.
func (f Form) OutOfRange() []string {
	var names []string
	for _, feat := range Features {
		v := f.Values[feat.Name]
		if v < feat.Min || v > feat.Max {
			names = append(names, feat.Name)
		}
	}

	return names
}
