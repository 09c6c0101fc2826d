package prediction

// Feature is one column of the clinical feature vector with its min-max
// scaling bounds.
type Feature struct {
	Name        string  `json:"name"`
	Label       string  `json:"label"`
	Description string  `json:"description"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Default     float64 `json:"default"`
}

const NumFeatures = 13

// Features is ordered; the index is the position in the transmitted vector.
var Features = [NumFeatures]Feature{
	{Name: "age", Label: "Age", Description: "Age in years", Min: 30, Max: 80, Default: 55},
	{Name: "sex", Label: "Sex (0=F, 1=M)", Description: "Sex (1=male, 0=female)", Min: 0, Max: 1, Default: 1},
	{Name: "chest_pain_type", Label: "Chest Pain Type", Description: "Chest pain type (0-3)", Min: 0, Max: 3, Default: 2},
	{Name: "resting_bp", Label: "Resting BP (mm Hg)", Description: "Resting blood pressure (mm Hg)", Min: 90, Max: 200, Default: 140},
	{Name: "cholesterol", Label: "Cholesterol (mg/dl)", Description: "Serum cholesterol (mg/dl)", Min: 120, Max: 400, Default: 250},
	{Name: "fasting_bs", Label: "Fasting Blood Sugar >120", Description: "Fasting blood sugar > 120 mg/dl (1=yes, 0=no)", Min: 0, Max: 1, Default: 0},
	{Name: "resting_ecg", Label: "Resting ECG", Description: "Resting ECG results (0-2)", Min: 0, Max: 2, Default: 1},
	{Name: "max_heart_rate", Label: "Max Heart Rate", Description: "Maximum heart rate achieved", Min: 70, Max: 200, Default: 150},
	{Name: "exercise_angina", Label: "Exercise Angina", Description: "Exercise induced angina (1=yes, 0=no)", Min: 0, Max: 1, Default: 1},
	{Name: "oldpeak", Label: "ST Depression", Description: "ST depression induced by exercise", Min: 0, Max: 6, Default: 2.5},
	{Name: "st_slope", Label: "ST Slope", Description: "Slope of peak exercise ST segment (0-2)", Min: 0, Max: 2, Default: 1},
	{Name: "ca", Label: "Major Vessels", Description: "Number of major vessels (0-3)", Min: 0, Max: 3, Default: 1},
	{Name: "thal", Label: "Thalassemia", Description: "Thalassemia (0-2)", Min: 0, Max: 2, Default: 2},
}

func FeatureNames() []string {
	names := make([]string, NumFeatures)
	for i, f := range Features {
		names[i] = f.Name
	}

	return names
}

func FeatureIndex(name string) (int, bool) {
	for i, f := range Features {
		if f.Name == name {
			return i, true
		}
	}

	return 0, false
}

// Normalize min-max scales a raw value. Values outside [Min, Max] are not
// clamped and map outside [0,1].
func (f Feature) Normalize(raw float64) float64 {
	return (raw - f.Min) / (f.Max - f.Min)
}

// Denormalize is the inverse of Normalize.
func (f Feature) Denormalize(norm float64) float64 {
	return f.Min + norm*(f.Max-f.Min)
}

// Vector is an ordered, normalized feature vector.
type Vector [NumFeatures]float64

func (v Vector) Slice() []float64 {
	out := make([]float64, NumFeatures)
	copy(out, v[:])

	return out
}
