package fl

// Update is one client's contribution to a federated round.
type Update struct {
	ClientID   string    `json:"client_id"`
	Round      uint64    `json:"round"`
	NumSamples uint64    `json:"num_samples"`
	Weights    []float64 `json:"weights"`
	Bias       float64   `json:"bias"`
	Accuracy   float64   `json:"accuracy"`
	Loss       float64   `json:"loss"`
}

// Model is the aggregated global model after a round.
type Model struct {
	Round        uint64    `json:"round"`
	Weights      []float64 `json:"weights"`
	Bias         float64   `json:"bias"`
	Accuracy     float64   `json:"accuracy"`
	Loss         float64   `json:"loss"`
	TotalSamples uint64    `json:"total_samples"`
	NumUpdates   int       `json:"num_updates"`
	Algorithm    string    `json:"algorithm"`
}

type Aggregator interface {
	Aggregate(updates []Update) (Model, error)
}
