package fallback

import (
	"time"

	"github.com/absmach/cvdash/pkg/training"
)

type Hospital struct {
	ID                 string
	Name               string
	Status             training.ClientState
	Since              time.Duration
	Accuracy           float64
	TotalSamples       uint64
	RoundsParticipated uint64
}

func (h Hospital) client(now time.Time) training.Client {
	return training.Client{
		ID:                 h.ID,
		Name:               h.Name,
		Status:             h.Status,
		LastUpdate:         now.Add(-h.Since),
		Accuracy:           h.Accuracy,
		TotalSamples:       h.TotalSamples,
		RoundsParticipated: h.RoundsParticipated,
	}
}

// Roster is the fixed set of participating hospitals.
var Roster = []Hospital{
	{ID: "h1", Name: "Apollo Hospital Chennai", Status: training.ClientOnline, Since: 2 * time.Minute, Accuracy: 0.8756, TotalSamples: 3421, RoundsParticipated: 45},
	{ID: "h2", Name: "AIIMS Delhi", Status: training.ClientTraining, Since: 5 * time.Minute, Accuracy: 0.8921, TotalSamples: 5234, RoundsParticipated: 47},
	{ID: "h3", Name: "Fortis Bangalore", Status: training.ClientOnline, Since: 3 * time.Minute, Accuracy: 0.8634, TotalSamples: 2876, RoundsParticipated: 43},
	{ID: "h4", Name: "Max Hospital Mumbai", Status: training.ClientOffline, Since: 2 * time.Hour, Accuracy: 0.8512, TotalSamples: 2234, RoundsParticipated: 40},
	{ID: "h5", Name: "Christian Medical College Vellore", Status: training.ClientOnline, Since: 4 * time.Minute, Accuracy: 0.8845, TotalSamples: 4123, RoundsParticipated: 46},
	{ID: "h6", Name: "Manipal Hospital", Status: training.ClientTraining, Since: 90 * time.Second, Accuracy: 0.8698, TotalSamples: 3098, RoundsParticipated: 44},
	{ID: "h7", Name: "Medanta Gurugram", Status: training.ClientOnline, Since: 7 * time.Minute, Accuracy: 0.8734, TotalSamples: 3567, RoundsParticipated: 42},
	{ID: "h8", Name: "Narayana Health Bangalore", Status: training.ClientOnline, Since: 150 * time.Second, Accuracy: 0.8812, TotalSamples: 3789, RoundsParticipated: 45},
}

func Lookup(id string) (Hospital, bool) {
	for _, h := range Roster {
		if h.ID == id {
			return h, true
		}
	}

	return Hospital{}, false
}

type logTemplate struct {
	age      time.Duration
	severity training.Severity
	message  string
	source   string
}

var systemLogs = []logTemplate{
	{2 * time.Minute, training.SeverityInfo, "Federated round 47 completed successfully", "FL-Server"},
	{3 * time.Minute, training.SeverityInfo, "Client h2 (AIIMS Delhi) uploaded model update", "FL-Server"},
	{4 * time.Minute, training.SeverityWarning, "Client h4 (Max Hospital Mumbai) connection timeout", "FL-Server"},
	{5 * time.Minute, training.SeverityInfo, "Global model aggregation started for round 47", "Aggregator"},
	{6 * time.Minute, training.SeverityInfo, "Model weights received from 7 clients", "FL-Server"},
	{7 * time.Minute, training.SeverityError, "Client h4 failed to send update within timeout period", "FL-Server"},
	{8 * time.Minute, training.SeverityInfo, "Round 46 completed with 8 participants", "FL-Server"},
}
