package training

import (
	"fmt"
	"sort"
	"time"

	pkgerrors "github.com/absmach/cvdash/pkg/errors"
)

type ClientState string

const (
	ClientOnline   ClientState = "online"
	ClientTraining ClientState = "training"
	ClientOffline  ClientState = "offline"
)

func (s ClientState) Valid() bool {
	switch s {
	case ClientOnline, ClientTraining, ClientOffline:
		return true
	default:
		return false
	}
}

type Client struct {
	ID                 string      `json:"id"`
	Name               string      `json:"name"`
	Status             ClientState `json:"status"`
	LastUpdate         time.Time   `json:"lastUpdate"`
	Accuracy           float64     `json:"accuracy"`
	TotalSamples       uint64      `json:"totalSamples"`
	RoundsParticipated uint64      `json:"roundsParticipated"`
}

// ValidateClients checks a full roster; ids must be unique.
func ValidateClients(clients []Client) error {
	seen := make(map[string]struct{}, len(clients))
	for i, c := range clients {
		if c.ID == "" {
			return pkgerrors.NewValidationError(fmt.Sprintf("clients[%d].id", i), "required")
		}
		if _, ok := seen[c.ID]; ok {
			return pkgerrors.NewValidationError(fmt.Sprintf("clients[%d].id", i), "duplicate id "+c.ID)
		}
		seen[c.ID] = struct{}{}
		if !c.Status.Valid() {
			return pkgerrors.NewValidationError(fmt.Sprintf("clients[%d].status", i), "unknown status "+string(c.Status))
		}
		if c.Accuracy < 0 || c.Accuracy > 1 {
			return pkgerrors.NewValidationError(fmt.Sprintf("clients[%d].accuracy", i), "must be within [0,1]")
		}
	}

	return nil
}

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError:
		return true
	default:
		return false
	}
}

type LogEntry struct {
	ID        uint64    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Source    string    `json:"source,omitempty"`
}

func ValidateLogs(logs []LogEntry) error {
	seen := make(map[uint64]struct{}, len(logs))
	for i, l := range logs {
		if _, ok := seen[l.ID]; ok {
			return pkgerrors.NewValidationError(fmt.Sprintf("logs[%d].id", i), "duplicate id")
		}
		seen[l.ID] = struct{}{}
		if !l.Severity.Valid() {
			return pkgerrors.NewValidationError(fmt.Sprintf("logs[%d].severity", i), "unknown severity "+string(l.Severity))
		}
	}

	return nil
}

// SortLogs returns a copy ordered by timestamp descending, the display
// convention.
func SortLogs(logs []LogEntry) []LogEntry {
	sorted := make([]LogEntry, len(logs))
	copy(sorted, logs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	return sorted
}
