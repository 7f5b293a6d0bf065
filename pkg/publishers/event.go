package publishers

import (
	"time"

	"github.com/samvad-hq/completion-bench/internal/domain"
)

// Event represents a benchmark result published downstream.
type Event struct {
	RunID       string           `json:"run_id"`
	Strategy    string           `json:"strategy"`
	Result      domain.RunResult `json:"result"`
	CollectedAt time.Time        `json:"collected_at"`
}

// NewEvent constructs an Event for the given result.
func NewEvent(res domain.RunResult) Event {
	return Event{
		RunID:       res.RunID,
		Strategy:    res.Strategy,
		Result:      res,
		CollectedAt: time.Now().UTC(),
	}
}

// attributes are the message attributes attached by queue and topic sinks.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"run_id":   e.RunID,
		"strategy": e.Strategy,
	}
}
