package domain

const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// Run is the observable state of one pipeline run. The aggregator is the only
// writer; the API reads it to answer progress polls.
type Run struct {
	ID            string  `json:"id"`
	Status        string  `json:"status"`
	Progress      float64 `json:"progress"` // percent, 0..100
	Phase         string  `json:"phase,omitempty"`
	Error         string  `json:"error,omitempty"`
	HistoryItemID string  `json:"history_item_id,omitempty"`

	// Documents carries the run's result once it has succeeded.
	Documents *DocumentSet `json:"documents,omitempty"`
}
