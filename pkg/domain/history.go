package domain

// HistoryItem is one completed generation session. Created once at the end of
// a successful run and never mutated afterwards.
type HistoryItem struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Timestamp int64       `json:"timestamp"`
	Documents DocumentSet `json:"documents"`
}
