package models

import "time"

// Snapshot is the full authoritative queue state pushed to subscribers after
// every committed mutation. Subscribers replace their local view with it
// wholesale; GeneratedAt is monotonic across pushes so stale deliveries can
// be ignored.
type Snapshot struct {
	Tokens       []Token     `json:"tokens"`
	Counters     []Counter   `json:"counters"`
	State        SystemState `json:"system_state"`
	Stats        DailyStats  `json:"stats"`
	WaitingCount int         `json:"waiting_count"`
	GeneratedAt  time.Time   `json:"generated_at"`
}
