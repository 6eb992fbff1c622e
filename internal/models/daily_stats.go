package models

import "time"

// DailyStats holds per-day throughput counters. A new calendar day starts
// from a zero row; resetting the queue never touches these.
type DailyStats struct {
	StatDate         time.Time `json:"stat_date"`
	TokensServed     int       `json:"tokens_served_today"`
	PeakQueueSize    int       `json:"peak_queue_size"`
	TotalWaitMinutes float64   `json:"total_wait_minutes"`
	TokensProcessed  int       `json:"tokens_processed"`
}

// AverageWaitMinutes returns the mean wait of served tokens, rounded to the
// nearest minute, or 0 when nothing has been processed yet
func (s *DailyStats) AverageWaitMinutes() int {
	if s.TokensProcessed == 0 {
		return 0
	}
	return int(s.TotalWaitMinutes/float64(s.TokensProcessed) + 0.5)
}

// DayKey formats a time as the stats bucket key
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
