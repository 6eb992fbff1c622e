package models

import "time"

// SystemState is the singleton row holding the token sequencer position and
// the number currently shown on displays. NextTokenNumber is always strictly
// greater than every issued number.
type SystemState struct {
	NextTokenNumber      int       `json:"next_token_number"`
	CurrentServingNumber *int      `json:"current_serving_number,omitempty"`
	UpdatedAt            time.Time `json:"updated_at"`
}
