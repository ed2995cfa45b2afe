package entity

import "time"

const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeDiscarded = "discarded"
)

// GenerationEvent is published once per settled generation.
type GenerationEvent struct {
	SessionID   string        `json:"session_id"`
	ImageID     string        `json:"image_id"`
	ImageName   string        `json:"image_name"`
	MediaType   string        `json:"media_type"`
	Provider    string        `json:"provider"`
	Outcome     string        `json:"outcome"`
	Description string        `json:"description,omitempty"`
	Error       string        `json:"error,omitempty"`
	Duration    time.Duration `json:"duration"`
	SettledAt   time.Time     `json:"settled_at"`
}
