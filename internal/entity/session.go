package entity

import "time"

// Session is the persisted form of one user's controller. The selected image
// and its preview live in memory only, so a restored session has no
// selection.
type Session struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Error       string    `json:"error"`
	Version     uint64    `json:"version"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewSession(id string, s State, version uint64, at time.Time) *Session {
	return &Session{
		ID:          id,
		Description: s.Description,
		Error:       s.Error,
		Version:     version,
		UpdatedAt:   at,
	}
}

// State returns the part of the page state that survives a restart.
func (s *Session) State() State {
	return State{Description: s.Description, Error: s.Error}
}
