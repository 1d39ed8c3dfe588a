package domain

import (
	"time"
)

// SessionState is a step of the upload → generate → present → submit flow.
type SessionState string

const (
	StateEmpty            SessionState = "empty"
	StateUploaded         SessionState = "uploaded"
	StateExtracted        SessionState = "extracted"
	StateGenerating       SessionState = "generating"
	StateGenerated        SessionState = "generated"
	StateGenerationFailed SessionState = "generation_failed"
	StatePresented        SessionState = "presented"
	StateSubmitted        SessionState = "submitted"
)

var sessionTransitions = map[SessionState][]SessionState{
	StateEmpty:      {StateUploaded},
	StateUploaded:   {StateExtracted},
	StateExtracted:  {StateGenerating},
	StateGenerating: {StateGenerated, StateGenerationFailed},
	StateGenerated:  {StatePresented},
	StatePresented:  {StateSubmitted},
}

// CanTransition reports whether to is reachable from s in one step.
func (s SessionState) CanTransition(to SessionState) bool {
	for _, next := range sessionTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s SessionState) IsTerminal() bool {
	return len(sessionTransitions[s]) == 0
}

// Session is one upload and everything derived from it.
type Session struct {
	ID              string           `json:"id"`
	State           SessionState     `json:"state"`
	DocumentName    string           `json:"document_name"`
	DocumentHash    string           `json:"document_hash"`
	PageCount       int              `json:"page_count"`
	Quiz            *Quiz            `json:"quiz,omitempty"`
	GenerationError *GenerationError `json:"generation_error,omitempty"`
	Report          *ScoreReport     `json:"report,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// NewSession creates an empty session.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		State:     StateEmpty,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Transition moves the session to the given state or returns an INVALID_STATE error.
func (s *Session) Transition(to SessionState) error {
	if !s.State.CanTransition(to) {
		return NewInvalidStateError(s.State, to)
	}
	s.State = to
	s.UpdatedAt = time.Now()
	return nil
}

// HasQuestions reports whether the session holds a quiz worth presenting.
func (s *Session) HasQuestions() bool {
	return s.Quiz != nil && !s.Quiz.IsEmpty()
}
