package dto

import (
	"time"

	"pdf-quiz/internal/domain"
	"pdf-quiz/internal/presenter"
)

// GenerationFailureResponse explains why a session has no questions
// @Description Generation failure details
type GenerationFailureResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// SessionResponse represents a quiz session in the API response
// @Description Quiz session with its presentable quiz
type SessionResponse struct {
	ID           string                     `json:"id"`
	State        string                     `json:"state"`
	DocumentName string                     `json:"document_name"`
	PageCount    int                        `json:"page_count"`
	CreatedAt    time.Time                  `json:"created_at"`
	UpdatedAt    time.Time                  `json:"updated_at"`
	Failure      *GenerationFailureResponse `json:"failure,omitempty"`
	Quiz         presenter.View             `json:"quiz"`
}

// SelectionRequest represents a single answer choice
// @Description Request body for selecting an option
type SelectionRequest struct {
	Key    string `json:"key" example:"g0-q1"`
	Option string `json:"option" example:"Paris"`
}

// SubmitRequest represents a quiz submission. Selections are optional and merged into
// the ones already recorded.
// @Description Request body for submitting a quiz
type SubmitRequest struct {
	Selections map[string]string `json:"selections"`
}

// SubmitResponse represents the score of a submitted quiz
// @Description Score report of a submitted quiz
type SubmitResponse struct {
	SessionID          string         `json:"session_id"`
	Score              int            `json:"score"`
	Total              int            `json:"total"`
	CorrectQuestions   []string       `json:"correct_questions"`
	IncorrectQuestions []string       `json:"incorrect_questions"`
	Quiz               presenter.View `json:"quiz"`
}

// HealthResponse represents the service health
type HealthResponse struct {
	Status string `json:"status"`
	Cache  string `json:"cache"`
}

// NewSessionResponse builds the API view of a session
func NewSessionResponse(session *domain.Session, selections domain.Selections) SessionResponse {
	resp := SessionResponse{
		ID:           session.ID,
		State:        string(session.State),
		DocumentName: session.DocumentName,
		PageCount:    session.PageCount,
		CreatedAt:    session.CreatedAt,
		UpdatedAt:    session.UpdatedAt,
		Quiz:         presenter.Build(session, selections),
	}
	if session.GenerationError != nil {
		resp.Failure = &GenerationFailureResponse{
			Kind:    string(session.GenerationError.Kind),
			Message: session.GenerationError.Message,
		}
	}
	return resp
}

// NewSubmitResponse builds the API view of a scored session
func NewSubmitResponse(session *domain.Session, selections domain.Selections) SubmitResponse {
	resp := SubmitResponse{
		SessionID:          session.ID,
		CorrectQuestions:   []string{},
		IncorrectQuestions: []string{},
		Quiz:               presenter.Build(session, selections),
	}
	if session.Report != nil {
		resp.Score = session.Report.Score
		resp.Total = session.Report.Total
		resp.CorrectQuestions = session.Report.CorrectQuestions
		resp.IncorrectQuestions = session.Report.IncorrectQuestions
	}
	return resp
}
