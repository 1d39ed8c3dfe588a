package handler_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"pdf-quiz/internal/domain"
	"pdf-quiz/internal/handler"
	"pdf-quiz/internal/middleware"
	"pdf-quiz/internal/presenter"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

const testSessionID = "01HGZ8VNRYXS8QKNJV5GRWPWDQ"

// MockQuizSessionService is a function-field mock of service.QuizSessionService.
type MockQuizSessionService struct {
	StartSessionFunc func(ctx context.Context, upload domain.Upload) (*domain.Session, error)
	GetSessionFunc   func(ctx context.Context, sessionID string) (*domain.Session, domain.Selections, error)
	PresentFunc      func(ctx context.Context, sessionID string) (*domain.Session, domain.Selections, error)
	SelectOptionFunc func(ctx context.Context, sessionID, key, option string) error
	SubmitFunc       func(ctx context.Context, sessionID string, final domain.Selections) (*domain.Session, domain.Selections, error)
}

func (m *MockQuizSessionService) StartSession(ctx context.Context, upload domain.Upload) (*domain.Session, error) {
	if m.StartSessionFunc != nil {
		return m.StartSessionFunc(ctx, upload)
	}
	return nil, domain.NewInternalError("StartSession not mocked", nil)
}

func (m *MockQuizSessionService) GetSession(ctx context.Context, sessionID string) (*domain.Session, domain.Selections, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return nil, nil, domain.NewInternalError("GetSession not mocked", nil)
}

func (m *MockQuizSessionService) Present(ctx context.Context, sessionID string) (*domain.Session, domain.Selections, error) {
	if m.PresentFunc != nil {
		return m.PresentFunc(ctx, sessionID)
	}
	return nil, nil, domain.NewInternalError("Present not mocked", nil)
}

func (m *MockQuizSessionService) SelectOption(ctx context.Context, sessionID, key, option string) error {
	if m.SelectOptionFunc != nil {
		return m.SelectOptionFunc(ctx, sessionID, key, option)
	}
	return domain.NewInternalError("SelectOption not mocked", nil)
}

func (m *MockQuizSessionService) Submit(ctx context.Context, sessionID string, final domain.Selections) (*domain.Session, domain.Selections, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, sessionID, final)
	}
	return nil, nil, domain.NewInternalError("Submit not mocked", nil)
}

// StubCache answers Ping with PingErr; the handlers only use Ping.
type StubCache struct {
	domain.Cache
	PingErr error
}

func (s *StubCache) Ping(ctx context.Context) error {
	return s.PingErr
}

func sampleQuiz() *domain.Quiz {
	return &domain.Quiz{
		SchemaVersion: domain.SchemaVersion,
		Variant:       domain.VariantCaseStudy,
		Groups: []domain.QuestionGroup{{
			Narrative: "A retailer moves its stores online.",
			Questions: []domain.Question{
				{Text: "What is the capital of France?", Options: []string{"Paris", "Berlin", "Rome", "Madrid"}, Correct: "Paris"},
				{Text: "Pick option A", Options: []string{"option A", "option B", "option C", "option D"}, Correct: "option A"},
			},
		}},
	}
}

func sessionIn(state domain.SessionState) *domain.Session {
	session := domain.NewSession(testSessionID)
	session.State = state
	session.DocumentName = "notes.pdf"
	session.PageCount = 2
	session.Quiz = sampleQuiz()
	return session
}

func newTestApp(t *testing.T, svc *MockQuizSessionService, cache domain.Cache) *fiber.App {
	t.Helper()
	views, err := presenter.NewViews()
	require.NoError(t, err)

	quizHandler := handler.NewQuizHandler(svc, cache)
	webHandler := handler.NewWebHandler(svc)

	app := fiber.New(fiber.Config{
		Views:        views,
		ErrorHandler: middleware.ErrorHandler(webHandler.RenderError),
	})
	app.Use(middleware.RequestIDMiddleware())
	handler.SetupRoutes(app, quizHandler, webHandler)
	return app
}

func multipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func newUploadRequest(t *testing.T, path, filename string, content []byte) *http.Request {
	t.Helper()
	body, contentType := multipartUpload(t, filename, content)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set(fiber.HeaderContentType, contentType)
	return req
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}
