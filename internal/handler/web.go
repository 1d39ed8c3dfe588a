package handler

import (
	"strings"

	"pdf-quiz/internal/domain"
	"pdf-quiz/internal/logger"
	"pdf-quiz/internal/middleware"
	"pdf-quiz/internal/presenter"
	"pdf-quiz/internal/service"
	"pdf-quiz/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// WebHandler serves the browser pages: upload, quiz and result.
type WebHandler struct {
	service   service.QuizSessionService
	validator *validation.Validator
}

// NewWebHandler creates the page handlers. The app must be configured with presenter.NewViews.
func NewWebHandler(service service.QuizSessionService) *WebHandler {
	return &WebHandler{
		service:   service,
		validator: validation.NewValidator(),
	}
}

func (h *WebHandler) render(c *fiber.Ctx, page string, data any) error {
	return c.Render(page, data, presenter.Layout)
}

// Index handles GET /
func (h *WebHandler) Index(c *fiber.Ctx) error {
	return h.render(c, presenter.PageIndex, presenter.IndexData{})
}

// Upload handles POST /sessions
func (h *WebHandler) Upload(c *fiber.Ctx) error {
	upload, closeUpload, err := readUpload(c, h.validator)
	if err != nil {
		return err
	}
	defer closeUpload()

	session, err := h.service.StartSession(c.UserContext(), upload)
	if err != nil {
		return err
	}
	return c.Redirect("/sessions/"+session.ID, fiber.StatusSeeOther)
}

// Show handles GET /sessions/:id
func (h *WebHandler) Show(c *fiber.Ctx) error {
	sessionID := c.Locals(middleware.ValidatedSessionIDKey).(string)

	session, selections, err := h.service.Present(c.UserContext(), sessionID)
	if err != nil {
		return err
	}

	view := presenter.Build(session, selections)
	if view.Submitted {
		return h.render(c, presenter.PageResult, view)
	}
	return h.render(c, presenter.PageQuiz, view)
}

// Submit handles POST /sessions/:id/submit from the quiz form
func (h *WebHandler) Submit(c *fiber.Ctx) error {
	sessionID := c.Locals(middleware.ValidatedSessionIDKey).(string)

	selections := domain.Selections{}
	c.Request().PostArgs().VisitAll(func(key, value []byte) {
		selections[string(key)] = string(value)
	})
	if errs := h.validator.ValidateSelections(selections); len(errs) > 0 {
		return errs
	}

	if _, _, err := h.service.Submit(c.UserContext(), sessionID, selections); err != nil {
		return err
	}
	return c.Redirect("/sessions/"+sessionID, fiber.StatusSeeOther)
}

// RenderError shows the upload page with the error message. It implements
// middleware.HTMLErrorRenderer.
func (h *WebHandler) RenderError(c *fiber.Ctx, status int, message string) bool {
	if strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON) {
		return false
	}
	c.Status(status)
	if err := h.render(c, presenter.PageIndex, presenter.IndexData{Error: message}); err != nil {
		logger.Get().Error("Failed to render error page", zap.Error(err))
		return false
	}
	return true
}
