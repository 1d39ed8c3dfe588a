package handler

import (
	"io"
	"mime/multipart"

	"pdf-quiz/internal/domain"
	"pdf-quiz/internal/dto"
	"pdf-quiz/internal/logger"
	"pdf-quiz/internal/middleware"
	"pdf-quiz/internal/service"
	"pdf-quiz/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// QuizHandler handles the JSON quiz session API
type QuizHandler struct {
	service   service.QuizSessionService
	cache     domain.Cache
	validator *validation.Validator
}

// NewQuizHandler creates a new QuizHandler instance
func NewQuizHandler(service service.QuizSessionService, cache domain.Cache) *QuizHandler {
	return &QuizHandler{
		service:   service,
		cache:     cache,
		validator: validation.NewValidator(),
	}
}

// CreateSession godoc
// @Summary Upload a PDF and generate a quiz
// @Description Extracts the text of the uploaded PDF and generates multiple-choice questions from it. A failed generation still creates a session whose quiz carries the "No questions generated." message.
// @Tags sessions
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF document"
// @Success 201 {object} dto.SessionResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 422 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /sessions [post]
func (h *QuizHandler) CreateSession(c *fiber.Ctx) error {
	upload, closeUpload, err := readUpload(c, h.validator)
	if err != nil {
		return err
	}
	defer closeUpload()

	session, err := h.service.StartSession(c.UserContext(), upload)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(dto.NewSessionResponse(session, nil))
}

// GetSession godoc
// @Summary Get a quiz session
// @Description Returns the session and its quiz. Fetching a generated quiz marks it as presented. Correct answers are only included after submission.
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID (ULID)"
// @Success 200 {object} dto.SessionResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /sessions/{id} [get]
func (h *QuizHandler) GetSession(c *fiber.Ctx) error {
	sessionID := c.Locals(middleware.ValidatedSessionIDKey).(string)

	session, selections, err := h.service.Present(c.UserContext(), sessionID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSessionResponse(session, selections))
}

// SelectOption godoc
// @Summary Select an option
// @Description Records the chosen option for one question of a presented quiz
// @Tags sessions
// @Accept json
// @Param id path string true "Session ID (ULID)"
// @Param request body dto.SelectionRequest true "Selection"
// @Success 204
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /sessions/{id}/selections [put]
func (h *QuizHandler) SelectOption(c *fiber.Ctx) error {
	sessionID := c.Locals(middleware.ValidatedSessionIDKey).(string)

	var req dto.SelectionRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid request body")
	}
	if errs := h.validator.ValidateSelection(req.Key, req.Option); len(errs) > 0 {
		return errs
	}

	if err := h.service.SelectOption(c.UserContext(), sessionID, req.Key, req.Option); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SubmitQuiz godoc
// @Summary Submit a quiz
// @Description Merges the optional final selections into the recorded ones and scores the quiz. Unanswered questions count as incorrect.
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID (ULID)"
// @Param request body dto.SubmitRequest false "Final selections"
// @Success 200 {object} dto.SubmitResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /sessions/{id}/submit [post]
func (h *QuizHandler) SubmitQuiz(c *fiber.Ctx) error {
	sessionID := c.Locals(middleware.ValidatedSessionIDKey).(string)

	var req dto.SubmitRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return domain.NewInvalidInputError("Invalid request body")
		}
	}
	if errs := h.validator.ValidateSelections(req.Selections); len(errs) > 0 {
		return errs
	}

	session, selections, err := h.service.Submit(c.UserContext(), sessionID, req.Selections)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSubmitResponse(session, selections))
}

// Health godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /health [get]
func (h *QuizHandler) Health(c *fiber.Ctx) error {
	if h.cache != nil {
		if err := h.cache.Ping(c.UserContext()); err != nil {
			logger.Get().Warn("Cache ping failed", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.HealthResponse{Status: "degraded", Cache: "unavailable"})
		}
	}
	return c.JSON(dto.HealthResponse{Status: "ok", Cache: "ok"})
}

// readUpload validates the multipart "file" field and opens it.
func readUpload(c *fiber.Ctx, v *validation.Validator) (domain.Upload, func(), error) {
	form, err := c.MultipartForm()
	if err != nil {
		return domain.Upload{}, nil, domain.ValidationErrors{domain.NewMissingFieldError("file")}
	}

	files := form.File["file"]
	if len(files) != 1 {
		return domain.Upload{}, nil, v.ValidateUpload(len(files), "", 0, nil)
	}
	header := files[0]

	file, err := header.Open()
	if err != nil {
		return domain.Upload{}, nil, domain.NewInternalError("failed to open uploaded file", err)
	}

	head, err := peek(file, 8)
	if err != nil {
		file.Close()
		return domain.Upload{}, nil, domain.NewInternalError("failed to read uploaded file", err)
	}
	if errs := v.ValidateUpload(1, header.Filename, header.Size, head); len(errs) > 0 {
		file.Close()
		return domain.Upload{}, nil, errs
	}

	return domain.Upload{
		Filename: header.Filename,
		Size:     header.Size,
		Content:  file,
	}, func() { file.Close() }, nil
}

// peek reads up to n bytes and rewinds the file.
func peek(file multipart.File, n int) ([]byte, error) {
	head := make([]byte, n)
	read, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return head[:read], nil
}
