package handler

import (
	"pdf-quiz/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes registers the browser pages and the JSON API.
func SetupRoutes(app *fiber.App, quizHandler *QuizHandler, webHandler *WebHandler) {
	validator := middleware.NewValidationMiddleware()

	// Browser pages
	app.Get("/", webHandler.Index)
	app.Post("/sessions", webHandler.Upload)
	app.Get("/sessions/:id", validator.ValidateSessionID(), webHandler.Show)
	app.Post("/sessions/:id/submit", validator.ValidateSessionID(), webHandler.Submit)

	// API group
	apiGroup := app.Group("/api")
	apiGroup.Get("/health", quizHandler.Health)
	apiGroup.Post("/sessions", quizHandler.CreateSession)
	apiGroup.Get("/sessions/:id", validator.ValidateSessionID(), quizHandler.GetSession)
	apiGroup.Put("/sessions/:id/selections", validator.ValidateSessionID(), quizHandler.SelectOption)
	apiGroup.Post("/sessions/:id/submit", validator.ValidateSessionID(), quizHandler.SubmitQuiz)
}
