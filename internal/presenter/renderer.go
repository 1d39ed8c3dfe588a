package presenter

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/html/v2"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names accepted by the view engine.
const (
	PageIndex  = "index"
	PageQuiz   = "quiz"
	PageResult = "result"

	// Layout wraps every page; it includes the page with {{embed}}.
	Layout = "layout"
)

// IndexData feeds the upload page.
type IndexData struct {
	Error string
}

// NewViews returns the fiber view engine over the embedded pages. Templates are
// parsed here so a broken page fails at startup instead of on first request.
func NewViews() (*html.Engine, error) {
	pages, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("failed to open page templates: %w", err)
	}

	engine := html.NewFileSystem(http.FS(pages), ".html")
	if err := engine.Load(); err != nil {
		return nil, fmt.Errorf("failed to parse page templates: %w", err)
	}
	return engine, nil
}
