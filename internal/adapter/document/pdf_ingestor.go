package document

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"pdf-quiz/internal/domain"
	"pdf-quiz/internal/util"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"
)

// PDFIngestor stores an upload at a fixed transient path and extracts its page text.
type PDFIngestor struct {
	uploadPath string
	separator  string
	maxPages   int
	logger     *zap.Logger

	// Every upload overwrites the same file.
	mu sync.Mutex
}

// NewPDFIngestor creates an ingestor. maxPages of 0 keeps every page.
func NewPDFIngestor(uploadPath, separator string, maxPages int, logger *zap.Logger) (*PDFIngestor, error) {
	if uploadPath == "" {
		return nil, fmt.Errorf("upload path cannot be empty")
	}
	if maxPages < 0 {
		return nil, fmt.Errorf("max pages cannot be negative: %d", maxPages)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PDFIngestor{
		uploadPath: uploadPath,
		separator:  separator,
		maxPages:   maxPages,
		logger:     logger,
	}, nil
}

// Ingest writes the upload to disk, loads it as a PDF and joins the page texts into one context string.
func (i *PDFIngestor) Ingest(ctx context.Context, upload domain.Upload) (*domain.Document, error) {
	if upload.Content == nil {
		return nil, domain.NewInvalidInputError("no file uploaded")
	}

	data, err := io.ReadAll(upload.Content)
	if err != nil {
		return nil, domain.NewInternalError("failed to read uploaded file", err)
	}
	if len(data) == 0 {
		return nil, domain.NewExtractionError(fmt.Errorf("uploaded file %q is empty", upload.Filename))
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if dir := filepath.Dir(i.uploadPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, domain.NewInternalError("failed to prepare upload directory", err)
		}
	}
	if err := os.WriteFile(i.uploadPath, data, 0o600); err != nil {
		i.logger.Error("Failed to store uploaded file", zap.Error(err), zap.String("path", i.uploadPath))
		return nil, domain.NewInternalError("failed to store uploaded file", err)
	}

	docs, err := i.load(ctx)
	if err != nil {
		i.logger.Warn("Failed to extract text from upload",
			zap.Error(err),
			zap.String("filename", upload.Filename))
		return nil, domain.NewExtractionError(err)
	}

	pages := toPages(docs, i.maxPages)
	doc := &domain.Document{
		Name:    upload.Filename,
		Hash:    util.HashBytes(data),
		Pages:   pages,
		Context: joinPages(pages, i.separator),
	}

	i.logger.Info("Extracted text from upload",
		zap.String("filename", upload.Filename),
		zap.Int("pages", len(pages)),
		zap.Int("context_length", len(doc.Context)))
	return doc, nil
}

func (i *PDFIngestor) load(ctx context.Context) (docs []schema.Document, err error) {
	f, err := os.Open(i.uploadPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open stored upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat stored upload: %w", err)
	}

	// The PDF reader panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			docs = nil
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	return documentloaders.NewPDF(f, info.Size()).Load(ctx)
}

func toPages(docs []schema.Document, maxPages int) []domain.Page {
	if maxPages > 0 && len(docs) > maxPages {
		docs = docs[:maxPages]
	}
	pages := make([]domain.Page, 0, len(docs))
	for idx, d := range docs {
		number := idx + 1
		if n, ok := d.Metadata["page"].(int); ok {
			number = n
		}
		pages = append(pages, domain.Page{Number: number, Text: d.PageContent})
	}
	return pages
}

// joinPages concatenates page texts in order with the separator between them.
func joinPages(pages []domain.Page, separator string) string {
	texts := make([]string, 0, len(pages))
	for _, p := range pages {
		texts = append(texts, p.Text)
	}
	return strings.Join(texts, separator)
}

var _ domain.DocumentIngestor = (*PDFIngestor)(nil)
