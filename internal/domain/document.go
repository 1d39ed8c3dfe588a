package domain

import (
	"context"
	"io"
)

// Page is the text of one page of an uploaded document.
type Page struct {
	Number int
	Text   string
}

// Document is the extracted form of an upload.
type Document struct {
	Name    string
	Hash    string
	Pages   []Page
	Context string
}

// Upload is the raw file the user submitted.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// DocumentIngestor stores an upload and extracts its text.
type DocumentIngestor interface {
	Ingest(ctx context.Context, upload Upload) (*Document, error)
}
