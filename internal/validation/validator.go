package validation

import (
	"path/filepath"
	"regexp"
	"strings"

	"pdf-quiz/internal/domain"
	"pdf-quiz/internal/util"
)

const (
	// MaxOptionLength bounds a submitted option; generated options are far shorter.
	MaxOptionLength = 2000
	MaxSelections   = 500
)

var (
	// Canonical upper-case form; util.IsULID additionally rejects timestamp overflow.
	validULID        = regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)
	validQuestionKey = regexp.MustCompile(`^g(0|[1-9][0-9]*)-q(0|[1-9][0-9]*)$`)
	pdfMagic         = []byte("%PDF-")
)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateSessionID validates a session id path parameter
func (v *Validator) ValidateSessionID(sessionID string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(sessionID) == "" {
		errors = append(errors, domain.NewMissingFieldError("session_id"))
	} else if !validULID.MatchString(sessionID) || !util.IsULID(sessionID) {
		errors = append(errors, domain.NewInvalidFormatError("session_id", sessionID))
	}

	return errors
}

// ValidateSelection validates the shape of one selection. Whether the key and option
// exist in the quiz is checked by the session service.
func (v *Validator) ValidateSelection(key, option string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(key) == "" {
		errors = append(errors, domain.NewMissingFieldError("key"))
	} else if !validQuestionKey.MatchString(key) {
		errors = append(errors, domain.NewInvalidFormatError("key", key))
	}

	if option == "" {
		errors = append(errors, domain.NewMissingFieldError("option"))
	} else if len(option) > MaxOptionLength {
		errors = append(errors, domain.NewOutOfRangeError("option", len(option), 1, MaxOptionLength))
	}

	return errors
}

// ValidateSelections validates a batch of selections submitted together
func (v *Validator) ValidateSelections(selections map[string]string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if len(selections) > MaxSelections {
		errors = append(errors, domain.NewOutOfRangeError("selections", len(selections), 0, MaxSelections))
		return errors
	}
	for key, option := range selections {
		errors = append(errors, v.ValidateSelection(key, option)...)
	}

	return errors
}

// ValidateUpload checks that exactly one PDF file was sent.
// head is the beginning of the file content.
func (v *Validator) ValidateUpload(fileCount int, filename string, size int64, head []byte) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if fileCount == 0 {
		errors = append(errors, domain.NewMissingFieldError("file"))
		return errors
	}
	if fileCount > 1 {
		errors = append(errors, domain.NewOutOfRangeError("file", fileCount, 1, 1))
		return errors
	}

	if size <= 0 {
		errors = append(errors, domain.ValidationError{Code: domain.CodeInvalidInput, Field: "file", Message: "file is empty"})
		return errors
	}
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") || !hasPDFMagic(head) {
		errors = append(errors, domain.ValidationError{
			Code:    domain.CodeInvalidFormat,
			Field:   "file",
			Message: "only PDF files are accepted",
			Value:   filename,
		})
	}

	return errors
}

func hasPDFMagic(head []byte) bool {
	return len(head) >= len(pdfMagic) && string(head[:len(pdfMagic)]) == string(pdfMagic)
}
