// Package pdf provides positioned text extraction and layout-preserving
// reconstruction of PDF documents.
package pdf

import "fmt"

// TextSegment is one extracted run of text with its position on the page.
// Coordinates use the PDF convention: origin at the bottom-left corner,
// Y increasing upward. Page numbers are 1-based.
type TextSegment struct {
	ID       string  `json:"id"`
	Page     int     `json:"page"`
	Text     string  `json:"text"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	FontSize float64 `json:"font_size"`
	FontName string  `json:"font_name"`
}

// TranslatedSegment pairs a TextSegment with its translation
type TranslatedSegment struct {
	TextSegment
	TranslatedText string `json:"translated_text"`
}

// PDFErrorCode identifies the category of a PDF processing failure
type PDFErrorCode string

const (
	// ErrUnreadable indicates a file that is not a parseable PDF
	ErrUnreadable PDFErrorCode = "PDF_UNREADABLE"
	// ErrEncrypted indicates a password-protected PDF
	ErrEncrypted PDFErrorCode = "PDF_ENCRYPTED"
	// ErrRebuild indicates a failure while generating the output PDF
	ErrRebuild PDFErrorCode = "REBUILD_FAILED"
)

// PDFError represents an error during PDF processing
type PDFError struct {
	Code    PDFErrorCode
	Message string
	Details string
	Page    int
	Cause   error
}

// Error implements the error interface
func (e *PDFError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("[%s] page %d: %s", e.Code, e.Page, e.Message)
	}
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *PDFError) Unwrap() error {
	return e.Cause
}

// NewPDFError creates a new PDFError
func NewPDFError(code PDFErrorCode, message string, cause error) *PDFError {
	return &PDFError{Code: code, Message: message, Cause: cause}
}

// NewPDFErrorWithPage creates a new PDFError tied to a specific page
func NewPDFErrorWithPage(code PDFErrorCode, message string, page int, cause error) *PDFError {
	return &PDFError{Code: code, Message: message, Page: page, Cause: cause}
}
