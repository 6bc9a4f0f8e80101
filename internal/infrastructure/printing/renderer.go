package printing

import (
	"context"
	"time"
)

// PDFRenderer turns HTML into PDF bytes.
type PDFRenderer interface {
	// Render produces a PDF for the given request. The context bounds the
	// whole render, including document load.
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	// Close releases the browser resources behind the renderer.
	Close() error
}

// RenderRequest describes one document to render.
type RenderRequest struct {
	// HTML is either a full document or a fragment. Fragments are wrapped
	// in a minimal page before printing.
	HTML string

	// PaperSize selects the page dimensions.
	PaperSize PaperSize

	// Orientation of the page, portrait when empty.
	Orientation Orientation

	// Margins in millimeters.
	Margins Margins

	// Title lands in the document head when the HTML is a fragment.
	Title string

	// HeaderHTML and FooterHTML are print templates drawn inside the top
	// and bottom margins on every page.
	HeaderHTML string
	FooterHTML string

	// Timeout overrides the renderer's default per-render timeout.
	Timeout time.Duration
}

// RenderResult carries the rendered document.
type RenderResult struct {
	PDFData        []byte
	PageCount      int
	RenderDuration time.Duration
}

// Error codes reported by renderers.
const (
	ErrCodeRenderTimeout    = "RENDER_TIMEOUT"
	ErrCodeRenderFailed     = "RENDER_FAILED"
	ErrCodeInvalidHTML      = "INVALID_HTML"
	ErrCodeInvalidPaperSize = "INVALID_PAPER_SIZE"
)

// RenderError is the error type returned by renderers. Code is one of the
// ErrCode constants and is stable across renderer implementations.
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// NewRenderError builds a RenderError, cause may be nil.
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
