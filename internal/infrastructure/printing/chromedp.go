package printing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/moa/backend/internal/infrastructure/logger"
)

const (
	defaultRenderTimeout = 30 * time.Second
	defaultPrintScale    = 1.0

	// headerFooterMarginMM is the smallest margin that leaves Chrome room
	// to draw a header or footer template.
	headerFooterMarginMM = 10

	// receiptPageHeightMM puts continuous receipt paper on one very tall
	// page so the output never breaks mid-receipt.
	receiptPageHeightMM = 3000
)

// Chrome's print API measures pages in inches.
const mmPerInch = 25.4

// ChromedpConfig configures the headless Chrome PDF renderer.
type ChromedpConfig struct {
	// DefaultTimeout bounds a render when the request carries no timeout
	// of its own. Zero means 30 seconds.
	DefaultTimeout time.Duration

	// RemoteURL points at an already running Chrome DevTools endpoint.
	// When empty the renderer launches its own headless browser.
	RemoteURL string

	// NoSandbox turns off Chrome's sandbox. Required when the process
	// runs as root, which is the norm inside containers.
	NoSandbox bool

	// Scale multiplies the printed page size. Zero means 1.0.
	Scale float64

	// PrintBackground includes CSS background colors and images in the
	// output.
	PrintBackground bool

	Logger *zap.Logger
}

// withDefaults returns a copy with zero values filled in.
func (c ChromedpConfig) withDefaults() ChromedpConfig {
	if c.DefaultTimeout <= 0 {
		c.DefaultTimeout = defaultRenderTimeout
	}
	if c.Scale <= 0 {
		c.Scale = defaultPrintScale
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// ChromedpRenderer renders HTML to PDF over the Chrome DevTools protocol.
// The browser allocator is shared across renders while every Render call
// runs in a tab of its own, so the renderer is safe for concurrent use.
type ChromedpRenderer struct {
	config      ChromedpConfig
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

var _ PDFRenderer = (*ChromedpRenderer)(nil)

// NewChromedpRenderer creates a renderer backed by a locally launched
// headless Chrome, or by the remote instance named in the config.
func NewChromedpRenderer(config *ChromedpConfig) (*ChromedpRenderer, error) {
	var cfg ChromedpConfig
	if config != nil {
		cfg = *config
	}
	r := &ChromedpRenderer{config: cfg.withDefaults()}

	if r.config.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), r.config.RemoteURL)
	} else {
		r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), allocatorOptions(r.config)...)
	}
	return r, nil
}

// allocatorOptions builds the Chrome launch flags. The chromedp defaults
// already cover headless server operation; only print-relevant flags are
// added on top.
func allocatorOptions(cfg ChromedpConfig) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		// Uniform font metrics regardless of the host's fontconfig.
		chromedp.Flag("font-render-hinting", "none"),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	return opts
}

// Render converts the request's HTML into a PDF document.
func (r *ChromedpRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = r.config.DefaultTimeout
	}

	start := time.Now()
	pdf, err := r.print(ctx, timeout, documentHTML(req), r.printParams(req))
	if err != nil {
		return nil, err
	}
	if len(pdf) == 0 {
		return nil, NewRenderError(ErrCodeRenderFailed, "Chrome returned an empty document", nil)
	}

	result := &RenderResult{
		PDFData:        pdf,
		PageCount:      estimatePageCount(pdf),
		RenderDuration: time.Since(start),
	}
	logger.L(ctx).WithLogger(r.config.Logger).Info("pdf rendered",
		zap.String("paper_size", req.PaperSize.String()),
		zap.Int("bytes", len(result.PDFData)),
		zap.Int("pages", result.PageCount),
		zap.Duration("duration", result.RenderDuration),
	)
	return result, nil
}

// validateRequest rejects requests the renderer cannot satisfy before a
// browser tab is spent on them.
func validateRequest(req *RenderRequest) error {
	switch {
	case req == nil:
		return NewRenderError(ErrCodeInvalidHTML, "render request is nil", nil)
	case strings.TrimSpace(req.HTML) == "":
		return NewRenderError(ErrCodeInvalidHTML, "HTML content is empty", nil)
	case !req.PaperSize.IsValid():
		return NewRenderError(ErrCodeInvalidPaperSize, fmt.Sprintf("unsupported paper size %q", req.PaperSize), nil)
	case req.Orientation != "" && !req.Orientation.IsValid():
		return NewRenderError(ErrCodeInvalidPaperSize, fmt.Sprintf("unsupported orientation %q", req.Orientation), nil)
	}
	return nil
}

// print loads the document into a fresh tab and asks Chrome for the PDF.
func (r *ChromedpRenderer) print(ctx context.Context, timeout time.Duration, document string, params *page.PrintToPDFParams) ([]byte, error) {
	tabCtx, closeTab := chromedp.NewContext(r.allocCtx, chromedp.WithLogf(r.debugf))
	defer closeTab()

	runCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()
	// The tab descends from the allocator, not from the caller, so the
	// caller's cancellation has to be bridged over.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var pdf []byte
	err := chromedp.Run(runCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, document).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := params.Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err == nil {
		return pdf, nil
	}

	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return nil, NewRenderError(ErrCodeRenderTimeout, fmt.Sprintf("rendering exceeded %v", timeout), err)
	case errors.Is(ctx.Err(), context.Canceled):
		return nil, NewRenderError(ErrCodeRenderTimeout, "rendering was cancelled by the caller", err)
	default:
		logger.L(ctx).WithLogger(r.config.Logger).Error("chrome print failed", zap.Error(err))
		return nil, NewRenderError(ErrCodeRenderFailed, "chrome print failed", err)
	}
}

func (r *ChromedpRenderer) debugf(format string, args ...any) {
	r.config.Logger.Sugar().Debugf(format, args...)
}

// printParams maps the request onto Chrome's PrintToPDF call. Dimensions
// go over the wire in inches.
func (r *ChromedpRenderer) printParams(req *RenderRequest) *page.PrintToPDFParams {
	widthMM, heightMM := req.PaperSize.Dimensions()
	paperHeight := mmToInches(float64(heightMM))
	if req.PaperSize.IsReceipt() {
		// Continuous thermal paper has no fixed height; Chrome stops at
		// the rendered content.
		paperHeight = mmToInches(receiptPageHeightMM)
	}

	params := page.PrintToPDF().
		WithPrintBackground(r.config.PrintBackground).
		WithScale(r.config.Scale).
		WithPaperWidth(mmToInches(float64(widthMM))).
		WithPaperHeight(paperHeight).
		WithLandscape(req.Orientation == OrientationLandscape).
		WithMarginTop(mmToInches(float64(req.Margins.Top))).
		WithMarginRight(mmToInches(float64(req.Margins.Right))).
		WithMarginBottom(mmToInches(float64(req.Margins.Bottom))).
		WithMarginLeft(mmToInches(float64(req.Margins.Left)))

	if req.HeaderHTML == "" && req.FooterHTML == "" {
		return params
	}

	params = params.WithDisplayHeaderFooter(true).
		WithHeaderTemplate(req.HeaderHTML).
		WithFooterTemplate(req.FooterHTML)
	// Chrome draws header and footer templates inside the page margins,
	// so the affected margin must be wide enough to hold them.
	if req.HeaderHTML != "" && params.MarginTop < mmToInches(headerFooterMarginMM) {
		params.MarginTop = mmToInches(headerFooterMarginMM)
	}
	if req.FooterHTML != "" && params.MarginBottom < mmToInches(headerFooterMarginMM) {
		params.MarginBottom = mmToInches(headerFooterMarginMM)
	}
	return params
}

// documentHTML returns the request HTML as a complete document. Fragments
// are wrapped in a minimal UTF-8 page; full documents pass through as-is.
func documentHTML(req *RenderRequest) string {
	lower := strings.ToLower(req.HTML)
	if strings.Contains(lower, "<!doctype") || strings.Contains(lower, "<html") {
		return req.HTML
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	b.WriteString("<meta charset=\"UTF-8\">\n")
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	if req.Title != "" {
		b.WriteString("<title>" + html.EscapeString(req.Title) + "</title>\n")
	}
	b.WriteString("</head>\n<body>\n")
	b.WriteString(req.HTML)
	b.WriteString("\n</body>\n</html>")
	return b.String()
}

// Close shuts down the browser allocator and every tab spawned from it.
func (r *ChromedpRenderer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

func mmToInches(mm float64) float64 {
	return mm / mmPerInch
}

// estimatePageCount counts page objects in the raw PDF. Chrome writes the
// object headers uncompressed, so a plain scan is good enough for the page
// number shown alongside download links.
func estimatePageCount(pdf []byte) int {
	pages := bytes.Count(pdf, []byte("/Type /Page")) - bytes.Count(pdf, []byte("/Type /Pages"))
	if pages < 1 {
		return 1
	}
	return pages
}
