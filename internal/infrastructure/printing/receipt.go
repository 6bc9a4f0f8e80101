package printing

import (
	"context"
	_ "embed"

	orderapp "github.com/moa/backend/internal/application/order"
	"go.uber.org/zap"
)

//go:embed templates/order_receipt.html
var orderReceiptHTML string

// OrderReceiptRenderer renders order receipts as PDF documents. It binds
// the receipt data to the embedded HTML template and hands the result to
// the PDF renderer.
type OrderReceiptRenderer struct {
	engine *TemplateEngine
	pdf    PDFRenderer
	logger *zap.Logger
}

// NewOrderReceiptRenderer creates a new OrderReceiptRenderer
func NewOrderReceiptRenderer(pdf PDFRenderer, logger *zap.Logger) *OrderReceiptRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderReceiptRenderer{
		engine: NewTemplateEngine(),
		pdf:    pdf,
		logger: logger,
	}
}

// RenderOrderReceipt renders the receipt template for the given order data
// and converts it to an A4 PDF
func (r *OrderReceiptRenderer) RenderOrderReceipt(ctx context.Context, data *orderapp.ReceiptData) ([]byte, error) {
	if data == nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "receipt data is nil", nil)
	}

	html, err := r.engine.RenderString(ctx, "order_receipt", orderReceiptHTML, data)
	if err != nil {
		return nil, err
	}

	result, err := r.pdf.Render(ctx, &RenderRequest{
		HTML:        html,
		PaperSize:   PaperSizeA4,
		Orientation: OrientationPortrait,
		Margins:     DefaultMargins(),
		Title:       "Recibo " + data.OrderNumber,
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("order receipt rendered",
		zap.String("order_number", data.OrderNumber),
		zap.Int("pages", result.PageCount),
		zap.Duration("duration", result.RenderDuration))

	return result.PDFData, nil
}

// Ensure OrderReceiptRenderer implements the application contract
var _ orderapp.ReceiptRenderer = (*OrderReceiptRenderer)(nil)
