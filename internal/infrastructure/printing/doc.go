// Package printing renders order receipts as PDF documents.
//
// This package contains:
// - PDFRenderer interface for rendering HTML to PDF
// - ChromedpRenderer implementation using headless Chrome via the DevTools protocol
// - TemplateEngine for executing HTML templates with BRL/pt-BR formatting helpers
// - OrderReceiptRenderer binding the embedded receipt template to the renderer
//
// Example usage:
//
//	renderer, err := NewChromedpRenderer(&ChromedpConfig{
//	    DefaultTimeout: 30 * time.Second,
//	    NoSandbox:      true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer renderer.Close()
//
//	receipts := NewOrderReceiptRenderer(renderer, logger)
//	pdf, err := receipts.RenderOrderReceipt(ctx, data)
package printing
