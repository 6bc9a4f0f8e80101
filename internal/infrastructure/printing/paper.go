package printing

import "fmt"

// PaperSize names a supported page format.
type PaperSize string

const (
	// PaperSizeA4 is 210mm x 297mm.
	PaperSizeA4 PaperSize = "A4"
	// PaperSizeReceipt80MM is 80mm wide thermal receipt paper with
	// content-driven height.
	PaperSizeReceipt80MM PaperSize = "RECEIPT_80MM"
)

func (p PaperSize) IsValid() bool {
	switch p {
	case PaperSizeA4, PaperSizeReceipt80MM:
		return true
	}
	return false
}

func (p PaperSize) String() string { return string(p) }

// Dimensions returns width and height in millimeters. Receipt paper has no
// fixed height and reports zero; unknown sizes fall back to A4.
func (p PaperSize) Dimensions() (width, height int) {
	switch p {
	case PaperSizeReceipt80MM:
		return 80, 0
	default:
		return 210, 297
	}
}

// IsReceipt reports whether this is continuous receipt paper.
func (p PaperSize) IsReceipt() bool {
	return p == PaperSizeReceipt80MM
}

// Orientation of the printed page.
type Orientation string

const (
	OrientationPortrait  Orientation = "PORTRAIT"
	OrientationLandscape Orientation = "LANDSCAPE"
)

func (o Orientation) IsValid() bool {
	switch o {
	case OrientationPortrait, OrientationLandscape:
		return true
	}
	return false
}

func (o Orientation) String() string { return string(o) }

// Margins are the page margins in millimeters.
type Margins struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// NewMargins validates and builds a Margins value.
func NewMargins(top, right, bottom, left int) (Margins, error) {
	for _, v := range []int{top, right, bottom, left} {
		if v < 0 {
			return Margins{}, fmt.Errorf("margins cannot be negative")
		}
		if v > 100 {
			return Margins{}, fmt.Errorf("margins cannot exceed 100mm")
		}
	}
	return Margins{Top: top, Right: right, Bottom: bottom, Left: left}, nil
}

// DefaultMargins suits A4 documents.
func DefaultMargins() Margins {
	return Margins{Top: 10, Right: 10, Bottom: 10, Left: 10}
}

// ReceiptMargins keeps the print area wide on narrow thermal paper.
func ReceiptMargins() Margins {
	return Margins{Top: 2, Right: 2, Bottom: 2, Left: 2}
}

// IsZero reports whether every margin is zero.
func (m Margins) IsZero() bool {
	return m == Margins{}
}
