// Package engine exposes the document capabilities the price pipeline
// works against: opening a catalog, reading positioned text, queueing
// rectangle fills and text insertions, and serializing the result as an
// incremental update.
package engine

import (
	"context"

	"github.com/R0KG/price-updater/coords"
	"github.com/R0KG/price-updater/extractor"
)

// FallbackFont is always available for InsertText: the builtin Helvetica
// base font with WinAnsiEncoding. Registered fonts take any other name.
const FallbackFont = "builtin-helvetica"

// Document is an open catalog.
type Document interface {
	// Pages returns the document's pages in order.
	Pages() []Page
	// RegisterFont parses TrueType data and makes it available to
	// InsertText under the given name.
	RegisterFont(name string, data []byte) error
	// HasFont reports whether a font was registered under the name.
	HasFont(name string) bool
	// Serialize appends the queued page mutations as an incremental
	// update and returns the complete file.
	Serialize(ctx context.Context) ([]byte, error)
}

// Page is one page of an open document.
type Page interface {
	// Index is the zero-based page position.
	Index() int
	// TextSpans interprets the page content into positioned text runs.
	TextSpans() ([]extractor.TextSpan, error)
	// FillRect queues an opaque rectangle, painted over existing content.
	FillRect(r coords.Rect, color [3]float64)
	// InsertText queues text at a baseline origin. An unregistered font
	// name falls back to the builtin font.
	InsertText(origin coords.Point, text string, size float64, font string, color [3]float64)
}
