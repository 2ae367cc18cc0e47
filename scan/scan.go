// Package scan walks a document's text spans and collects price
// occurrences with the geometry needed to erase and redraw them.
package scan

import (
	"fmt"
	"strings"

	"github.com/R0KG/price-updater/coords"
	"github.com/R0KG/price-updater/engine"
	"github.com/R0KG/price-updater/observability"
	"github.com/R0KG/price-updater/pricing"
)

// Occurrence is one detected price token. Geometry comes from the whole
// span containing the match, not the matched substring, so the erase
// region may be wider than the token itself.
type Occurrence struct {
	ID          string // opaque identity, stable for the session
	PageIndex   int    // 0-based
	MatchedText string
	Prefix      string
	RawValue    string // numeric substring with separators preserved
	Currency    string
	BBox        coords.Rect
	Origin      coords.Point
	FontSize    float64
	Color       [3]float64
}

// Page is the 1-based page number shown to users.
func (o Occurrence) Page() int { return o.PageIndex + 1 }

// Scanner finds price occurrences in open documents.
type Scanner struct {
	logger observability.Logger
}

// NewScanner builds a scanner. A nil logger defaults to NopLogger.
func NewScanner(logger observability.Logger) *Scanner {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &Scanner{logger: logger}
}

// Scan visits every page in order and every span in reading order, and
// returns the occurrences with their discovery-ordered identities.
func (s *Scanner) Scan(doc engine.Document) ([]Occurrence, error) {
	var occurrences []Occurrence
	for _, page := range doc.Pages() {
		spans, err := page.TextSpans()
		if err != nil {
			return nil, fmt.Errorf("scan: page %d: %w", page.Index()+1, err)
		}
		for _, span := range spans {
			for _, m := range pricing.FindAll(normalize(span.Text)) {
				occurrences = append(occurrences, Occurrence{
					ID:          fmt.Sprintf("occ-%04d", len(occurrences)+1),
					PageIndex:   page.Index(),
					MatchedText: m.Text,
					Prefix:      m.Prefix,
					RawValue:    m.Value,
					Currency:    m.Currency,
					BBox:        span.BBox,
					Origin:      span.Origin,
					FontSize:    span.FontSize,
					Color:       span.Color,
				})
			}
		}
	}
	s.logger.Info("scan complete", observability.Int("occurrences", len(occurrences)))
	return occurrences, nil
}

// normalize folds non-breaking spaces into plain spaces so grouped values
// extracted from justified text still match the grammar.
func normalize(text string) string {
	return strings.ReplaceAll(text, "\u00a0", " ")
}
