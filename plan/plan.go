// Package plan turns user-edited rows into the ordered mutation directives
// the document mutator executes.
package plan

import (
	"fmt"

	"github.com/R0KG/price-updater/pricing"
	"github.com/R0KG/price-updater/scan"
)

// EditRow is the user-facing view of one occurrence. Only NewText is
// editable; the rest identifies and describes the occurrence.
type EditRow struct {
	ID           string `json:"id"`
	Page         int    `json:"page"`
	OriginalText string `json:"original_text"`
	NewText      string `json:"new_text"`
}

// Directive pairs an occurrence with the final text to draw in its place.
type Directive struct {
	Occurrence  scan.Occurrence
	DisplayText string
}

// DefaultRows derives the initial edit table: every occurrence with its
// markup-transformed default replacement.
func DefaultRows(occurrences []scan.Occurrence, multiplier float64) []EditRow {
	rows := make([]EditRow, 0, len(occurrences))
	for _, occ := range occurrences {
		result := pricing.Transform(occ.MatchedText, occ.Prefix, occ.Currency, multiplier)
		rows = append(rows, EditRow{
			ID:           occ.ID,
			Page:         occ.Page(),
			OriginalText: occ.MatchedText,
			NewText:      result.Text,
		})
	}
	return rows
}

// Build joins edited rows back to their occurrences and emits directives
// for the rows that changed, preserving row order. Rows whose NewText
// equals the original matched text are no-ops and produce nothing.
//
// Edited text is re-run through the transform with a unity multiplier so
// free-form input normalizes to the canonical shape without a second
// markup; text the grammar cannot parse is drawn literally.
func Build(occurrences []scan.Occurrence, rows []EditRow) ([]Directive, error) {
	byID := make(map[string]scan.Occurrence, len(occurrences))
	for _, occ := range occurrences {
		byID[occ.ID] = occ
	}
	var directives []Directive
	for _, row := range rows {
		occ, ok := byID[row.ID]
		if !ok {
			return nil, fmt.Errorf("plan: row references unknown occurrence %q", row.ID)
		}
		if row.NewText == occ.MatchedText {
			continue
		}
		display := pricing.Transform(row.NewText, occ.Prefix, occ.Currency, 1.0)
		directives = append(directives, Directive{Occurrence: occ, DisplayText: display.Text})
	}
	return directives, nil
}
