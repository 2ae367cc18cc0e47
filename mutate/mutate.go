// Package mutate executes an edit plan against an open document: a full
// erase pass followed by a full insert pass.
package mutate

import (
	"context"
	"fmt"

	"github.com/R0KG/price-updater/coords"
	"github.com/R0KG/price-updater/engine"
	"github.com/R0KG/price-updater/fonts"
	"github.com/R0KG/price-updater/observability"
	"github.com/R0KG/price-updater/plan"
	"github.com/R0KG/price-updater/scan"
)

var (
	whiteoutColor = [3]float64{1, 1, 1}
	textColor     = [3]float64{0, 0, 0} // replacements are always solid black
)

// Config selects the font used for replacement text.
type Config struct {
	FontName string // handle to register the font under
	FontData []byte // TrueType data; nil forces the builtin fallback
}

// Mutator applies mutation plans.
type Mutator struct {
	cfg    Config
	logger observability.Logger
}

// New builds a mutator. A nil logger defaults to NopLogger.
func New(cfg Config, logger observability.Logger) *Mutator {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &Mutator{cfg: cfg, logger: logger}
}

// Apply paints every directive's erase rectangle, then draws every
// replacement text. The two passes never interleave, so an erase can not
// cover a freshly drawn neighbour when bounding boxes overlap.
func (m *Mutator) Apply(ctx context.Context, doc engine.Document, directives []plan.Directive) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pages := doc.Pages()
	for _, d := range directives {
		if d.Occurrence.PageIndex < 0 || d.Occurrence.PageIndex >= len(pages) {
			return fmt.Errorf("mutate: occurrence %s on missing page %d", d.Occurrence.ID, d.Occurrence.Page())
		}
	}

	fontName, embedded := m.prepareFont(doc)

	for _, d := range directives {
		pages[d.Occurrence.PageIndex].FillRect(d.Occurrence.BBox, whiteoutColor)
	}
	for _, d := range directives {
		occ := d.Occurrence
		m.warnOnOverflow(occ, d.DisplayText, embedded)
		anchor := coords.Point{X: occ.BBox.X0, Y: occ.Origin.Y}
		pages[occ.PageIndex].InsertText(anchor, d.DisplayText, occ.FontSize, fontName, textColor)
	}
	m.logger.Info("mutation plan applied",
		observability.Int("directives", len(directives)),
		observability.String("font", fontName))
	return nil
}

// prepareFont registers the configured font once per document and returns
// the handle to draw with. Any failure degrades to the builtin fallback
// instead of aborting.
func (m *Mutator) prepareFont(doc engine.Document) (string, *fonts.Embedded) {
	if len(m.cfg.FontData) == 0 || m.cfg.FontName == "" {
		return engine.FallbackFont, nil
	}
	if !doc.HasFont(m.cfg.FontName) {
		if err := doc.RegisterFont(m.cfg.FontName, m.cfg.FontData); err != nil {
			m.logger.Warn("font registration failed, using builtin fallback",
				observability.String("font", m.cfg.FontName),
				observability.Error("err", err))
			return engine.FallbackFont, nil
		}
	}
	embedded, err := fonts.LoadTrueType(m.cfg.FontName, m.cfg.FontData)
	if err != nil {
		return m.cfg.FontName, nil
	}
	return m.cfg.FontName, embedded
}

// warnOnOverflow compares the replacement's measured width against the
// erased region so layout regressions show up in the log.
func (m *Mutator) warnOnOverflow(occ scan.Occurrence, text string, embedded *fonts.Embedded) {
	var width float64
	if embedded != nil {
		w, err := embedded.Measure(text, occ.FontSize)
		if err != nil {
			return
		}
		width = w
	} else {
		width = fonts.MeasureWinAnsi(text, occ.FontSize)
	}
	if width > occ.BBox.Width() {
		m.logger.Warn("replacement text wider than erased region",
			observability.String("occurrence", occ.ID),
			observability.Float64("text_width", width),
			observability.Float64("region_width", occ.BBox.Width()))
	}
}
