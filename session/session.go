// Package session ties the pipeline together: one session owns one
// uploaded catalog from scan through generation.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/R0KG/price-updater/engine"
	"github.com/R0KG/price-updater/mutate"
	"github.com/R0KG/price-updater/observability"
	"github.com/R0KG/price-updater/plan"
	"github.com/R0KG/price-updater/scan"
)

var (
	// ErrMalformedDocument marks input bytes that cannot be opened as a
	// document. Fatal for the request.
	ErrMalformedDocument = errors.New("malformed input document")
	// ErrNoPrices marks a document with zero detected price tokens.
	// Informational: nothing to generate, not a failure of the document.
	ErrNoPrices = errors.New("no prices found")
)

// DefaultMarkupPercent is the initial markup applied to detected prices.
const DefaultMarkupPercent = 5.0

// Session is the explicit context object carried from scan to generation.
// It is owned by a single goroutine; the processing model is one
// synchronous request per document.
type Session struct {
	source      []byte
	occurrences []scan.Occurrence
	fontCfg     mutate.Config
	logger      observability.Logger
}

// Config carries session construction options.
type Config struct {
	Font   mutate.Config
	Logger observability.Logger
}

// Open parses the uploaded bytes and scans them for prices. The input is
// kept verbatim; generation always starts from a fresh copy of it.
func Open(ctx context.Context, data []byte, cfg Config) (*Session, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = observability.NopLogger{}
	}
	doc, err := engine.Open(ctx, data, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	occurrences, err := scan.NewScanner(logger).Scan(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return &Session{
		source:      data,
		occurrences: occurrences,
		fontCfg:     cfg.Font,
		logger:      logger,
	}, nil
}

// Occurrences returns the detected prices in discovery order.
func (s *Session) Occurrences() []scan.Occurrence { return s.occurrences }

// HasPrices reports whether the scan found anything to update.
func (s *Session) HasPrices() bool { return len(s.occurrences) > 0 }

// DefaultRows builds the edit table for a markup percentage, e.g. 5.0
// for a 5% increase.
func (s *Session) DefaultRows(markupPercent float64) []plan.EditRow {
	return plan.DefaultRows(s.occurrences, 1+markupPercent/100)
}

// Generate applies the edited rows to a fresh copy of the original
// document and returns the updated file. A document without prices or a
// plan where every row is a no-op generates nothing.
func (s *Session) Generate(ctx context.Context, rows []plan.EditRow) ([]byte, error) {
	if !s.HasPrices() {
		return nil, ErrNoPrices
	}
	directives, err := plan.Build(s.occurrences, rows)
	if err != nil {
		return nil, err
	}

	doc, err := engine.Open(ctx, s.source, s.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if err := mutate.New(s.fontCfg, s.logger).Apply(ctx, doc, directives); err != nil {
		return nil, err
	}
	out, err := doc.Serialize(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("document generated",
		observability.Int("directives", len(directives)),
		observability.Int("bytes", len(out)))
	return out, nil
}
