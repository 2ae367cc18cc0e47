package engine

import (
	"context"
	"fmt"

	"github.com/R0KG/price-updater/extractor"
	"github.com/R0KG/price-updater/filters"
	"github.com/R0KG/price-updater/fonts"
	"github.com/R0KG/price-updater/ir/decoded"
	"github.com/R0KG/price-updater/ir/raw"
	"github.com/R0KG/price-updater/observability"
	"github.com/R0KG/price-updater/writer"
)

type registeredFont struct {
	font     *fonts.Embedded
	resource string       // allocated /Font resource name
	usedGIDs map[int]rune // glyphs written with this font, for ToUnicode
}

type document struct {
	data   []byte
	rawDoc *raw.Document
	ex     *extractor.Extractor
	pages  []*page
	fonts  map[string]*registeredFont
	logger observability.Logger
}

// Open parses and decodes a catalog document. A nil logger defaults to
// NopLogger.
func Open(ctx context.Context, data []byte, logger observability.Logger) (Document, error) {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	rawDoc, err := raw.Parse(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	dec, err := decoded.NewDecoder(filters.Default(), logger).Decode(ctx, rawDoc)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	ex := extractor.New(dec, logger)
	pageInfos, err := ex.Pages()
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	doc := &document{
		data:   data,
		rawDoc: rawDoc,
		ex:     ex,
		fonts:  make(map[string]*registeredFont),
		logger: logger,
	}
	for _, info := range pageInfos {
		doc.pages = append(doc.pages, &page{doc: doc, info: info, usedFonts: make(map[string]bool)})
	}
	logger.Debug("document opened",
		observability.Int("pages", len(doc.pages)),
		observability.Int("objects", len(rawDoc.Objects)))
	return doc, nil
}

func (d *document) Pages() []Page {
	pages := make([]Page, len(d.pages))
	for i, p := range d.pages {
		pages[i] = p
	}
	return pages
}

func (d *document) RegisterFont(name string, data []byte) error {
	if name == FallbackFont {
		return fmt.Errorf("engine: font name %q is reserved", name)
	}
	f, err := fonts.LoadTrueType(name, data)
	if err != nil {
		return err
	}
	d.fonts[name] = &registeredFont{
		font:     f,
		resource: fmt.Sprintf("UF%d", len(d.fonts)),
		usedGIDs: make(map[int]rune),
	}
	d.logger.Debug("font registered",
		observability.String("name", name),
		observability.String("postscript", f.PostScriptName))
	return nil
}

func (d *document) HasFont(name string) bool {
	_, ok := d.fonts[name]
	return ok
}

// fallbackResource is the /Font resource name of the builtin font on pages
// that use it.
const fallbackResource = "UHelv"

func (d *document) Serialize(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w := writer.NewIncremental(d.data, d.rawDoc)

	fontRefs := make(map[string]raw.ObjectRef)
	var builtinRef *raw.ObjectRef
	for name, rf := range d.fonts {
		if len(rf.usedGIDs) == 0 {
			continue
		}
		fontRefs[name] = writer.EmbedTrueType(w, rf.font, rf.usedGIDs)
	}
	for _, p := range d.pages {
		if p.usedFonts[FallbackFont] {
			ref := w.AddObject(writer.BuiltinFont("Helvetica", "WinAnsiEncoding"))
			builtinRef = &ref
			break
		}
	}

	dirty := 0
	for _, p := range d.pages {
		if !p.dirty() {
			continue
		}
		if err := p.flush(w, fontRefs, builtinRef); err != nil {
			return nil, err
		}
		dirty++
	}
	d.logger.Debug("document serialized", observability.Int("dirty_pages", dirty))
	return w.Bytes()
}
