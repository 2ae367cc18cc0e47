package engine

import (
	"bytes"
	"fmt"

	"github.com/R0KG/price-updater/coords"
	"github.com/R0KG/price-updater/extractor"
	"github.com/R0KG/price-updater/fonts"
	"github.com/R0KG/price-updater/ir/raw"
	"github.com/R0KG/price-updater/observability"
	"github.com/R0KG/price-updater/writer"
)

type page struct {
	doc       *document
	info      extractor.Page
	ops       bytes.Buffer
	usedFonts map[string]bool // font handle (or FallbackFont) to in-use
}

func (p *page) Index() int { return p.info.Index }

func (p *page) TextSpans() ([]extractor.TextSpan, error) {
	return p.doc.ex.TextSpans(p.info)
}

func (p *page) dirty() bool { return p.ops.Len() > 0 }

func (p *page) FillRect(r coords.Rect, color [3]float64) {
	fmt.Fprintf(&p.ops, "q %s %s %s rg %s %s %s %s re f Q\n",
		num(color[0]), num(color[1]), num(color[2]),
		num(r.X0), num(r.Y0), num(r.Width()), num(r.Height()))
}

func (p *page) InsertText(origin coords.Point, text string, size float64, font string, color [3]float64) {
	if text == "" {
		return
	}
	rf := p.doc.fonts[font]
	if rf == nil {
		if font != FallbackFont {
			p.doc.logger.Warn("font not registered, using builtin fallback",
				observability.String("font", font))
		}
		p.insertBuiltin(origin, text, size, color)
		return
	}
	p.usedFonts[font] = true
	fmt.Fprintf(&p.ops, "BT /%s %s Tf %s %s %s rg %s %s Td <", rf.resource, num(size),
		num(color[0]), num(color[1]), num(color[2]), num(origin.X), num(origin.Y))
	for _, r := range text {
		gid, ok := rf.font.GlyphIndex(r)
		if !ok {
			if q, qok := rf.font.GlyphIndex('?'); qok {
				gid = q
			}
			p.doc.logger.Warn("glyph missing in registered font",
				observability.String("rune", string(r)))
		}
		fmt.Fprintf(&p.ops, "%04X", gid)
		rf.usedGIDs[gid] = r
	}
	p.ops.WriteString("> Tj ET\n")
}

func (p *page) insertBuiltin(origin coords.Point, text string, size float64, color [3]float64) {
	p.usedFonts[FallbackFont] = true
	encoded, unsupported := fonts.EncodeWinAnsi(text)
	if len(unsupported) > 0 {
		p.doc.logger.Warn("builtin font cannot encode all runes",
			observability.Int("page", p.info.Index),
			observability.String("runes", string(unsupported)))
	}
	fmt.Fprintf(&p.ops, "BT /%s %s Tf %s %s %s rg %s %s Td %s Tj ET\n",
		fallbackResource, num(size),
		num(color[0]), num(color[1]), num(color[2]),
		num(origin.X), num(origin.Y),
		writer.EscapeLiteralString(encoded))
}

// flush rewrites the page dictionary: the queued operations become an
// extra content stream and the fonts used by them join a private copy of
// the resource dictionary.
func (p *page) flush(w *writer.Incremental, fontRefs map[string]raw.ObjectRef, builtinRef *raw.ObjectRef) error {
	contentDict := raw.Dict()
	contentDict.Set("Length", raw.NumberInt(int64(p.ops.Len())))
	contentRef := w.AddObject(raw.NewStream(contentDict, p.ops.Bytes()))

	pageDict := raw.Dict()
	for _, key := range p.info.Dict.Keys() {
		val, _ := p.info.Dict.Get(key)
		pageDict.Set(key, val)
	}

	contents := raw.NewArray()
	if orig, ok := p.info.Dict.Get("Contents"); ok {
		switch c := orig.(type) {
		case raw.Reference:
			if arr, isArr := p.doc.ex.Resolve(c).(*raw.ArrayObj); isArr {
				for _, item := range arr.Items {
					contents.Append(item)
				}
			} else {
				contents.Append(c)
			}
		case *raw.ArrayObj:
			for _, item := range c.Items {
				contents.Append(item)
			}
		}
	}
	contents.Append(raw.Ref(contentRef.Num, contentRef.Gen))
	pageDict.Set("Contents", contents)

	resources := raw.Dict()
	if p.info.Resources != nil {
		for _, key := range p.info.Resources.Keys() {
			val, _ := p.info.Resources.Get(key)
			resources.Set(key, val)
		}
	}
	fontDict := raw.Dict()
	if existing, ok := resources.Get("Font"); ok {
		if d := p.doc.ex.Resolve(existing); d != nil {
			if dd, isDict := d.(raw.Dictionary); isDict {
				for _, key := range dd.Keys() {
					val, _ := dd.Get(key)
					fontDict.Set(key, val)
				}
			}
		}
	}
	for handle := range p.usedFonts {
		if handle == FallbackFont {
			if builtinRef == nil {
				return fmt.Errorf("engine: page %d uses builtin font but none was emitted", p.info.Index)
			}
			fontDict.Set(fallbackResource, raw.Ref(builtinRef.Num, builtinRef.Gen))
			continue
		}
		ref, ok := fontRefs[handle]
		if !ok {
			return fmt.Errorf("engine: page %d references unembedded font %q", p.info.Index, handle)
		}
		rf := p.doc.fonts[handle]
		fontDict.Set(rf.resource, raw.Ref(ref.Num, ref.Gen))
	}
	resources.Set("Font", fontDict)
	pageDict.Set("Resources", resources)

	if p.info.Ref.Num == 0 {
		return fmt.Errorf("engine: page %d has no indirect reference", p.info.Index)
	}
	w.ReplaceObject(p.info.Ref, pageDict)
	return nil
}

// num renders coordinates compactly, trimming trailing zeros the way
// content streams conventionally do.
func num(v float64) string {
	s := fmt.Sprintf("%.3f", v)
	for len(s) > 0 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}
