// Package fonts loads TrueType fonts for embedding and provides the glyph
// lookups, widths, and shaping needed to place replacement text.
package fonts

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	gofont "github.com/go-text/typesetting/font"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// Embedded is a parsed TrueType font ready for Type0 Identity-H embedding
// with a FontFile2 stream. The full font is embedded, no subsetting.
type Embedded struct {
	PostScriptName string
	Data           []byte

	Ascent       float64 // 1000 units per em
	Descent      float64
	CapHeight    float64
	ItalicAngle  float64
	BBox         [4]float64
	DefaultWidth float64

	font       *sfnt.Font
	buf        sfnt.Buffer
	unitsPerEm sfnt.Units
	ppem       fixed.Int26_6
	widths     map[int]int // glyph index to width
}

// LoadTrueType parses font data and extracts the metrics a font descriptor
// needs. The name is a fallback when the font has no PostScript name.
func LoadTrueType(name string, data []byte) (*Embedded, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("fonts: truetype data is empty")
	}
	font, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("fonts: parse truetype: %w", err)
	}
	unitsPerEm := font.UnitsPerEm()
	if unitsPerEm == 0 {
		return nil, fmt.Errorf("fonts: invalid unitsPerEm")
	}
	if _, err := gofont.ParseTTF(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("fonts: parse for shaping: %w", err)
	}

	f := &Embedded{
		Data:       data,
		font:       font,
		unitsPerEm: unitsPerEm,
		ppem:       fixed.Int26_6(unitsPerEm << 6),
	}

	baseName := strings.TrimSpace(name)
	if ps, _ := font.Name(&f.buf, sfnt.NameIDPostScript); len(ps) > 0 {
		baseName = ps
	}
	if baseName == "" {
		baseName = "CustomTT"
	}
	f.PostScriptName = baseName

	f.widths = f.collectWidths()
	f.DefaultWidth = float64(f.widths[0])
	if f.DefaultWidth == 0 {
		f.DefaultWidth = 1000
	}

	metrics, _ := font.Metrics(&f.buf, f.ppem, xfont.HintingNone)
	bounds, _ := font.Bounds(&f.buf, f.ppem, xfont.HintingNone)
	f.Ascent = f.scaleFixed(metrics.Ascent)
	f.Descent = f.scaleFixed(metrics.Descent)
	f.CapHeight = f.Ascent
	if post := font.PostTable(); post != nil {
		f.ItalicAngle = post.ItalicAngle
	}
	f.BBox = [4]float64{
		f.scaleFixed(bounds.Min.X),
		f.scaleFixed(bounds.Min.Y),
		f.scaleFixed(bounds.Max.X),
		f.scaleFixed(bounds.Max.Y),
	}
	return f, nil
}

func (f *Embedded) collectWidths() map[int]int {
	glyphs := f.font.NumGlyphs()
	widths := make(map[int]int, glyphs)
	for i := 0; i < glyphs; i++ {
		adv, err := f.font.GlyphAdvance(&f.buf, sfnt.GlyphIndex(i), f.ppem, xfont.HintingNone)
		if err != nil {
			continue
		}
		widths[i] = int(math.Round(f.scaleFixed(adv)))
	}
	return widths
}

func (f *Embedded) scaleFixed(val fixed.Int26_6) float64 {
	return float64(val) * 1000.0 / (64.0 * float64(f.unitsPerEm))
}

// Widths returns glyph widths in 1000-per-em units, keyed by glyph index.
func (f *Embedded) Widths() map[int]int { return f.widths }

// GlyphWidth returns one glyph's width, falling back to the default.
func (f *Embedded) GlyphWidth(gid int) float64 {
	if w, ok := f.widths[gid]; ok {
		return float64(w)
	}
	return f.DefaultWidth
}

// GlyphIndex looks up the glyph for a rune through the cmap table.
func (f *Embedded) GlyphIndex(r rune) (int, bool) {
	gid, err := f.font.GlyphIndex(&f.buf, r)
	if err != nil || gid == 0 {
		return 0, false
	}
	return int(gid), true
}
