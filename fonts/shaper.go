package fonts

import (
	"bytes"
	"unicode"

	"github.com/go-text/typesetting/di"
	gofont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
)

// ShapedGlyph is one positioned glyph from the shaper.
type ShapedGlyph struct {
	GID      int
	Cluster  int
	XAdvance float64 // points at the requested size
}

// Shape runs the text through HarfBuzz at the given point size.
func (f *Embedded) Shape(text string, size float64) ([]ShapedGlyph, error) {
	face, err := gofont.ParseTTF(bytes.NewReader(f.Data))
	if err != nil {
		return nil, err
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}
	shaper := &shaping.HarfbuzzShaper{}
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      face,
		Size:      fixed.Int26_6(size * 64),
		Script:    detectScript(runes),
		Language:  language.DefaultLanguage(),
	}
	output := shaper.Shape(input)
	glyphs := make([]ShapedGlyph, 0, len(output.Glyphs))
	for _, g := range output.Glyphs {
		glyphs = append(glyphs, ShapedGlyph{
			GID:      int(g.GlyphID),
			Cluster:  int(g.ClusterIndex),
			XAdvance: float64(g.XAdvance) / 64.0,
		})
	}
	return glyphs, nil
}

// Measure returns the advance width of the text in points.
func (f *Embedded) Measure(text string, size float64) (float64, error) {
	glyphs, err := f.Shape(text, size)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, g := range glyphs {
		total += g.XAdvance
	}
	return total, nil
}

// Covers reports whether the font has a real glyph for every rune, and
// which runes shape to the notdef glyph.
func (f *Embedded) Covers(text string) (bool, []rune) {
	var missing []rune
	for _, r := range text {
		if r == ' ' || r == ' ' {
			continue
		}
		if _, ok := f.GlyphIndex(r); !ok {
			missing = append(missing, r)
		}
	}
	return len(missing) == 0, missing
}

func detectScript(runes []rune) language.Script {
	counts := make(map[language.Script]int)
	maxCount := 0
	best := language.Latin
	for _, r := range runes {
		script := scriptFromRune(r)
		if script == language.Unknown {
			continue
		}
		counts[script]++
		if counts[script] > maxCount {
			maxCount = counts[script]
			best = script
		}
	}
	return best
}

// Catalog documents in this pipeline are Latin, Cyrillic, or Greek; anything
// else shapes as Latin.
func scriptFromRune(r rune) language.Script {
	switch {
	case unicode.Is(unicode.Cyrillic, r):
		return language.Cyrillic
	case unicode.Is(unicode.Greek, r):
		return language.Greek
	case unicode.Is(unicode.Latin, r):
		return language.Latin
	}
	return language.Unknown
}
