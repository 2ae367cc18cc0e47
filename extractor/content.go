package extractor

import (
	"bytes"
	"io"

	"github.com/R0KG/price-updater/coords"
	"github.com/R0KG/price-updater/ir/raw"
	"github.com/R0KG/price-updater/observability"
	"github.com/R0KG/price-updater/scanner"
)

// TextSpan is one show-text operation with its resolved geometry. BBox and
// Origin are in page space (PDF user space, origin bottom-left).
type TextSpan struct {
	Text     string
	Font     string // resource name, e.g. "F1"
	FontSize float64
	Origin   coords.Point
	BBox     coords.Rect
	Color    [3]float64
}

// Glyph ascent and descent are approximated as fractions of the font size
// for bounding boxes, the same trade-off a font-metrics-free renderer makes.
const (
	ascentRatio  = 0.8
	descentRatio = 0.2
)

type graphicsState struct {
	ctm  coords.Matrix
	fill [3]float64
}

type textState struct {
	tm, tlm     coords.Matrix
	fontName    string
	font        *FontInfo
	size        float64
	leading     float64
	charSpacing float64
	wordSpacing float64
	horizScale  float64
}

// TextSpans interprets the page's content streams and returns every text
// run with its geometry.
func (e *Extractor) TextSpans(page Page) ([]TextSpan, error) {
	content, err := e.Content(page)
	if err != nil {
		return nil, err
	}
	if len(content) == 0 {
		return nil, nil
	}
	interp := &interpreter{
		fonts:  e.PageFonts(page),
		logger: e.logger,
		gs:     graphicsState{ctm: coords.Identity()},
	}
	if err := interp.run(content); err != nil {
		return nil, err
	}
	return interp.spans, nil
}

type interpreter struct {
	fonts  map[string]*FontInfo
	logger observability.Logger
	gs     graphicsState
	stack  []graphicsState
	ts     textState
	spans  []TextSpan
}

// run executes the operator stream. Operands accumulate until an operator
// keyword consumes them; unknown operators clear the stack and move on.
func (in *interpreter) run(content []byte) error {
	s := scanner.New(content)
	tr := &raw.TokenReader{S: s}
	var operands []raw.Object
	for {
		tok, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch tok.Type {
		case scanner.TokenKeyword:
			op, _ := tok.Value.(string)
			if op == "BI" {
				in.skipInlineImage(s, content)
				operands = operands[:0]
				continue
			}
			in.apply(op, operands)
			operands = operands[:0]
		default:
			tr.Unread(tok)
			obj, err := raw.ParseObject(tr)
			if err != nil {
				return err
			}
			operands = append(operands, obj)
		}
	}
}

// skipInlineImage advances past BI ... ID <binary> EI, whose payload would
// otherwise confuse the tokenizer.
func (in *interpreter) skipInlineImage(s *scanner.Scanner, content []byte) {
	pos := int(s.Position())
	rest := content[min(pos, len(content)):]
	for _, marker := range [][]byte{[]byte("\nEI"), []byte("\rEI"), []byte(" EI")} {
		if idx := bytes.Index(rest, marker); idx >= 0 {
			s.SeekTo(int64(pos + idx + len(marker)))
			return
		}
	}
	s.SeekTo(int64(len(content)))
}

func (in *interpreter) apply(op string, operands []raw.Object) {
	switch op {
	case "q":
		in.stack = append(in.stack, in.gs)
	case "Q":
		if n := len(in.stack); n > 0 {
			in.gs = in.stack[n-1]
			in.stack = in.stack[:n-1]
		}
	case "cm":
		if m, ok := matrixOperands(operands); ok {
			in.gs.ctm = m.Multiply(in.gs.ctm)
		}
	case "BT":
		in.ts.tm = coords.Identity()
		in.ts.tlm = coords.Identity()
	case "ET":
		// nothing to tear down
	case "Tf":
		if len(operands) == 2 {
			if name, ok := operands[0].(raw.Name); ok {
				in.ts.fontName = name.Value()
				in.ts.font = in.fonts[name.Value()]
				if in.ts.font == nil {
					in.logger.Warn("content references unknown font",
						observability.String("font", name.Value()))
				}
			}
			in.ts.size = floatOperand(operands[1])
		}
	case "Tm":
		if m, ok := matrixOperands(operands); ok {
			in.ts.tm = m
			in.ts.tlm = m
		}
	case "Td":
		if len(operands) == 2 {
			in.nextLine(floatOperand(operands[0]), floatOperand(operands[1]))
		}
	case "TD":
		if len(operands) == 2 {
			in.ts.leading = -floatOperand(operands[1])
			in.nextLine(floatOperand(operands[0]), floatOperand(operands[1]))
		}
	case "T*":
		in.nextLine(0, -in.ts.leading)
	case "TL":
		if len(operands) == 1 {
			in.ts.leading = floatOperand(operands[0])
		}
	case "Tc":
		if len(operands) == 1 {
			in.ts.charSpacing = floatOperand(operands[0])
		}
	case "Tw":
		if len(operands) == 1 {
			in.ts.wordSpacing = floatOperand(operands[0])
		}
	case "Tz":
		if len(operands) == 1 {
			in.ts.horizScale = floatOperand(operands[0]) / 100
		}
	case "Tj":
		if len(operands) == 1 {
			in.showText(operands[0])
		}
	case "'":
		if len(operands) == 1 {
			in.nextLine(0, -in.ts.leading)
			in.showText(operands[0])
		}
	case "\"":
		if len(operands) == 3 {
			in.ts.wordSpacing = floatOperand(operands[0])
			in.ts.charSpacing = floatOperand(operands[1])
			in.nextLine(0, -in.ts.leading)
			in.showText(operands[2])
		}
	case "TJ":
		if len(operands) == 1 {
			in.showTextArray(operands[0])
		}
	case "rg":
		if len(operands) == 3 {
			in.gs.fill = [3]float64{floatOperand(operands[0]), floatOperand(operands[1]), floatOperand(operands[2])}
		}
	case "g":
		if len(operands) == 1 {
			v := floatOperand(operands[0])
			in.gs.fill = [3]float64{v, v, v}
		}
	case "k":
		if len(operands) == 4 {
			c, m, y, kk := floatOperand(operands[0]), floatOperand(operands[1]), floatOperand(operands[2]), floatOperand(operands[3])
			in.gs.fill = [3]float64{(1 - c) * (1 - kk), (1 - m) * (1 - kk), (1 - y) * (1 - kk)}
		}
	case "sc", "scn":
		if len(operands) == 3 {
			in.gs.fill = [3]float64{floatOperand(operands[0]), floatOperand(operands[1]), floatOperand(operands[2])}
		} else if len(operands) == 1 {
			v := floatOperand(operands[0])
			in.gs.fill = [3]float64{v, v, v}
		}
	}
}

func (in *interpreter) nextLine(tx, ty float64) {
	in.ts.tlm = coords.Translate(tx, ty).Multiply(in.ts.tlm)
	in.ts.tm = in.ts.tlm
}

func (in *interpreter) showText(operand raw.Object) {
	str, ok := operand.(raw.String)
	if !ok {
		return
	}
	in.emit(str.Value())
}

func (in *interpreter) showTextArray(operand raw.Object) {
	arr, ok := operand.(raw.Array)
	if !ok {
		return
	}
	var text []byte
	var adjustments []float64 // cumulative TJ offsets applied before each segment
	pending := 0.0
	for i := 0; i < arr.Len(); i++ {
		item, _ := arr.Get(i)
		switch v := item.(type) {
		case raw.String:
			if len(v.Value()) == 0 {
				continue
			}
			text = append(text, v.Value()...)
			adjustments = append(adjustments, pending)
			for i := 1; i < len(v.Value()); i++ {
				adjustments = append(adjustments, 0)
			}
			pending = 0
		case raw.Number:
			pending += v.Float()
		}
	}
	in.emitAdjusted(text, adjustments)
}

func (in *interpreter) emit(data []byte) { in.emitAdjusted(data, nil) }

// emitAdjusted renders one show operation into a span. The adjustment slice
// carries the TJ offset (thousandths of text space, subtracted from the
// advance) that precedes each byte position; nil means none.
func (in *interpreter) emitAdjusted(data []byte, adjustments []float64) {
	if len(data) == 0 {
		return
	}
	font := in.ts.font
	if font == nil {
		font = &FontInfo{}
	}
	text, codes := font.Decode(data)
	if text == "" {
		return
	}

	trm := in.ts.tm.Multiply(in.gs.ctm)
	origin := trm.Transform(coords.Point{X: 0, Y: 0})
	effSize := in.ts.size * trm.VerticalScale()
	hs := in.ts.horizScale
	if hs == 0 {
		hs = 1
	}

	// Advance in unscaled text space, then map the end point through Trm.
	tx := 0.0
	step := 1
	if font.TwoByte {
		step = 2
	}
	for i, code := range codes {
		if adjustments != nil {
			bytePos := i * step
			if bytePos < len(adjustments) {
				tx -= adjustments[bytePos] / 1000 * in.ts.size * hs
			}
		}
		w := font.WidthOf(code) / 1000 * in.ts.size
		w += in.ts.charSpacing
		if code == 32 && !font.TwoByte {
			w += in.ts.wordSpacing
		}
		tx += w * hs
	}
	end := trm.Transform(coords.Point{X: tx, Y: 0})

	span := TextSpan{
		Text:     text,
		Font:     in.ts.fontName,
		FontSize: effSize,
		Origin:   origin,
		Color:    in.gs.fill,
	}
	span.BBox = coords.RectFromPoints(
		coords.Point{X: origin.X, Y: origin.Y - descentRatio*effSize},
		coords.Point{X: end.X, Y: origin.Y + ascentRatio*effSize},
	)
	in.spans = append(in.spans, span)

	in.ts.tm = coords.Translate(tx, 0).Multiply(in.ts.tm)
}

func matrixOperands(operands []raw.Object) (coords.Matrix, bool) {
	if len(operands) != 6 {
		return coords.Matrix{}, false
	}
	var m coords.Matrix
	for i, o := range operands {
		n, ok := o.(raw.Number)
		if !ok {
			return coords.Matrix{}, false
		}
		m[i] = n.Float()
	}
	return m, true
}

func floatOperand(o raw.Object) float64 {
	if n, ok := o.(raw.Number); ok {
		return n.Float()
	}
	return 0
}

