package extractor

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/R0KG/price-updater/ir/raw"
)

// FontInfo carries the parts of a font dictionary that text interpretation
// needs: code widths for advance calculation and the ToUnicode mapping for
// recovering text.
type FontInfo struct {
	ResourceName string
	Subtype      string
	BaseFont     string
	TwoByte      bool // Type0 fonts consume two bytes per code

	firstChar    int
	widths       []float64
	cidWidths    map[int]float64
	defaultWidth float64

	toUnicode map[int]string
}

// WidthOf returns the glyph width for a character code in text-space
// units (1000 per em).
func (f *FontInfo) WidthOf(code int) float64 {
	if f.widths != nil {
		idx := code - f.firstChar
		if idx >= 0 && idx < len(f.widths) {
			return f.widths[idx]
		}
	}
	if f.cidWidths != nil {
		if w, ok := f.cidWidths[code]; ok {
			return w
		}
	}
	if f.defaultWidth > 0 {
		return f.defaultWidth
	}
	return 500
}

// Decode maps the raw bytes of a show-text operand to a string, together
// with the character codes consumed. Codes are one byte wide for simple
// fonts and two for Type0.
func (f *FontInfo) Decode(data []byte) (string, []int) {
	var sb strings.Builder
	var codes []int
	step := 1
	if f.TwoByte {
		step = 2
	}
	for i := 0; i+step <= len(data); i += step {
		code := int(data[i])
		if step == 2 {
			code = int(data[i])<<8 | int(data[i+1])
		}
		codes = append(codes, code)
		if s, ok := f.toUnicode[code]; ok {
			sb.WriteString(s)
			continue
		}
		if !f.TwoByte {
			// Latin-1 covers the common unmapped case for simple fonts.
			sb.WriteRune(rune(code))
			continue
		}
		sb.WriteRune('�')
	}
	return sb.String(), codes
}

// PageFonts resolves the fonts referenced by a page's resource dictionary,
// keyed by resource name.
func (e *Extractor) PageFonts(page Page) map[string]*FontInfo {
	fonts := make(map[string]*FontInfo)
	if page.Resources == nil {
		return fonts
	}
	fontDictObj, ok := page.Resources.Get("Font")
	if !ok {
		return fonts
	}
	fontDict := e.resolveDict(fontDictObj)
	if fontDict == nil {
		return fonts
	}
	for _, name := range fontDict.Keys() {
		entry, _ := fontDict.Get(name)
		d := e.resolveDict(entry)
		if d == nil {
			continue
		}
		fonts[name] = e.fontInfo(name, d)
	}
	return fonts
}

func (e *Extractor) fontInfo(resourceName string, dict raw.Dictionary) *FontInfo {
	info := &FontInfo{
		ResourceName: resourceName,
		Subtype:      dictName(dict, "Subtype"),
		BaseFont:     dictName(dict, "BaseFont"),
		toUnicode:    make(map[int]string),
	}
	if info.Subtype == "Type0" {
		info.TwoByte = true
		if desc := e.descendantFont(dict); desc != nil {
			info.defaultWidth = dictFloat(desc, "DW", 1000)
			info.cidWidths = e.cidWidths(desc)
		}
	} else {
		info.firstChar = dictInt(dict, "FirstChar", 0)
		if arr := e.resolveArray(objOrNil(dict, "Widths")); arr != nil {
			info.widths = make([]float64, arr.Len())
			for i := 0; i < arr.Len(); i++ {
				item, _ := arr.Get(i)
				if n, ok := e.Resolve(item).(raw.Number); ok {
					info.widths[i] = n.Float()
				}
			}
		}
	}
	if tu, ok := dict.Get("ToUnicode"); ok {
		if ref, ok := tu.(raw.Reference); ok {
			if stream := e.streamByRef(ref.Ref()); stream != nil {
				parseToUnicodeCMap(stream.Data(), info.toUnicode)
			}
		}
	}
	return info
}

func (e *Extractor) descendantFont(dict raw.Dictionary) raw.Dictionary {
	arr := e.resolveArray(objOrNil(dict, "DescendantFonts"))
	if arr == nil || arr.Len() == 0 {
		return nil
	}
	item, _ := arr.Get(0)
	return e.resolveDict(item)
}

// cidWidths expands the /W array. Entries come in two shapes:
// "c [w1 w2 ...]" assigns consecutive widths starting at c, and
// "cFirst cLast w" assigns one width to a range.
func (e *Extractor) cidWidths(desc raw.Dictionary) map[int]float64 {
	arr := e.resolveArray(objOrNil(desc, "W"))
	if arr == nil {
		return nil
	}
	widths := make(map[int]float64)
	i := 0
	for i < arr.Len() {
		firstObj, _ := arr.Get(i)
		first, ok := e.Resolve(firstObj).(raw.Number)
		if !ok {
			break
		}
		i++
		if i >= arr.Len() {
			break
		}
		nextObj, _ := arr.Get(i)
		switch next := e.Resolve(nextObj).(type) {
		case raw.Array:
			for j := 0; j < next.Len(); j++ {
				item, _ := next.Get(j)
				if w, ok := e.Resolve(item).(raw.Number); ok {
					widths[int(first.Int())+j] = w.Float()
				}
			}
			i++
		case raw.Number:
			i++
			if i >= arr.Len() {
				return widths
			}
			wObj, _ := arr.Get(i)
			w, ok := e.Resolve(wObj).(raw.Number)
			if !ok {
				return widths
			}
			for c := int(first.Int()); c <= int(next.Int()); c++ {
				widths[c] = w.Float()
			}
			i++
		default:
			return widths
		}
	}
	return widths
}

func objOrNil(dict raw.Dictionary, key string) raw.Object {
	obj, ok := dict.Get(key)
	if !ok {
		return nil
	}
	return obj
}

var (
	bfCharSection  = regexp.MustCompile(`(?s)beginbfchar(.*?)endbfchar`)
	bfRangeSection = regexp.MustCompile(`(?s)beginbfrange(.*?)endbfrange`)
	hexToken       = regexp.MustCompile(`<([0-9A-Fa-f]+)>`)
	bfRangeLine    = regexp.MustCompile(`<([0-9A-Fa-f]+)>\s*<([0-9A-Fa-f]+)>\s*(<[0-9A-Fa-f]+>|\[[^\]]*\])`)
)

// parseToUnicodeCMap extracts bfchar and bfrange mappings from a ToUnicode
// CMap stream into the code-to-text map.
func parseToUnicodeCMap(data []byte, out map[int]string) {
	text := string(data)
	for _, section := range bfCharSection.FindAllStringSubmatch(text, -1) {
		tokens := hexToken.FindAllStringSubmatch(section[1], -1)
		for i := 0; i+1 < len(tokens); i += 2 {
			code, err := strconv.ParseInt(tokens[i][1], 16, 32)
			if err != nil {
				continue
			}
			out[int(code)] = utf16BEHexToString(tokens[i+1][1])
		}
	}
	for _, section := range bfRangeSection.FindAllStringSubmatch(text, -1) {
		for _, line := range bfRangeLine.FindAllStringSubmatch(section[1], -1) {
			lo, err1 := strconv.ParseInt(line[1], 16, 32)
			hi, err2 := strconv.ParseInt(line[2], 16, 32)
			if err1 != nil || err2 != nil || hi < lo {
				continue
			}
			dst := line[3]
			if strings.HasPrefix(dst, "[") {
				targets := hexToken.FindAllStringSubmatch(dst, -1)
				for i, t := range targets {
					if int64(i) > hi-lo {
						break
					}
					out[int(lo)+i] = utf16BEHexToString(t[1])
				}
				continue
			}
			base, err := strconv.ParseInt(strings.Trim(dst, "<>"), 16, 64)
			if err != nil {
				continue
			}
			for c := lo; c <= hi; c++ {
				out[int(c)] = string(rune(base + (c - lo)))
			}
		}
	}
}

func utf16BEHexToString(hexStr string) string {
	if len(hexStr)%4 != 0 {
		if len(hexStr) == 2 {
			if v, err := strconv.ParseInt(hexStr, 16, 32); err == nil {
				return string(rune(v))
			}
		}
		return ""
	}
	units := make([]uint16, 0, len(hexStr)/4)
	for i := 0; i+4 <= len(hexStr); i += 4 {
		v, err := strconv.ParseInt(hexStr[i:i+4], 16, 32)
		if err != nil {
			return ""
		}
		units = append(units, uint16(v))
	}
	return string(utf16.Decode(units))
}
