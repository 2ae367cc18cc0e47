package fonts

// The fallback path writes text with the builtin Helvetica base font and
// WinAnsiEncoding. This file carries the encoding table and the standard
// Helvetica advance widths needed to estimate line lengths without an
// embedded font program.

// winAnsiHigh maps the 0x80-0xFF code range to runes where WinAnsiEncoding
// departs from Latin-1. Unlisted codes in that range follow Latin-1.
var winAnsiHigh = map[byte]rune{
	0x80: '€',
	0x82: '‚',
	0x83: 'ƒ',
	0x84: '„',
	0x85: '…',
	0x86: '†',
	0x87: '‡',
	0x88: 'ˆ',
	0x89: '‰',
	0x8A: 'Š',
	0x8B: '‹',
	0x8C: 'Œ',
	0x8E: 'Ž',
	0x91: '‘',
	0x92: '’',
	0x93: '“',
	0x94: '”',
	0x95: '•',
	0x96: '–',
	0x97: '—',
	0x98: '˜',
	0x99: '™',
	0x9A: 'š',
	0x9B: '›',
	0x9C: 'œ',
	0x9E: 'ž',
	0x9F: 'Ÿ',
}

var winAnsiReverse = buildWinAnsiReverse()

func buildWinAnsiReverse() map[rune]byte {
	m := make(map[rune]byte, len(winAnsiHigh))
	for code, r := range winAnsiHigh {
		m[r] = code
	}
	return m
}

// EncodeWinAnsi maps text to WinAnsi bytes. Runes outside the encoding
// become '?' and are reported so the caller can log the degradation.
func EncodeWinAnsi(text string) ([]byte, []rune) {
	out := make([]byte, 0, len(text))
	var unsupported []rune
	for _, r := range text {
		switch {
		case r < 0x80:
			out = append(out, byte(r))
		case winAnsiReverse[r] != 0:
			out = append(out, winAnsiReverse[r])
		case r >= 0xA0 && r <= 0xFF:
			out = append(out, byte(r))
		default:
			out = append(out, '?')
			unsupported = append(unsupported, r)
		}
	}
	return out, unsupported
}

// helveticaWidths holds the standard Helvetica AFM advance widths for the
// printable ASCII range, indexed by code minus 32.
var helveticaWidths = [95]int{
	278, 278, 355, 556, 556, 889, 667, 191, 333, 333, 389, 584, 278, 333, 278, 278,
	556, 556, 556, 556, 556, 556, 556, 556, 556, 556, 278, 278, 584, 584, 584, 556,
	1015, 667, 667, 722, 722, 667, 611, 778, 722, 278, 500, 667, 556, 833, 722, 778,
	667, 778, 722, 667, 611, 722, 667, 944, 667, 667, 611, 278, 278, 278, 469, 556,
	333, 556, 556, 500, 556, 556, 278, 556, 556, 222, 222, 500, 222, 833, 556, 556,
	556, 556, 333, 500, 278, 556, 500, 722, 500, 500, 500, 334, 260, 334, 584,
}

const helveticaDefaultWidth = 556

// MeasureWinAnsi estimates the advance width in points of text rendered in
// builtin Helvetica at the given size.
func MeasureWinAnsi(text string, size float64) float64 {
	encoded, _ := EncodeWinAnsi(text)
	var units int
	for _, code := range encoded {
		if code >= 32 && code <= 126 {
			units += helveticaWidths[code-32]
			continue
		}
		units += helveticaDefaultWidth
	}
	return float64(units) / 1000 * size
}
