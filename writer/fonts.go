package writer

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/R0KG/price-updater/fonts"
	"github.com/R0KG/price-updater/ir/raw"
)

// EmbedTrueType appends the object chain for a Type0 Identity-H font with
// an embedded FontFile2 program: font file, descriptor, CID font, ToUnicode
// CMap, and the composite font itself. It returns the composite font
// reference for use in a page's /Font resources.
//
// toUnicode maps glyph index to the rune it renders, collected from the
// text actually written with this font.
func EmbedTrueType(w *Incremental, f *fonts.Embedded, toUnicode map[int]rune) raw.ObjectRef {
	fileDict := raw.Dict()
	fileDict.Set("Length", raw.NumberInt(int64(len(f.Data))))
	fileDict.Set("Length1", raw.NumberInt(int64(len(f.Data))))
	fileRef := w.AddObject(raw.NewStream(fileDict, f.Data))

	descriptor := raw.Dict()
	descriptor.Set("Type", raw.NameLiteral("FontDescriptor"))
	descriptor.Set("FontName", raw.NameLiteral(f.PostScriptName))
	descriptor.Set("Flags", raw.NumberInt(4))
	descriptor.Set("ItalicAngle", raw.NumberFloat(f.ItalicAngle))
	descriptor.Set("Ascent", raw.NumberFloat(f.Ascent))
	descriptor.Set("Descent", raw.NumberFloat(f.Descent))
	descriptor.Set("CapHeight", raw.NumberFloat(f.CapHeight))
	descriptor.Set("StemV", raw.NumberInt(80))
	descriptor.Set("FontBBox", raw.NewArray(
		raw.NumberFloat(f.BBox[0]),
		raw.NumberFloat(f.BBox[1]),
		raw.NumberFloat(f.BBox[2]),
		raw.NumberFloat(f.BBox[3]),
	))
	descriptor.Set("FontFile2", raw.Ref(fileRef.Num, fileRef.Gen))
	descriptorRef := w.AddObject(descriptor)

	cidSystemInfo := raw.Dict()
	cidSystemInfo.Set("Registry", raw.Str([]byte("Adobe")))
	cidSystemInfo.Set("Ordering", raw.Str([]byte("Identity")))
	cidSystemInfo.Set("Supplement", raw.NumberInt(0))

	cidFont := raw.Dict()
	cidFont.Set("Type", raw.NameLiteral("Font"))
	cidFont.Set("Subtype", raw.NameLiteral("CIDFontType2"))
	cidFont.Set("BaseFont", raw.NameLiteral(f.PostScriptName))
	cidFont.Set("CIDSystemInfo", cidSystemInfo)
	cidFont.Set("FontDescriptor", raw.Ref(descriptorRef.Num, descriptorRef.Gen))
	cidFont.Set("DW", raw.NumberFloat(f.DefaultWidth))
	cidFont.Set("W", encodeCIDWidths(f.Widths()))
	cidFont.Set("CIDToGIDMap", raw.NameLiteral("Identity"))
	cidFontRef := w.AddObject(cidFont)

	composite := raw.Dict()
	composite.Set("Type", raw.NameLiteral("Font"))
	composite.Set("Subtype", raw.NameLiteral("Type0"))
	composite.Set("BaseFont", raw.NameLiteral(f.PostScriptName))
	composite.Set("Encoding", raw.NameLiteral("Identity-H"))
	composite.Set("DescendantFonts", raw.NewArray(raw.Ref(cidFontRef.Num, cidFontRef.Gen)))
	if cmap := buildToUnicodeCMap(f.PostScriptName, toUnicode); cmap != nil {
		cmapDict := raw.Dict()
		cmapDict.Set("Length", raw.NumberInt(int64(len(cmap))))
		cmapRef := w.AddObject(raw.NewStream(cmapDict, cmap))
		composite.Set("ToUnicode", raw.Ref(cmapRef.Num, cmapRef.Gen))
	}
	return w.AddObject(composite)
}

// BuiltinFont returns a dictionary for one of the standard 14 base fonts.
func BuiltinFont(baseFont, encoding string) *raw.DictObj {
	font := raw.Dict()
	font.Set("Type", raw.NameLiteral("Font"))
	font.Set("Subtype", raw.NameLiteral("Type1"))
	font.Set("BaseFont", raw.NameLiteral(baseFont))
	if encoding != "" {
		font.Set("Encoding", raw.NameLiteral(encoding))
	}
	return font
}

// encodeCIDWidths compresses the glyph width map into the /W array form,
// merging runs of consecutive glyphs that share a width into range triplets.
func encodeCIDWidths(widths map[int]int) *raw.ArrayObj {
	arr := raw.NewArray()
	if len(widths) == 0 {
		return arr
	}
	codes := make([]int, 0, len(widths))
	for c := range widths {
		codes = append(codes, c)
	}
	sort.Ints(codes)
	start := codes[0]
	prev := codes[0]
	current := widths[codes[0]]
	flush := func() {
		arr.Append(raw.NumberInt(int64(start)))
		arr.Append(raw.NumberInt(int64(prev)))
		arr.Append(raw.NumberInt(int64(current)))
	}
	for _, code := range codes[1:] {
		w := widths[code]
		if w == current && code == prev+1 {
			prev = code
			continue
		}
		flush()
		start = code
		prev = code
		current = w
	}
	flush()
	return arr
}

// buildToUnicodeCMap renders the glyph-to-text CMap that makes inserted
// text extractable again.
func buildToUnicodeCMap(baseName string, toUnicode map[int]rune) []byte {
	if len(toUnicode) == 0 {
		return nil
	}
	keys := make([]int, 0, len(toUnicode))
	for gid := range toUnicode {
		keys = append(keys, gid)
	}
	sort.Ints(keys)

	name := strings.ReplaceAll(baseName, " ", "")
	if name == "" {
		name = "ToUnicode"
	}
	name += "-UTF16"

	var buf bytes.Buffer
	buf.WriteString("/CIDInit /ProcSet findresource begin\n")
	buf.WriteString("12 dict begin\n")
	buf.WriteString("begincmap\n")
	buf.WriteString("/CIDSystemInfo << /Registry (Adobe) /Ordering (Identity) /Supplement 0 >> def\n")
	fmt.Fprintf(&buf, "/CMapName /%s def\n", name)
	buf.WriteString("/CMapType 2 def\n")
	buf.WriteString("1 begincodespacerange\n")
	fmt.Fprintf(&buf, "<%04X> <%04X>\n", keys[0], keys[len(keys)-1])
	buf.WriteString("endcodespacerange\n")
	for i := 0; i < len(keys); {
		chunk := len(keys) - i
		if chunk > 100 {
			chunk = 100
		}
		fmt.Fprintf(&buf, "%d beginbfchar\n", chunk)
		for j := 0; j < chunk; j++ {
			gid := keys[i+j]
			fmt.Fprintf(&buf, "<%04X> <%s>\n", gid, utf16Hex(toUnicode[gid]))
		}
		buf.WriteString("endbfchar\n")
		i += chunk
	}
	buf.WriteString("endcmap\n")
	buf.WriteString("CMapName currentdict /CMap defineresource pop\n")
	buf.WriteString("end\nend\n")
	return buf.Bytes()
}

func utf16Hex(r rune) string {
	var b strings.Builder
	for _, u := range utf16.Encode([]rune{r}) {
		fmt.Fprintf(&b, "%04X", u)
	}
	return b.String()
}
