package writer

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/R0KG/price-updater/ir/raw"
)

func TestSerializeEscaping(t *testing.T) {
	cases := []struct {
		obj  raw.Object
		want string
	}{
		{raw.NameLiteral("Type"), "/Type"},
		{raw.NameLiteral("Has Space"), "/Has#20Space"},
		{raw.NumberInt(42), "42"},
		{raw.Bool(true), "true"},
		{raw.NullObj{}, "null"},
		{raw.Str([]byte(`a(b)\c`)), `(a\(b\)\\c)`},
		{raw.Str([]byte("line\nbreak")), `(line\nbreak)`},
		{raw.HexStr([]byte{0xDE, 0xAD}), "<DEAD>"},
		{raw.Ref(7, 0), "7 0 R"},
		{raw.NewArray(raw.NumberInt(1), raw.NameLiteral("X")), "[1 /X]"},
	}
	for _, c := range cases {
		if got := string(SerializeObject(c.obj)); got != c.want {
			t.Errorf("serialize(%+v) = %q, want %q", c.obj, got, c.want)
		}
	}
}

func TestSerializeBinaryStringIsSevenBit(t *testing.T) {
	out := SerializeObject(raw.Str([]byte{0x01, 0xFF, 'a'}))
	for _, b := range out {
		if b >= 0x80 {
			t.Fatalf("serialized string contains non-ASCII byte: %q", out)
		}
	}
	if string(out) != `(\001\377a)` {
		t.Fatalf("octal escaping = %q", out)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	dict := raw.Dict()
	dict.Set("Kids", raw.NewArray(raw.Ref(3, 0), raw.Ref(4, 0)))
	dict.Set("Count", raw.NumberInt(2))
	out := SerializeObject(dict)
	parsed, err := raw.ParseObjectBytes(out)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	d := parsed.(*raw.DictObj)
	count, _ := d.Get("Count")
	if count.(raw.NumberObj).Int() != 2 {
		t.Fatalf("round trip lost /Count: %s", out)
	}
	kids, _ := d.Get("Kids")
	if kids.(*raw.ArrayObj).Len() != 2 {
		t.Fatalf("round trip lost /Kids: %s", out)
	}
}

const original = `%PDF-1.7
1 0 obj
<< /Type /Catalog /Pages 2 0 R >>
endobj
2 0 obj
<< /Type /Pages /Kids [3 0 R] /Count 1 >>
endobj
3 0 obj
<< /Type /Page /Parent 2 0 R >>
endobj
trailer
<< /Size 4 /Root 1 0 R >>
startxref
123
%%EOF
`

func TestIncrementalUpdate(t *testing.T) {
	doc, err := raw.Parse(context.Background(), []byte(original))
	if err != nil {
		t.Fatalf("parse original: %v", err)
	}

	w := NewIncremental([]byte(original), doc)
	page := raw.Dict()
	page.Set("Type", raw.NameLiteral("Page"))
	page.Set("Parent", raw.Ref(2, 0))
	page.Set("Contents", raw.Ref(4, 0))
	w.ReplaceObject(raw.ObjectRef{Num: 3}, page)

	contentDict := raw.Dict()
	contentDict.Set("Length", raw.NumberInt(9))
	ref := w.AddObject(raw.NewStream(contentDict, []byte("BT ET q Q")))
	if ref.Num != 4 {
		t.Fatalf("allocated ref = %v, want 4", ref)
	}

	out, err := w.Bytes()
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}
	if !bytes.HasPrefix(out, []byte(original)) {
		t.Fatal("original bytes must be preserved as a prefix")
	}
	text := string(out)
	if !strings.Contains(text, "/Prev 123") {
		t.Fatalf("trailer missing /Prev:\n%s", text)
	}
	if !strings.Contains(text, "3 2\n") {
		t.Fatalf("xref should have one subsection for objects 3..4:\n%s", text)
	}

	reparsed, err := raw.Parse(context.Background(), out)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	newPage := reparsed.Objects[raw.ObjectRef{Num: 3}].(*raw.DictObj)
	if _, ok := newPage.Get("Contents"); !ok {
		t.Fatal("updated page revision should win")
	}
	stream, ok := reparsed.Objects[raw.ObjectRef{Num: 4}].(*raw.StreamObj)
	if !ok || string(stream.Data) != "BT ET q Q" {
		t.Fatalf("appended stream = %+v", reparsed.Objects[raw.ObjectRef{Num: 4}])
	}
}

func TestIncrementalNoChanges(t *testing.T) {
	doc, err := raw.Parse(context.Background(), []byte(original))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := NewIncremental([]byte(original), doc).Bytes()
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}
	if !bytes.Equal(out, []byte(original)) {
		t.Fatal("no queued objects should leave the file untouched")
	}
}

func TestEncodeCIDWidths(t *testing.T) {
	arr := encodeCIDWidths(map[int]int{1: 500, 2: 500, 3: 500, 7: 600})
	want := "[1 3 500 7 7 600]"
	if got := string(SerializeObject(arr)); got != want {
		t.Fatalf("W array = %s, want %s", got, want)
	}
}

func TestBuildToUnicodeCMap(t *testing.T) {
	cmap := buildToUnicodeCMap("DejaVuSans", map[int]rune{5: '3', 9: '€'})
	text := string(cmap)
	if !strings.Contains(text, "/CMapName /DejaVuSans-UTF16 def") {
		t.Fatalf("cmap name missing:\n%s", text)
	}
	if !strings.Contains(text, "<0005> <0033>") || !strings.Contains(text, "<0009> <20AC>") {
		t.Fatalf("bfchar entries missing:\n%s", text)
	}
	if !strings.Contains(text, "1 begincodespacerange\n<0005> <0009>") {
		t.Fatalf("codespace range missing:\n%s", text)
	}
	if buildToUnicodeCMap("X", nil) != nil {
		t.Fatal("empty mapping should produce no cmap")
	}
}

func TestLastStartXRef(t *testing.T) {
	data := []byte("startxref\n10\n%%EOF\nstartxref\n945\n%%EOF\n")
	if got := lastStartXRef(data); got != 945 {
		t.Fatalf("lastStartXRef = %d", got)
	}
	if lastStartXRef([]byte("no marker")) != 0 {
		t.Fatal("missing marker should yield 0")
	}
}
