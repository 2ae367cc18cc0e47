package raw

import (
	"context"
	"testing"
)

const fixture = `%PDF-1.7
1 0 obj
<< /Type /Catalog /Pages 2 0 R >>
endobj
2 0 obj
<< /Type /Pages /Kids [3 0 R] /Count 1 >>
endobj
3 0 obj
<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Contents 4 0 R >>
endobj
4 0 obj
<< /Length 19 >>
stream
BT /F1 12 Tf ET end
endstream
endobj
xref
0 5
0000000000 65535 f
0000000009 00000 n
0000000060 00000 n
0000000117 00000 n
0000000207 00000 n
trailer
<< /Size 5 /Root 1 0 R >>
startxref
276
%%EOF
`

func TestParseFixture(t *testing.T) {
	doc, err := Parse(context.Background(), []byte(fixture))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Version != "1.7" {
		t.Fatalf("version = %q", doc.Version)
	}
	if len(doc.Objects) != 4 {
		t.Fatalf("object count = %d, want 4", len(doc.Objects))
	}
	if doc.Trailer == nil {
		t.Fatal("trailer not captured")
	}
	rootObj, ok := doc.Trailer.Get("Root")
	if !ok {
		t.Fatal("trailer missing /Root")
	}
	if ref, ok := rootObj.(RefObj); !ok || ref.R.Num != 1 {
		t.Fatalf("unexpected root %+v", rootObj)
	}

	stream, ok := doc.Objects[ObjectRef{Num: 4}].(*StreamObj)
	if !ok {
		t.Fatalf("object 4 is %T, want stream", doc.Objects[ObjectRef{Num: 4}])
	}
	if string(stream.Data) != "BT /F1 12 Tf ET end" {
		t.Fatalf("stream payload = %q", stream.Data)
	}
}

func TestParseIncrementalOverwrite(t *testing.T) {
	src := `%PDF-1.4
5 0 obj
<< /Kind /Old >>
endobj
trailer
<< /Size 6 /Root 5 0 R >>
5 0 obj
<< /Kind /New >>
endobj
trailer
<< /Size 6 /Root 5 0 R >>
`
	doc, err := Parse(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	dict := doc.Objects[ObjectRef{Num: 5}].(*DictObj)
	kind, _ := dict.Get("Kind")
	if kind.(NameObj).Val != "New" {
		t.Fatalf("later revision should win, got %+v", kind)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse(context.Background(), []byte("not a pdf at all")); err == nil {
		t.Fatal("expected error for non-PDF input")
	}
	if _, err := Parse(context.Background(), []byte("%PDF-1.7\nno objects here")); err == nil {
		t.Fatal("expected error for object-free input")
	}
}

func TestParseNestedStructures(t *testing.T) {
	src := `%PDF-1.7
7 0 obj
<< /A [1 2 [3 (four)] << /B /C >>] /D <AB> >>
endobj
`
	doc, err := Parse(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	dict := doc.Objects[ObjectRef{Num: 7}].(*DictObj)
	arrObj, _ := dict.Get("A")
	arr := arrObj.(*ArrayObj)
	if arr.Len() != 4 {
		t.Fatalf("array len = %d", arr.Len())
	}
	inner := arr.Items[2].(*ArrayObj)
	if string(inner.Items[1].(StringObj).Bytes) != "four" {
		t.Fatalf("inner string = %+v", inner.Items[1])
	}
	hexObj, _ := dict.Get("D")
	hs := hexObj.(HexStringObj)
	if len(hs.Bytes) != 1 || hs.Bytes[0] != 0xAB {
		t.Fatalf("hex string = %x", hs.Bytes)
	}
}
