package engine

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/R0KG/price-updater/coords"
)

func fixture() []byte {
	content := "BT /F1 12 Tf 72 700 Td (Old 100) Tj ET"
	return []byte(fmt.Sprintf(`%%PDF-1.7
1 0 obj
<< /Type /Catalog /Pages 2 0 R >>
endobj
2 0 obj
<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 595 842] /Resources << /Font << /F1 5 0 R >> >> >>
endobj
3 0 obj
<< /Type /Page /Parent 2 0 R /Contents 4 0 R >>
endobj
4 0 obj
<< /Length %d >>
stream
%s
endstream
endobj
5 0 obj
<< /Type /Font /Subtype /TrueType /BaseFont /Helvetica >>
endobj
trailer
<< /Size 6 /Root 1 0 R >>
startxref
310
%%%%EOF
`, len(content), content))
}

func TestOpenAndReadSpans(t *testing.T) {
	doc, err := Open(context.Background(), fixture(), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	pages := doc.Pages()
	if len(pages) != 1 {
		t.Fatalf("page count = %d", len(pages))
	}
	spans, err := pages[0].TextSpans()
	if err != nil {
		t.Fatalf("spans: %v", err)
	}
	if len(spans) != 1 || spans[0].Text != "Old 100" {
		t.Fatalf("spans = %+v", spans)
	}
	if spans[0].Origin.X != 72 || spans[0].Origin.Y != 700 {
		t.Fatalf("origin = %+v", spans[0].Origin)
	}
}

func TestOpenRejectsGarbage(t *testing.T) {
	if _, err := Open(context.Background(), []byte("not a document"), nil); err == nil {
		t.Fatal("expected error for malformed input")
	}
}

func TestSerializeWithoutMutationsIsIdentity(t *testing.T) {
	src := fixture()
	doc, err := Open(context.Background(), src, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	out, err := doc.Serialize(context.Background())
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if !bytes.Equal(out, src) {
		t.Fatal("no mutations should leave the file byte-identical")
	}
}

func TestMutateRoundTrip(t *testing.T) {
	doc, err := Open(context.Background(), fixture(), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	p := doc.Pages()[0]
	p.FillRect(coords.Rect{X0: 70, Y0: 695, X1: 130, Y1: 712}, [3]float64{1, 1, 1})
	p.InsertText(coords.Point{X: 72, Y: 650}, "New 200", 12, FallbackFont, [3]float64{0, 0, 0})

	out, err := doc.Serialize(context.Background())
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if !bytes.HasPrefix(out, fixture()) {
		t.Fatal("serialized file should keep the original as prefix")
	}

	reopened, err := Open(context.Background(), out, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	spans, err := reopened.Pages()[0].TextSpans()
	if err != nil {
		t.Fatalf("spans: %v", err)
	}
	var texts []string
	for _, s := range spans {
		texts = append(texts, s.Text)
	}
	if len(spans) != 2 || spans[0].Text != "Old 100" || spans[1].Text != "New 200" {
		t.Fatalf("texts after round trip = %v", texts)
	}
	if spans[1].Origin.X != 72 || spans[1].Origin.Y != 650 {
		t.Fatalf("inserted origin = %+v", spans[1].Origin)
	}
}

func TestRegisterFontValidation(t *testing.T) {
	doc, err := Open(context.Background(), fixture(), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := doc.RegisterFont("bad", []byte("junk")); err == nil {
		t.Fatal("expected error for unparseable font data")
	}
	if err := doc.RegisterFont(FallbackFont, nil); err == nil {
		t.Fatal("the builtin font name is reserved")
	}
	if doc.HasFont("bad") {
		t.Fatal("failed registration must not be visible")
	}
}
