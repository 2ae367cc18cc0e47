package scanner

import (
	"bytes"
	"io"
	"testing"
)

func mustTokens(t *testing.T, src string) []Token {
	t.Helper()
	s := New([]byte(src))
	var out []Token
	for {
		tok, err := s.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("scan %q: %v", src, err)
		}
		out = append(out, tok)
	}
}

func TestScanBasicObjects(t *testing.T) {
	toks := mustTokens(t, "<< /Type /Page /Count 3 /Scale 1.5 /Ok true /Nil null >>")
	if toks[0].Type != TokenDict {
		t.Fatalf("expected dict open, got %+v", toks[0])
	}
	if toks[1].Type != TokenName || toks[1].Value != "Type" {
		t.Fatalf("expected /Type, got %+v", toks[1])
	}
	last := toks[len(toks)-1]
	if last.Type != TokenKeyword || last.Value != ">>" {
		t.Fatalf("expected dict close, got %+v", last)
	}
	var sawInt, sawFloat, sawBool, sawNull bool
	for _, tok := range toks {
		switch v := tok.Value.(type) {
		case int64:
			sawInt = v == 3
		case float64:
			sawFloat = v == 1.5
		case bool:
			sawBool = v
		}
		if tok.Type == TokenNull {
			sawNull = true
		}
	}
	if !sawInt || !sawFloat || !sawBool || !sawNull {
		t.Fatalf("missing scalar tokens: int=%v float=%v bool=%v null=%v", sawInt, sawFloat, sawBool, sawNull)
	}
}

func TestScanIndirectRef(t *testing.T) {
	toks := mustTokens(t, "/Parent 12 0 R /Count 2")
	if toks[1].Type != TokenRef {
		t.Fatalf("expected ref, got %+v", toks[1])
	}
	if rv := toks[1].Value.(RefValue); rv.Num != 12 || rv.Gen != 0 {
		t.Fatalf("unexpected ref value %+v", rv)
	}
	// The trailing 2 is a plain number, not the start of a reference.
	if toks[3].Type != TokenNumber || toks[3].Value.(int64) != 2 {
		t.Fatalf("expected number 2, got %+v", toks[3])
	}
}

func TestScanLiteralString(t *testing.T) {
	toks := mustTokens(t, `(Hello \(nested\) \101 line\nbreak)`)
	got := string(toks[0].Value.([]byte))
	want := "Hello (nested) A line\nbreak"
	if got != want {
		t.Fatalf("literal string = %q, want %q", got, want)
	}
}

func TestScanNestedParens(t *testing.T) {
	toks := mustTokens(t, "(a (b (c) d) e)")
	if got := string(toks[0].Value.([]byte)); got != "a (b (c) d) e" {
		t.Fatalf("nested string = %q", got)
	}
}

func TestScanHexString(t *testing.T) {
	toks := mustTokens(t, "<48 65 6C 6C 6F>")
	if !toks[0].Hex {
		t.Fatal("expected hex flag")
	}
	if got := string(toks[0].Value.([]byte)); got != "Hello" {
		t.Fatalf("hex string = %q", got)
	}
	// Odd nibble count pads with zero.
	toks = mustTokens(t, "<484>")
	if got := toks[0].Value.([]byte); !bytes.Equal(got, []byte{0x48, 0x40}) {
		t.Fatalf("padded hex = %x", got)
	}
}

func TestScanNameEscapes(t *testing.T) {
	toks := mustTokens(t, "/A#20B")
	if toks[0].Value != "A B" {
		t.Fatalf("name = %q", toks[0].Value)
	}
}

func TestScanComments(t *testing.T) {
	toks := mustTokens(t, "% header comment\n42")
	if len(toks) != 1 || toks[0].Value.(int64) != 42 {
		t.Fatalf("unexpected tokens %+v", toks)
	}
}

func TestScanStreamWithLengthHint(t *testing.T) {
	src := "stream\npayload bytes\nendstream more"
	s := New([]byte(src))
	s.SetNextStreamLength(13)
	tok, err := s.Next()
	if err != nil {
		t.Fatalf("scan stream: %v", err)
	}
	if tok.Type != TokenStream || string(tok.Value.([]byte)) != "payload bytes" {
		t.Fatalf("stream token = %+v", tok)
	}
	next, err := s.Next()
	if err != nil || next.Value != "more" {
		t.Fatalf("expected trailing keyword, got %+v err %v", next, err)
	}
}

func TestScanStreamWithoutHint(t *testing.T) {
	src := "stream\nraw data\nendstream"
	s := New([]byte(src))
	tok, err := s.Next()
	if err != nil {
		t.Fatalf("scan stream: %v", err)
	}
	if string(tok.Value.([]byte)) != "raw data" {
		t.Fatalf("stream payload = %q", tok.Value)
	}
}

func TestScanStreamBadHintFallsBack(t *testing.T) {
	src := "stream\nabc\nendstream"
	s := New([]byte(src))
	s.SetNextStreamLength(9999)
	tok, err := s.Next()
	if err != nil {
		t.Fatalf("scan stream: %v", err)
	}
	if string(tok.Value.([]byte)) != "abc" {
		t.Fatalf("stream payload = %q", tok.Value)
	}
}

func TestSeekTo(t *testing.T) {
	s := New([]byte("ignored 99"))
	if err := s.SeekTo(8); err != nil {
		t.Fatalf("seek: %v", err)
	}
	tok, err := s.Next()
	if err != nil || tok.Value.(int64) != 99 {
		t.Fatalf("after seek got %+v err %v", tok, err)
	}
	if err := s.SeekTo(-1); err == nil {
		t.Fatal("negative seek should fail")
	}
}
