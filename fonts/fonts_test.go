package fonts

import (
	"math"
	"testing"
)

func TestLoadTrueTypeRejectsBadData(t *testing.T) {
	if _, err := LoadTrueType("x", nil); err == nil {
		t.Fatal("expected error for empty data")
	}
	if _, err := LoadTrueType("x", []byte("not a font at all")); err == nil {
		t.Fatal("expected error for garbage data")
	}
}

func TestEncodeWinAnsi(t *testing.T) {
	out, unsupported := EncodeWinAnsi("36 750 €")
	if len(unsupported) != 0 {
		t.Fatalf("unexpected unsupported runes: %q", unsupported)
	}
	want := []byte{'3', '6', ' ', '7', '5', '0', ' ', 0x80}
	if string(out) != string(want) {
		t.Fatalf("encoded = % x, want % x", out, want)
	}
}

func TestEncodeWinAnsiUnsupported(t *testing.T) {
	out, unsupported := EncodeWinAnsi("Цена 10 €")
	if len(unsupported) != 4 {
		t.Fatalf("unsupported = %q", unsupported)
	}
	if string(out) != "???? 10 \x80" {
		t.Fatalf("encoded = %q", out)
	}
}

func TestEncodeWinAnsiLatin1Range(t *testing.T) {
	out, unsupported := EncodeWinAnsi("café")
	if len(unsupported) != 0 {
		t.Fatalf("unsupported = %q", unsupported)
	}
	if out[3] != 0xE9 {
		t.Fatalf("é encoded as %#x", out[3])
	}
}

func TestMeasureWinAnsi(t *testing.T) {
	got := MeasureWinAnsi("AB", 10)
	want := (667.0 + 667.0) / 1000 * 10
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("measure = %v, want %v", got, want)
	}
	if MeasureWinAnsi("", 10) != 0 {
		t.Fatal("empty text should measure zero")
	}
}
