package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestTextLoggerOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewTextLogger(&buf).(*textLogger)
	l.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	l.Info("scan complete", Int("occurrences", 3), String("doc", "catalog.pdf"))

	line := buf.String()
	for _, want := range []string{"INFO", "scan complete", "occurrences=3", "doc=catalog.pdf"} {
		if !strings.Contains(line, want) {
			t.Fatalf("log line %q missing %q", line, want)
		}
	}
}

func TestTextLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	l := NewTextLogger(&buf)
	bound := l.With(String("session", "abc"))
	bound.Warn("font fallback")
	if !strings.Contains(buf.String(), "session=abc") {
		t.Fatalf("bound field missing from %q", buf.String())
	}

	buf.Reset()
	l.Info("no binding")
	if strings.Contains(buf.String(), "session=abc") {
		t.Fatalf("parent logger leaked bound field: %q", buf.String())
	}
}

func TestNopLogger(t *testing.T) {
	var l Logger = NopLogger{}
	l = l.With(String("k", "v"))
	l.Debug("ignored")
	l.Error("ignored", Error("err", nil))
}
