package mutate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/R0KG/price-updater/coords"
	"github.com/R0KG/price-updater/engine"
	"github.com/R0KG/price-updater/extractor"
	"github.com/R0KG/price-updater/plan"
	"github.com/R0KG/price-updater/scan"
)

type fakeDoc struct {
	pages       []*fakePage
	fonts       map[string]bool
	registerErr error
	log         *[]string
}

func newFakeDoc(pageCount int) *fakeDoc {
	var log []string
	d := &fakeDoc{fonts: make(map[string]bool), log: &log}
	for i := 0; i < pageCount; i++ {
		d.pages = append(d.pages, &fakePage{idx: i, log: &log})
	}
	return d
}

func (d *fakeDoc) Pages() []engine.Page {
	pages := make([]engine.Page, len(d.pages))
	for i, p := range d.pages {
		pages[i] = p
	}
	return pages
}

func (d *fakeDoc) RegisterFont(name string, data []byte) error {
	if d.registerErr != nil {
		return d.registerErr
	}
	d.fonts[name] = true
	return nil
}

func (d *fakeDoc) HasFont(name string) bool { return d.fonts[name] }

func (d *fakeDoc) Serialize(ctx context.Context) ([]byte, error) { return nil, nil }

type fakePage struct {
	idx int
	log *[]string
}

func (p *fakePage) Index() int { return p.idx }

func (p *fakePage) TextSpans() ([]extractor.TextSpan, error) { return nil, nil }

func (p *fakePage) FillRect(r coords.Rect, color [3]float64) {
	*p.log = append(*p.log, fmt.Sprintf("fill p%d %g,%g color=%v", p.idx, r.X0, r.Y0, color))
}

func (p *fakePage) InsertText(origin coords.Point, text string, size float64, font string, color [3]float64) {
	*p.log = append(*p.log, fmt.Sprintf("text p%d %g,%g %q size=%g font=%s color=%v",
		p.idx, origin.X, origin.Y, text, size, font, color))
}

func directive(id string, page int, display string) plan.Directive {
	return plan.Directive{
		Occurrence: scan.Occurrence{
			ID:        id,
			PageIndex: page,
			BBox:      coords.Rect{X0: 50, Y0: 700, X1: 150, Y1: 715},
			Origin:    coords.Point{X: 52, Y: 703},
			FontSize:  11,
		},
		DisplayText: display,
	}
}

func TestTwoPassOrdering(t *testing.T) {
	doc := newFakeDoc(2)
	directives := []plan.Directive{
		directive("occ-0001", 0, "36 750 €"),
		directive("occ-0002", 1, "13 €"),
	}
	if err := New(Config{}, nil).Apply(context.Background(), doc, directives); err != nil {
		t.Fatalf("apply: %v", err)
	}
	log := *doc.log
	if len(log) != 4 {
		t.Fatalf("op count = %d: %v", len(log), log)
	}
	for i := 0; i < 2; i++ {
		if log[i][:4] != "fill" {
			t.Fatalf("op %d should be an erase: %v", i, log)
		}
	}
	for i := 2; i < 4; i++ {
		if log[i][:4] != "text" {
			t.Fatalf("op %d should be an insert: %v", i, log)
		}
	}
}

func TestInsertUsesBBoxLeftAndBaseline(t *testing.T) {
	doc := newFakeDoc(1)
	d := directive("occ-0001", 0, "13 €")
	if err := New(Config{}, nil).Apply(context.Background(), doc, []plan.Directive{d}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := `text p0 50,703 "13 €" size=11 font=` + engine.FallbackFont + " color=[0 0 0]"
	if got := (*doc.log)[1]; got != want {
		t.Fatalf("insert op = %q, want %q", got, want)
	}
}

func TestFontRegistrationFailureFallsBack(t *testing.T) {
	doc := newFakeDoc(1)
	doc.registerErr = errors.New("corrupt font")
	cfg := Config{FontName: "dejavu", FontData: []byte("pretend ttf")}
	if err := New(cfg, nil).Apply(context.Background(), doc, []plan.Directive{directive("occ-0001", 0, "x")}); err != nil {
		t.Fatalf("apply should not fail on font trouble: %v", err)
	}
	if got := (*doc.log)[1]; !strings.Contains(got, "font="+engine.FallbackFont) {
		t.Fatalf("insert should use the fallback font: %q", got)
	}
}

func TestRegisteredFontIsUsed(t *testing.T) {
	doc := newFakeDoc(1)
	cfg := Config{FontName: "dejavu", FontData: []byte("pretend ttf")}
	if err := New(cfg, nil).Apply(context.Background(), doc, []plan.Directive{directive("occ-0001", 0, "x")}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !doc.fonts["dejavu"] {
		t.Fatal("font should be registered on the document")
	}
	if got := (*doc.log)[1]; !strings.Contains(got, "font=dejavu") {
		t.Fatalf("insert should use the registered font: %q", got)
	}
}

func TestMissingPageIsRejected(t *testing.T) {
	doc := newFakeDoc(1)
	if err := New(Config{}, nil).Apply(context.Background(), doc, []plan.Directive{directive("occ-0001", 5, "x")}); err == nil {
		t.Fatal("expected error for out-of-range page")
	}
	if len(*doc.log) != 0 {
		t.Fatal("no operations should run when validation fails")
	}
}
