// Package extractor walks the decoded object graph: it locates the page
// tree, resolves inherited page attributes, and interprets content streams
// into positioned text spans.
package extractor

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/R0KG/price-updater/coords"
	"github.com/R0KG/price-updater/ir/decoded"
	"github.com/R0KG/price-updater/ir/raw"
	"github.com/R0KG/price-updater/observability"
)

// Page is one leaf of the page tree with its inherited attributes resolved.
type Page struct {
	Ref       raw.ObjectRef
	Dict      raw.Dictionary
	Index     int
	MediaBox  coords.Rect
	Resources raw.Dictionary
}

// Extractor reads structure and text out of a decoded document.
type Extractor struct {
	doc    *decoded.Document
	logger observability.Logger
}

// New builds an extractor. A nil logger defaults to NopLogger.
func New(doc *decoded.Document, logger observability.Logger) *Extractor {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &Extractor{doc: doc, logger: logger}
}

// Resolve follows reference chains until a direct object is reached.
func (e *Extractor) Resolve(obj raw.Object) raw.Object {
	for i := 0; i < 32; i++ {
		ref, ok := obj.(raw.Reference)
		if !ok {
			return obj
		}
		target, ok := e.doc.Raw.Objects[ref.Ref()]
		if !ok {
			// Generation numbers rarely matter after a linear parse.
			target, ok = e.doc.Raw.Objects[raw.ObjectRef{Num: ref.Ref().Num}]
			if !ok {
				return nil
			}
		}
		obj = target
	}
	return nil
}

func (e *Extractor) resolveDict(obj raw.Object) raw.Dictionary {
	d, _ := e.Resolve(obj).(raw.Dictionary)
	return d
}

func (e *Extractor) resolveArray(obj raw.Object) raw.Array {
	a, _ := e.Resolve(obj).(raw.Array)
	return a
}

// Pages collects the document's pages in tree order.
func (e *Extractor) Pages() ([]Page, error) {
	rootRef, root, err := e.rootCatalog()
	if err != nil {
		return nil, err
	}
	pagesObj, ok := root.Get("Pages")
	if !ok {
		return nil, errors.New("extractor: catalog has no /Pages")
	}
	var pages []Page
	seen := make(map[raw.ObjectRef]bool)
	seen[rootRef] = true
	if err := e.walkPages(pagesObj, inherited{}, seen, &pages); err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, errors.New("extractor: page tree is empty")
	}
	return pages, nil
}

type inherited struct {
	mediaBox  *coords.Rect
	resources raw.Dictionary
}

func (e *Extractor) walkPages(obj raw.Object, inh inherited, seen map[raw.ObjectRef]bool, out *[]Page) error {
	var ref raw.ObjectRef
	if r, ok := obj.(raw.Reference); ok {
		ref = r.Ref()
		if seen[ref] {
			return nil
		}
		seen[ref] = true
	}
	dict := e.resolveDict(obj)
	if dict == nil {
		return nil
	}

	if mb := e.rectFromDict(dict, "MediaBox"); mb != nil {
		inh.mediaBox = mb
	}
	if res, ok := dict.Get("Resources"); ok {
		if d := e.resolveDict(res); d != nil {
			inh.resources = d
		}
	}

	typ := dictName(dict, "Type")
	kids, hasKids := dict.Get("Kids")
	switch {
	case typ == "Pages" || (typ == "" && hasKids):
		arr := e.resolveArray(kids)
		if arr == nil {
			return nil
		}
		for i := 0; i < arr.Len(); i++ {
			kid, _ := arr.Get(i)
			if err := e.walkPages(kid, inh, seen, out); err != nil {
				return err
			}
		}
	case typ == "Page":
		mb := coords.Rect{X0: 0, Y0: 0, X1: 612, Y1: 792}
		if inh.mediaBox != nil {
			mb = *inh.mediaBox
		}
		*out = append(*out, Page{
			Ref:       ref,
			Dict:      dict,
			Index:     len(*out),
			MediaBox:  mb,
			Resources: inh.resources,
		})
	}
	return nil
}

// rootCatalog finds the document catalog: through the trailer when one was
// captured, otherwise through a cross-reference stream dictionary, and as a
// last resort by scanning for /Type /Catalog.
func (e *Extractor) rootCatalog() (raw.ObjectRef, raw.Dictionary, error) {
	lookupRoot := func(dict raw.Dictionary) (raw.ObjectRef, raw.Dictionary) {
		rootObj, ok := dict.Get("Root")
		if !ok {
			return raw.ObjectRef{}, nil
		}
		var ref raw.ObjectRef
		if r, ok := rootObj.(raw.Reference); ok {
			ref = r.Ref()
		}
		return ref, e.resolveDict(rootObj)
	}

	if e.doc.Raw.Trailer != nil {
		if ref, d := lookupRoot(e.doc.Raw.Trailer); d != nil {
			return ref, d, nil
		}
	}
	for _, stream := range e.doc.Streams {
		if dictName(stream.Dictionary(), "Type") != "XRef" {
			continue
		}
		if ref, d := lookupRoot(stream.Dictionary()); d != nil {
			return ref, d, nil
		}
	}
	for ref, obj := range e.doc.Raw.Objects {
		if d, ok := obj.(raw.Dictionary); ok && dictName(d, "Type") == "Catalog" {
			return ref, d, nil
		}
	}
	return raw.ObjectRef{}, nil, errors.New("extractor: document catalog not found")
}

// Content returns the page's content streams concatenated in order.
// Multiple streams form one logical stream, so a space joins them.
func (e *Extractor) Content(page Page) ([]byte, error) {
	contents, ok := page.Dict.Get("Contents")
	if !ok {
		return nil, nil
	}
	var refs []raw.ObjectRef
	switch c := contents.(type) {
	case raw.Reference:
		target := e.Resolve(c)
		if arr, ok := target.(raw.Array); ok {
			refs = e.refsFromArray(arr)
		} else {
			refs = append(refs, c.Ref())
		}
	case raw.Array:
		refs = e.refsFromArray(c)
	}
	var buf bytes.Buffer
	for _, ref := range refs {
		stream := e.streamByRef(ref)
		if stream == nil {
			return nil, fmt.Errorf("extractor: content stream %v not found", ref)
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(stream.Data())
	}
	return buf.Bytes(), nil
}

func (e *Extractor) refsFromArray(arr raw.Array) []raw.ObjectRef {
	var refs []raw.ObjectRef
	for i := 0; i < arr.Len(); i++ {
		item, _ := arr.Get(i)
		if r, ok := item.(raw.Reference); ok {
			refs = append(refs, r.Ref())
		}
	}
	return refs
}

func (e *Extractor) streamByRef(ref raw.ObjectRef) decoded.Stream {
	if s, ok := e.doc.Streams[ref]; ok {
		return s
	}
	if s, ok := e.doc.Streams[raw.ObjectRef{Num: ref.Num}]; ok {
		return s
	}
	return nil
}

func (e *Extractor) rectFromDict(dict raw.Dictionary, key string) *coords.Rect {
	obj, ok := dict.Get(key)
	if !ok {
		return nil
	}
	arr := e.resolveArray(obj)
	if arr == nil || arr.Len() != 4 {
		return nil
	}
	vals := make([]float64, 4)
	for i := 0; i < 4; i++ {
		item, _ := arr.Get(i)
		n, ok := e.Resolve(item).(raw.Number)
		if !ok {
			return nil
		}
		vals[i] = n.Float()
	}
	r := coords.RectFromPoints(coords.Point{X: vals[0], Y: vals[1]}, coords.Point{X: vals[2], Y: vals[3]})
	return &r
}

func dictName(dict raw.Dictionary, key string) string {
	obj, ok := dict.Get(key)
	if !ok {
		return ""
	}
	n, ok := obj.(raw.Name)
	if !ok {
		return ""
	}
	return n.Value()
}

func dictInt(dict raw.Dictionary, key string, def int) int {
	obj, ok := dict.Get(key)
	if !ok {
		return def
	}
	n, ok := obj.(raw.Number)
	if !ok {
		return def
	}
	return int(n.Int())
}

func dictFloat(dict raw.Dictionary, key string, def float64) float64 {
	obj, ok := dict.Get(key)
	if !ok {
		return def
	}
	n, ok := obj.(raw.Number)
	if !ok {
		return def
	}
	return n.Float()
}
