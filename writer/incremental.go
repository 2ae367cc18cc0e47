package writer

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/R0KG/price-updater/ir/raw"
)

// Incremental builds an incremental update section: modified and new
// objects appended after the original bytes, followed by a cross-reference
// section chained to the previous one with /Prev. The original file is
// preserved verbatim as a prefix.
type Incremental struct {
	original []byte
	doc      *raw.Document
	objects  map[raw.ObjectRef]raw.Object
	order    []raw.ObjectRef
	nextNum  int
}

// NewIncremental prepares an update over the original file bytes and its
// parsed document.
func NewIncremental(original []byte, doc *raw.Document) *Incremental {
	maxNum := 0
	for ref := range doc.Objects {
		if ref.Num > maxNum {
			maxNum = ref.Num
		}
	}
	return &Incremental{
		original: original,
		doc:      doc,
		objects:  make(map[raw.ObjectRef]raw.Object),
		nextNum:  maxNum + 1,
	}
}

// ReplaceObject queues a new revision of an existing object.
func (w *Incremental) ReplaceObject(ref raw.ObjectRef, obj raw.Object) {
	if _, exists := w.objects[ref]; !exists {
		w.order = append(w.order, ref)
	}
	w.objects[ref] = obj
}

// AddObject queues a brand-new object and returns its allocated reference.
func (w *Incremental) AddObject(obj raw.Object) raw.ObjectRef {
	ref := raw.ObjectRef{Num: w.nextNum}
	w.nextNum++
	w.objects[ref] = obj
	w.order = append(w.order, ref)
	return ref
}

// Bytes assembles the updated file.
func (w *Incremental) Bytes() ([]byte, error) {
	if len(w.objects) == 0 {
		return w.original, nil
	}

	var buf bytes.Buffer
	buf.Write(w.original)
	if len(w.original) > 0 && w.original[len(w.original)-1] != '\n' {
		buf.WriteByte('\n')
	}

	offsets := make(map[raw.ObjectRef]int64, len(w.objects))
	for _, ref := range w.order {
		offsets[ref] = int64(buf.Len())
		fmt.Fprintf(&buf, "%d %d obj\n", ref.Num, ref.Gen)
		buf.Write(SerializeObject(w.objects[ref]))
		buf.WriteString("\nendobj\n")
	}

	xrefOffset := int64(buf.Len())
	writeXRefTable(&buf, offsets)

	trailer, err := w.buildTrailer()
	if err != nil {
		return nil, err
	}
	buf.WriteString("trailer\n")
	buf.Write(SerializeObject(trailer))
	fmt.Fprintf(&buf, "\nstartxref\n%d\n%%%%EOF\n", xrefOffset)
	return buf.Bytes(), nil
}

// writeXRefTable emits a classic xref section with one subsection per
// contiguous run of object numbers.
func writeXRefTable(buf *bytes.Buffer, offsets map[raw.ObjectRef]int64) {
	refs := make([]raw.ObjectRef, 0, len(offsets))
	for ref := range offsets {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Num < refs[j].Num })

	buf.WriteString("xref\n")
	for i := 0; i < len(refs); {
		j := i
		for j+1 < len(refs) && refs[j+1].Num == refs[j].Num+1 {
			j++
		}
		fmt.Fprintf(buf, "%d %d\n", refs[i].Num, j-i+1)
		for k := i; k <= j; k++ {
			fmt.Fprintf(buf, "%010d %05d n \n", offsets[refs[k]], refs[k].Gen)
		}
		i = j + 1
	}
}

func (w *Incremental) buildTrailer() (*raw.DictObj, error) {
	trailer := raw.Dict()
	trailer.Set("Size", raw.NumberInt(int64(w.nextNum)))

	rootRef, err := w.rootReference()
	if err != nil {
		return nil, err
	}
	trailer.Set("Root", rootRef)

	if w.doc.Trailer != nil {
		if info, ok := w.doc.Trailer.Get("Info"); ok {
			trailer.Set("Info", info)
		}
	}
	if prev := lastStartXRef(w.original); prev > 0 {
		trailer.Set("Prev", raw.NumberInt(prev))
	}
	return trailer, nil
}

func (w *Incremental) rootReference() (raw.Object, error) {
	if w.doc.Trailer != nil {
		if root, ok := w.doc.Trailer.Get("Root"); ok {
			return root, nil
		}
	}
	for ref, obj := range w.doc.Objects {
		if d, ok := obj.(raw.Dictionary); ok {
			if typ, ok := d.Get("Type"); ok {
				if n, ok := typ.(raw.Name); ok && n.Value() == "Catalog" {
					return raw.Ref(ref.Num, ref.Gen), nil
				}
			}
		}
	}
	return nil, errors.New("writer: no document catalog for trailer /Root")
}

var startXRefPattern = regexp.MustCompile(`startxref\s+(\d+)`)

// lastStartXRef finds the offset declared by the newest startxref marker.
func lastStartXRef(data []byte) int64 {
	matches := startXRefPattern.FindAllSubmatch(data, -1)
	if len(matches) == 0 {
		return 0
	}
	off, err := strconv.ParseInt(string(matches[len(matches)-1][1]), 10, 64)
	if err != nil {
		return 0
	}
	return off
}
