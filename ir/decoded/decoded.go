// Package decoded turns a raw document into one whose stream payloads have
// been run through the filter pipeline, and inflates object streams so that
// compressed objects are reachable like any other.
package decoded

import (
	"bufio"
	"bytes"
	"context"
	"fmt"

	"github.com/R0KG/price-updater/filters"
	"github.com/R0KG/price-updater/ir/raw"
	"github.com/R0KG/price-updater/observability"
)

// Stream is a decoded PDF stream.
type Stream interface {
	Dictionary() raw.Dictionary
	Data() []byte
	Filters() []string
}

// Document pairs the raw object graph with decoded stream payloads.
type Document struct {
	Raw     *raw.Document
	Streams map[raw.ObjectRef]Stream
}

type decodedStream struct {
	dict    raw.Dictionary
	data    []byte
	filters []string
}

func (s decodedStream) Dictionary() raw.Dictionary { return s.dict }
func (s decodedStream) Data() []byte               { return s.data }
func (s decodedStream) Filters() []string          { return s.filters }

// Decoder transforms raw documents into decoded ones.
type Decoder struct {
	pipeline *filters.Pipeline
	logger   observability.Logger
}

// NewDecoder builds a decoder over the given filter pipeline. A nil logger
// defaults to NopLogger.
func NewDecoder(p *filters.Pipeline, logger observability.Logger) *Decoder {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &Decoder{pipeline: p, logger: logger}
}

// Decode runs every stream through the filter pipeline sequentially (the
// processing model is one synchronous session per document) and then
// inflates object streams.
func (d *Decoder) Decode(ctx context.Context, rawDoc *raw.Document) (*Document, error) {
	doc := &Document{Raw: rawDoc, Streams: make(map[raw.ObjectRef]Stream)}
	for ref, obj := range rawDoc.Objects {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, ok := obj.(raw.Stream)
		if !ok {
			continue
		}
		names, params := filters.ExtractFilters(s.Dictionary())
		data := s.RawData()
		if len(names) > 0 {
			out, err := d.pipeline.Decode(ctx, data, names, params)
			if err != nil {
				return nil, fmt.Errorf("decoded: stream %v (%v): %w", ref, names, err)
			}
			data = out
		}
		doc.Streams[ref] = decodedStream{dict: s.Dictionary(), data: data, filters: names}
	}
	d.inflateObjectStreams(doc)
	return doc, nil
}

// inflateObjectStreams parses /Type /ObjStm payloads and registers the
// embedded objects. Top-level definitions win over compressed ones, which
// keeps incremental-update semantics intact.
func (d *Decoder) inflateObjectStreams(doc *Document) {
	inflated := make(map[raw.ObjectRef]raw.Object)
	for ref, stream := range doc.Streams {
		typ, _ := nameFromDict(stream.Dictionary(), "Type")
		if typ != "ObjStm" {
			continue
		}
		objects, err := parseObjectStream(stream)
		if err != nil {
			d.logger.Warn("skipping unreadable object stream",
				observability.String("ref", ref.String()),
				observability.Error("err", err))
			continue
		}
		for num, obj := range objects {
			key := raw.ObjectRef{Num: num}
			if _, exists := doc.Raw.Objects[key]; !exists {
				inflated[key] = obj
			}
		}
	}
	for ref, obj := range inflated {
		doc.Raw.Objects[ref] = obj
	}
}

func parseObjectStream(stream Stream) (map[int]raw.Object, error) {
	dict := stream.Dictionary()
	data := stream.Data()
	count, ok := intFromDict(dict, "N")
	if !ok || count <= 0 {
		return nil, fmt.Errorf("invalid object count")
	}
	first, ok := intFromDict(dict, "First")
	if !ok || first < 0 || first > len(data) {
		return nil, fmt.Errorf("invalid First offset")
	}

	type entry struct{ num, off int }
	entries := make([]entry, 0, count)
	header := bufio.NewReader(bytes.NewReader(data[:first]))
	for i := 0; i < count; i++ {
		var num, off int
		if _, err := fmt.Fscan(header, &num, &off); err != nil {
			return nil, fmt.Errorf("header entry %d: %w", i, err)
		}
		entries = append(entries, entry{num: num, off: off})
	}

	body := data[first:]
	objects := make(map[int]raw.Object, len(entries))
	for i, ent := range entries {
		if ent.off < 0 || ent.off > len(body) {
			continue
		}
		end := len(body)
		if i+1 < len(entries) && entries[i+1].off >= ent.off && entries[i+1].off <= len(body) {
			end = entries[i+1].off
		}
		segment := bytes.TrimSpace(body[ent.off:end])
		if len(segment) == 0 {
			continue
		}
		obj, err := raw.ParseObjectBytes(segment)
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", ent.num, err)
		}
		objects[ent.num] = obj
	}
	return objects, nil
}

func nameFromDict(dict raw.Dictionary, key string) (string, bool) {
	obj, ok := dict.Get(key)
	if !ok {
		return "", false
	}
	n, ok := obj.(raw.Name)
	if !ok {
		return "", false
	}
	return n.Value(), true
}

func intFromDict(dict raw.Dictionary, key string) (int, bool) {
	obj, ok := dict.Get(key)
	if !ok {
		return 0, false
	}
	n, ok := obj.(raw.Number)
	if !ok {
		return 0, false
	}
	return int(n.Int()), true
}
