// Package filters implements the stream decoders needed to read catalog
// documents: FlateDecode (with PNG/TIFF predictors), ASCIIHexDecode,
// ASCII85Decode, and RunLengthDecode.
package filters

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"context"
	stdascii85 "encoding/ascii85"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/R0KG/price-updater/ir/raw"
)

type Decoder interface {
	Name() string
	Decode(ctx context.Context, input []byte, params raw.Dictionary) ([]byte, error)
}

// Pipeline applies a chain of named filters to stream data.
type Pipeline struct {
	decoders map[string]Decoder
}

// NewPipeline registers the given decoders.
func NewPipeline(decoders ...Decoder) *Pipeline {
	p := &Pipeline{decoders: make(map[string]Decoder, len(decoders))}
	for _, d := range decoders {
		p.decoders[d.Name()] = d
	}
	return p
}

// Default returns a pipeline with every decoder this package implements.
func Default() *Pipeline {
	return NewPipeline(
		NewFlateDecoder(),
		NewASCIIHexDecoder(),
		NewASCII85Decoder(),
		NewRunLengthDecoder(),
	)
}

// Decode runs data through the named filters in order.
func (p *Pipeline) Decode(ctx context.Context, data []byte, names []string, params []raw.Dictionary) ([]byte, error) {
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dec, ok := p.decoders[name]
		if !ok {
			return nil, fmt.Errorf("filters: unknown filter %q", name)
		}
		var param raw.Dictionary
		if i < len(params) {
			param = params[i]
		}
		out, err := dec.Decode(ctx, data, param)
		if err != nil {
			return nil, fmt.Errorf("filters: %s: %w", name, err)
		}
		data = out
	}
	return data, nil
}

// ExtractFilters reads the Filter and DecodeParms entries of a stream
// dictionary into parallel slices.
func ExtractFilters(dict raw.Dictionary) ([]string, []raw.Dictionary) {
	var names []string
	var params []raw.Dictionary
	filterObj, ok := dict.Get("Filter")
	if !ok {
		return names, params
	}
	switch f := filterObj.(type) {
	case raw.Name:
		names = append(names, f.Value())
	case *raw.ArrayObj:
		for _, item := range f.Items {
			if n, ok := item.(raw.Name); ok {
				names = append(names, n.Value())
			}
		}
	}
	if len(names) == 0 {
		return names, params
	}
	if pObj, ok := dict.Get("DecodeParms"); ok {
		switch p := pObj.(type) {
		case raw.Dictionary:
			params = append(params, p)
		case *raw.ArrayObj:
			for _, item := range p.Items {
				d, _ := item.(raw.Dictionary)
				params = append(params, d) // nil for null placeholders
			}
		}
	}
	return names, params
}

type flateDecoder struct{}

func NewFlateDecoder() Decoder { return flateDecoder{} }

func (flateDecoder) Name() string { return "FlateDecode" }

func (flateDecoder) Decode(ctx context.Context, in []byte, params raw.Dictionary) ([]byte, error) {
	out, err := inflate(in)
	if err != nil {
		return nil, err
	}
	return applyPredictor(out, params)
}

// inflate handles both zlib-wrapped (the common case in PDF) and bare
// deflate payloads.
func inflate(in []byte) ([]byte, error) {
	if zr, err := zlib.NewReader(bytes.NewReader(in)); err == nil {
		defer zr.Close()
		var out bytes.Buffer
		if _, err := io.Copy(&out, zr); err == nil {
			return out.Bytes(), nil
		}
	}
	fr := flate.NewReader(bytes.NewReader(in))
	defer fr.Close()
	var out bytes.Buffer
	if _, err := io.Copy(&out, fr); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

type asciiHexDecoder struct{}

func NewASCIIHexDecoder() Decoder { return asciiHexDecoder{} }

func (asciiHexDecoder) Name() string { return "ASCIIHexDecode" }

func (asciiHexDecoder) Decode(ctx context.Context, in []byte, params raw.Dictionary) ([]byte, error) {
	trimmed := make([]byte, 0, len(in))
	for _, c := range in {
		switch c {
		case ' ', '\t', '\r', '\n', '\f', 0:
			continue
		}
		if c == '>' {
			break
		}
		trimmed = append(trimmed, c)
	}
	if len(trimmed)%2 == 1 {
		trimmed = append(trimmed, '0')
	}
	out := make([]byte, hex.DecodedLen(len(trimmed)))
	n, err := hex.Decode(out, trimmed)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}

type ascii85Decoder struct{}

func NewASCII85Decoder() Decoder { return ascii85Decoder{} }

func (ascii85Decoder) Name() string { return "ASCII85Decode" }

func (ascii85Decoder) Decode(ctx context.Context, in []byte, params raw.Dictionary) ([]byte, error) {
	trimmed := bytes.TrimSpace(in)
	if bytes.HasPrefix(trimmed, []byte("<~")) {
		trimmed = trimmed[2:]
	}
	if idx := bytes.Index(trimmed, []byte("~>")); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	out := make([]byte, len(trimmed)*4)
	n, _, err := stdascii85.Decode(out, trimmed, true)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}

type runLengthDecoder struct{}

func NewRunLengthDecoder() Decoder { return runLengthDecoder{} }

func (runLengthDecoder) Name() string { return "RunLengthDecode" }

func (runLengthDecoder) Decode(ctx context.Context, in []byte, params raw.Dictionary) ([]byte, error) {
	var out bytes.Buffer
	for i := 0; i < len(in); {
		n := in[i]
		i++
		switch {
		case n == 128:
			return out.Bytes(), nil
		case n < 128:
			count := int(n) + 1
			if i+count > len(in) {
				return nil, errors.New("truncated literal run")
			}
			out.Write(in[i : i+count])
			i += count
		default:
			if i >= len(in) {
				return nil, errors.New("truncated repeat run")
			}
			count := 257 - int(n)
			for j := 0; j < count; j++ {
				out.WriteByte(in[i])
			}
			i++
		}
	}
	return out.Bytes(), nil
}
