package raw

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/R0KG/price-updater/scanner"
)

var headerPattern = regexp.MustCompile(`%PDF-(\d\.\d)`)

// Parse scans the whole document front to back and collects every
// "N G obj ... endobj" it finds, along with the newest trailer dictionary.
// Offsets from the cross-reference table are deliberately not used: a linear
// scan handles incremental updates naturally (later definitions of the same
// reference overwrite earlier ones) and tolerates files whose xref offsets
// are stale.
func Parse(ctx context.Context, data []byte) (*Document, error) {
	doc := &Document{Objects: make(map[ObjectRef]Object)}
	if m := headerPattern.FindSubmatch(data); m != nil {
		doc.Version = string(m[1])
	} else {
		return nil, errors.New("raw: missing %PDF header")
	}

	s := scanner.New(data)
	tr := &TokenReader{S: s}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tok, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("raw: scan: %w", err)
		}

		if tok.Type == scanner.TokenKeyword && tok.Value == "trailer" {
			trailer, err := parseTrailer(tr)
			if err != nil {
				return nil, err
			}
			doc.Trailer = trailer
			continue
		}

		if tok.Type != scanner.TokenNumber {
			continue
		}
		num, ok := tok.Value.(int64)
		if !ok {
			continue
		}

		genTok, err := tr.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		gen, ok := genTok.Value.(int64)
		if genTok.Type != scanner.TokenNumber || !ok {
			tr.Unread(genTok)
			continue
		}

		kwTok, err := tr.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		if kwTok.Type != scanner.TokenKeyword || kwTok.Value != "obj" {
			tr.Unread(kwTok)
			tr.Unread(genTok)
			continue
		}

		obj, err := ParseObject(tr)
		if err != nil {
			return nil, fmt.Errorf("raw: object %d %d: %w", num, gen, err)
		}

		// A dictionary may be the header of a stream body.
		if dict, ok := obj.(*DictObj); ok {
			if lengthObj, ok := dict.Get("Length"); ok {
				if n, ok := lengthObj.(Number); ok && n.IsInteger() {
					s.SetNextStreamLength(n.Int())
				}
			}
			if streamTok, err := tr.Next(); err == nil {
				if streamTok.Type == scanner.TokenStream {
					obj = NewStream(dict, copyBytes(streamTok.Value))
				} else {
					tr.Unread(streamTok)
				}
			}
			s.SetNextStreamLength(-1)
		}

		if t, err := tr.Next(); err == nil {
			if t.Type != scanner.TokenKeyword || t.Value != "endobj" {
				tr.Unread(t)
			}
		}

		doc.Objects[ObjectRef{Num: int(num), Gen: int(gen)}] = obj
	}

	if len(doc.Objects) == 0 {
		return nil, errors.New("raw: no indirect objects found")
	}
	return doc, nil
}

func parseTrailer(tr *TokenReader) (Dictionary, error) {
	tok, err := tr.Next()
	if err != nil {
		return nil, fmt.Errorf("raw: trailer: %w", err)
	}
	if tok.Type != scanner.TokenDict {
		tr.Unread(tok)
		return nil, errors.New("raw: trailer keyword not followed by dictionary")
	}
	obj, err := parseDict(tr)
	if err != nil {
		return nil, fmt.Errorf("raw: trailer: %w", err)
	}
	return obj.(*DictObj), nil
}

// TokenReader wraps a scanner with single-token pushback, shared by the
// document parser and the content-stream interpreter.
type TokenReader struct {
	S   *scanner.Scanner
	buf []scanner.Token
}

func (r *TokenReader) Next() (scanner.Token, error) {
	if l := len(r.buf); l > 0 {
		t := r.buf[l-1]
		r.buf = r.buf[:l-1]
		return t, nil
	}
	return r.S.Next()
}

func (r *TokenReader) Unread(tok scanner.Token) { r.buf = append(r.buf, tok) }

// ParseObject reads one complete object (scalar, array, or dictionary)
// from the token stream.
func ParseObject(tr *TokenReader) (Object, error) {
	tok, err := tr.Next()
	if err != nil {
		return nil, err
	}
	switch tok.Type {
	case scanner.TokenName:
		return NameObj{Val: tok.Value.(string)}, nil
	case scanner.TokenNumber:
		switch v := tok.Value.(type) {
		case int64:
			return NumberObj{I: v, IsInt: true}, nil
		case float64:
			return NumberObj{F: v}, nil
		}
	case scanner.TokenBoolean:
		return BoolObj{V: tok.Value.(bool)}, nil
	case scanner.TokenNull:
		return NullObj{}, nil
	case scanner.TokenString:
		b := copyBytes(tok.Value)
		if tok.Hex {
			return HexStringObj{Bytes: b}, nil
		}
		return StringObj{Bytes: b}, nil
	case scanner.TokenArray:
		return parseArray(tr)
	case scanner.TokenDict:
		return parseDict(tr)
	case scanner.TokenRef:
		rv := tok.Value.(scanner.RefValue)
		return RefObj{R: ObjectRef{Num: rv.Num, Gen: rv.Gen}}, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok.Type)
}

// ParseObjectBytes parses a single object from a standalone byte slice,
// as found inside object streams.
func ParseObjectBytes(data []byte) (Object, error) {
	tr := &TokenReader{S: scanner.New(data)}
	return ParseObject(tr)
}

func parseArray(tr *TokenReader) (Object, error) {
	arr := &ArrayObj{}
	for {
		tok, err := tr.Next()
		if err != nil {
			return nil, err
		}
		if tok.Type == scanner.TokenKeyword && tok.Value == "]" {
			return arr, nil
		}
		tr.Unread(tok)
		item, err := ParseObject(tr)
		if err != nil {
			return nil, err
		}
		arr.Append(item)
	}
}

func parseDict(tr *TokenReader) (Object, error) {
	d := Dict()
	for {
		tok, err := tr.Next()
		if err != nil {
			return nil, err
		}
		if tok.Type == scanner.TokenKeyword && tok.Value == ">>" {
			return d, nil
		}
		if tok.Type != scanner.TokenName {
			return nil, fmt.Errorf("expected name key in dictionary, got %v", tok.Type)
		}
		val, err := ParseObject(tr)
		if err != nil {
			return nil, err
		}
		d.Set(tok.Value.(string), val)
	}
}

func copyBytes(v interface{}) []byte {
	b, _ := v.([]byte)
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
