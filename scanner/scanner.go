// Package scanner tokenizes PDF syntax: objects, names, strings, numbers,
// indirect references, and stream payloads. It operates over a fully
// buffered document, which keeps seeking trivial for the linear parser.
package scanner

import (
	"bytes"
	"errors"
	"io"
	"strconv"
)

type TokenType int

const (
	TokenDict    TokenType = iota // '<<'
	TokenArray                    // '['
	TokenName                     // '/Name'
	TokenString                   // literal or hex string
	TokenNumber                   // integer or real
	TokenBoolean                  // true / false
	TokenNull                     // null
	TokenRef                      // indirect reference 'N G R'
	TokenStream                   // stream payload following the 'stream' keyword
	TokenKeyword                  // obj, endobj, '>>', ']', operators, ...
)

// Token is one lexical unit. Value holds a string for names and keywords,
// []byte for strings and stream payloads, int64 or float64 for numbers,
// bool for booleans, and RefValue for references.
type Token struct {
	Type  TokenType
	Value interface{}
	Pos   int64
	Hex   bool // set for hex strings
}

// RefValue is the payload of a TokenRef.
type RefValue struct {
	Num, Gen int
}

type Scanner struct {
	data          []byte
	pos           int64
	nextStreamLen int64
}

// New builds a scanner over the full document bytes.
func New(data []byte) *Scanner {
	return &Scanner{data: data, nextStreamLen: -1}
}

func (s *Scanner) Position() int64 { return s.pos }

// SeekTo repositions the scanner at an absolute byte offset.
func (s *Scanner) SeekTo(offset int64) error {
	if offset < 0 || offset > int64(len(s.data)) {
		return errors.New("scanner: seek out of range")
	}
	s.pos = offset
	return nil
}

// SetNextStreamLength hints the byte length of the next stream payload,
// taken from the stream dictionary's /Length when it is a direct integer.
func (s *Scanner) SetNextStreamLength(n int64) { s.nextStreamLen = n }

// Next returns the next token or io.EOF.
func (s *Scanner) Next() (Token, error) {
	s.skipWhitespaceAndComments()
	if s.pos >= int64(len(s.data)) {
		return Token{}, io.EOF
	}
	start := s.pos
	c := s.data[s.pos]
	switch {
	case c == '<':
		if s.peek(1) == '<' {
			s.pos += 2
			return Token{Type: TokenDict, Value: "<<", Pos: start}, nil
		}
		return s.scanHexString()
	case c == '>':
		if s.peek(1) == '>' {
			s.pos += 2
			return Token{Type: TokenKeyword, Value: ">>", Pos: start}, nil
		}
		s.pos++
		return Token{Type: TokenKeyword, Value: ">", Pos: start}, nil
	case c == '[':
		s.pos++
		return Token{Type: TokenArray, Value: "[", Pos: start}, nil
	case c == ']':
		s.pos++
		return Token{Type: TokenKeyword, Value: "]", Pos: start}, nil
	case c == '(':
		return s.scanLiteralString()
	case c == '/':
		return s.scanName()
	case isNumberStart(c):
		return s.scanNumberOrRef()
	default:
		return s.scanKeyword()
	}
}

func (s *Scanner) peek(ahead int64) byte {
	if s.pos+ahead >= int64(len(s.data)) {
		return 0
	}
	return s.data[s.pos+ahead]
}

func (s *Scanner) skipWhitespaceAndComments() {
	for s.pos < int64(len(s.data)) {
		c := s.data[s.pos]
		if isWhitespace(c) {
			s.pos++
			continue
		}
		if c == '%' {
			for s.pos < int64(len(s.data)) && !isEOL(s.data[s.pos]) {
				s.pos++
			}
			continue
		}
		return
	}
}

func (s *Scanner) scanName() (Token, error) {
	start := s.pos
	s.pos++ // leading '/'
	var out []byte
	for s.pos < int64(len(s.data)) {
		c := s.data[s.pos]
		if isWhitespace(c) || isDelimiter(c) {
			break
		}
		if c == '#' && s.pos+2 < int64(len(s.data)) {
			hi, okHi := fromHex(s.data[s.pos+1])
			lo, okLo := fromHex(s.data[s.pos+2])
			if okHi && okLo {
				out = append(out, hi<<4|lo)
				s.pos += 3
				continue
			}
		}
		out = append(out, c)
		s.pos++
	}
	return Token{Type: TokenName, Value: string(out), Pos: start}, nil
}

func (s *Scanner) scanLiteralString() (Token, error) {
	start := s.pos
	s.pos++ // '('
	var out []byte
	depth := 1
	for s.pos < int64(len(s.data)) {
		c := s.data[s.pos]
		switch c {
		case '\\':
			s.pos++
			if s.pos >= int64(len(s.data)) {
				return Token{}, errors.New("scanner: unterminated string escape")
			}
			e := s.data[s.pos]
			switch {
			case e >= '0' && e <= '7':
				val := int(e - '0')
				s.pos++
				for i := 0; i < 2 && s.pos < int64(len(s.data)); i++ {
					d := s.data[s.pos]
					if d < '0' || d > '7' {
						break
					}
					val = val*8 + int(d-'0')
					s.pos++
				}
				out = append(out, byte(val))
				continue
			case e == '\n':
				s.pos++
				continue
			case e == '\r':
				s.pos++
				if s.pos < int64(len(s.data)) && s.data[s.pos] == '\n' {
					s.pos++
				}
				continue
			default:
				out = append(out, translateEscape(e))
				s.pos++
				continue
			}
		case '(':
			depth++
			out = append(out, c)
		case ')':
			depth--
			if depth == 0 {
				s.pos++
				return Token{Type: TokenString, Value: out, Pos: start}, nil
			}
			out = append(out, c)
		default:
			out = append(out, c)
		}
		s.pos++
	}
	return Token{}, errors.New("scanner: unterminated literal string")
}

func translateEscape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	default:
		return c
	}
}

func (s *Scanner) scanHexString() (Token, error) {
	start := s.pos
	s.pos++ // '<'
	var nibbles []byte
	for s.pos < int64(len(s.data)) {
		c := s.data[s.pos]
		if c == '>' {
			s.pos++
			if len(nibbles)%2 == 1 {
				nibbles = append(nibbles, 0)
			}
			out := make([]byte, len(nibbles)/2)
			for i := range out {
				out[i] = nibbles[2*i]<<4 | nibbles[2*i+1]
			}
			return Token{Type: TokenString, Value: out, Pos: start, Hex: true}, nil
		}
		if v, ok := fromHex(c); ok {
			nibbles = append(nibbles, v)
		} else if !isWhitespace(c) {
			return Token{}, errors.New("scanner: invalid hex string character")
		}
		s.pos++
	}
	return Token{}, errors.New("scanner: unterminated hex string")
}

func (s *Scanner) scanNumberOrRef() (Token, error) {
	start := s.pos
	text := s.scanNumberText()
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		// An unsigned integer may start an indirect reference 'N G R'.
		if i >= 0 && text[0] != '+' {
			if gen, ok := s.tryRefSuffix(); ok {
				return Token{Type: TokenRef, Value: RefValue{Num: int(i), Gen: gen}, Pos: start}, nil
			}
		}
		return Token{Type: TokenNumber, Value: i, Pos: start}, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Token{}, errors.New("scanner: malformed number " + strconv.Quote(text))
	}
	return Token{Type: TokenNumber, Value: f, Pos: start}, nil
}

func (s *Scanner) scanNumberText() string {
	start := s.pos
	if c := s.data[s.pos]; c == '+' || c == '-' {
		s.pos++
	}
	for s.pos < int64(len(s.data)) {
		c := s.data[s.pos]
		if (c >= '0' && c <= '9') || c == '.' {
			s.pos++
			continue
		}
		break
	}
	return string(s.data[start:s.pos])
}

// tryRefSuffix consumes ' G R' after an integer when it forms an indirect
// reference, leaving the position untouched otherwise.
func (s *Scanner) tryRefSuffix() (int, bool) {
	save := s.pos
	s.skipWhitespaceAndComments()
	genStart := s.pos
	for s.pos < int64(len(s.data)) && s.data[s.pos] >= '0' && s.data[s.pos] <= '9' {
		s.pos++
	}
	if s.pos == genStart {
		s.pos = save
		return 0, false
	}
	gen, err := strconv.Atoi(string(s.data[genStart:s.pos]))
	if err != nil {
		s.pos = save
		return 0, false
	}
	s.skipWhitespaceAndComments()
	if s.pos < int64(len(s.data)) && s.data[s.pos] == 'R' {
		next := s.peek(1)
		if next == 0 || isWhitespace(next) || isDelimiter(next) {
			s.pos++
			return gen, true
		}
	}
	s.pos = save
	return 0, false
}

func (s *Scanner) scanKeyword() (Token, error) {
	start := s.pos
	for s.pos < int64(len(s.data)) {
		c := s.data[s.pos]
		if isWhitespace(c) || isDelimiter(c) {
			break
		}
		s.pos++
	}
	if s.pos == start {
		s.pos++ // skip a stray delimiter byte rather than looping forever
		return Token{Type: TokenKeyword, Value: string(s.data[start:s.pos]), Pos: start}, nil
	}
	word := string(s.data[start:s.pos])
	switch word {
	case "true":
		return Token{Type: TokenBoolean, Value: true, Pos: start}, nil
	case "false":
		return Token{Type: TokenBoolean, Value: false, Pos: start}, nil
	case "null":
		return Token{Type: TokenNull, Value: nil, Pos: start}, nil
	case "stream":
		return s.scanStream(start)
	}
	return Token{Type: TokenKeyword, Value: word, Pos: start}, nil
}

var endstreamMarker = []byte("endstream")

func (s *Scanner) scanStream(start int64) (Token, error) {
	// The keyword is followed by CRLF or LF, then the payload.
	if s.pos < int64(len(s.data)) && s.data[s.pos] == '\r' {
		s.pos++
	}
	if s.pos < int64(len(s.data)) && s.data[s.pos] == '\n' {
		s.pos++
	}
	dataStart := s.pos
	length := s.nextStreamLen
	s.nextStreamLen = -1

	if length >= 0 && dataStart+length <= int64(len(s.data)) {
		tail := s.data[dataStart+length:]
		trimmed := bytes.TrimLeft(tail, "\r\n \t")
		if bytes.HasPrefix(trimmed, endstreamMarker) {
			payload := s.data[dataStart : dataStart+length]
			s.pos = dataStart + length + int64(len(tail)-len(trimmed)) + int64(len(endstreamMarker))
			return Token{Type: TokenStream, Value: payload, Pos: start}, nil
		}
	}

	// No usable length hint: locate the endstream keyword instead.
	idx := bytes.Index(s.data[dataStart:], endstreamMarker)
	if idx < 0 {
		return Token{}, errors.New("scanner: endstream not found")
	}
	payload := s.data[dataStart : dataStart+int64(idx)]
	payload = bytes.TrimRight(payload, "\r\n")
	s.pos = dataStart + int64(idx) + int64(len(endstreamMarker))
	return Token{Type: TokenStream, Value: payload, Pos: start}, nil
}

func isWhitespace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isEOL(c byte) bool { return c == '\r' || c == '\n' }

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isNumberStart(c byte) bool {
	return c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9')
}

func fromHex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}
