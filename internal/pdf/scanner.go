package pdf

import (
	"encoding/hex"
	"strconv"
)

// contentOperator is a bare keyword of a content stream, such as Tj.
type contentOperator string

// contentName is a /Name operand.
type contentName string

// contentValue stands for operands that text layout ignores: booleans,
// null and inline dictionaries.
type contentValue struct{}

// contentScanner tokenizes a decoded content stream. Operands come back
// as float64, []byte for strings, []any for arrays, contentName or
// contentValue.
type contentScanner struct {
	data []byte
	pos  int
}

func (s *contentScanner) next() (any, bool) {
	for {
		s.skipSpace()
		if s.pos >= len(s.data) {
			return nil, false
		}

		switch c := s.data[s.pos]; c {
		case '%':
			for s.pos < len(s.data) && s.data[s.pos] != '\n' && s.data[s.pos] != '\r' {
				s.pos++
			}
		case '(':
			return s.literal(), true
		case '<':
			if s.pos+1 < len(s.data) && s.data[s.pos+1] == '<' {
				s.skipDict()
				return contentValue{}, true
			}
			return s.hexString(), true
		case '[':
			s.pos++
			return s.array(), true
		case '/':
			s.pos++
			return contentName(s.word()), true
		case ')', '>', ']', '{', '}':
			s.pos++
		default:
			word := s.word()
			if word == "" {
				s.pos++
				continue
			}
			if v, err := strconv.ParseFloat(word, 64); err == nil {
				return v, true
			}
			switch word {
			case "true", "false", "null":
				return contentValue{}, true
			}
			return contentOperator(word), true
		}
	}
}

func (s *contentScanner) array() []any {
	var arr []any
	for {
		s.skipSpace()
		if s.pos >= len(s.data) {
			return arr
		}
		if s.data[s.pos] == ']' {
			s.pos++
			return arr
		}
		tok, ok := s.next()
		if !ok {
			return arr
		}
		arr = append(arr, tok)
	}
}

// literal reads a parenthesized string with its escapes resolved.
func (s *contentScanner) literal() []byte {
	s.pos++ // (
	var out []byte
	depth := 1
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return out
			}
		case '\\':
			out = s.escape(out)
			continue
		}
		out = append(out, c)
	}
	return out
}

func (s *contentScanner) escape(out []byte) []byte {
	if s.pos >= len(s.data) {
		return out
	}
	c := s.data[s.pos]
	s.pos++
	switch c {
	case 'n':
		return append(out, '\n')
	case 'r':
		return append(out, '\r')
	case 't':
		return append(out, '\t')
	case 'b':
		return append(out, '\b')
	case 'f':
		return append(out, '\f')
	case '\r':
		if s.pos < len(s.data) && s.data[s.pos] == '\n' {
			s.pos++
		}
		return out
	case '\n':
		return out
	}
	if c >= '0' && c <= '7' {
		v := int(c - '0')
		for range 2 {
			if s.pos >= len(s.data) || s.data[s.pos] < '0' || s.data[s.pos] > '7' {
				break
			}
			v = v*8 + int(s.data[s.pos]-'0')
			s.pos++
		}
		return append(out, byte(v))
	}
	return append(out, c)
}

func (s *contentScanner) hexString() []byte {
	s.pos++ // <
	var digits []byte
	for s.pos < len(s.data) && s.data[s.pos] != '>' {
		if c := s.data[s.pos]; isHexDigit(c) {
			digits = append(digits, c)
		}
		s.pos++
	}
	s.pos++ // >
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, hex.DecodedLen(len(digits)))
	n, _ := hex.Decode(out, digits)
	return out[:n]
}

// skipDict moves past a << >> dictionary, nested ones included.
func (s *contentScanner) skipDict() {
	depth := 0
	for s.pos < len(s.data) {
		switch {
		case s.data[s.pos] == '(':
			s.literal()
			continue
		case s.hasPrefix("<<"):
			depth++
			s.pos += 2
		case s.hasPrefix(">>"):
			depth--
			s.pos += 2
			if depth == 0 {
				return
			}
		default:
			s.pos++
		}
	}
}

// skipInlineImage moves past the binary data that follows an ID operator.
func (s *contentScanner) skipInlineImage() {
	for s.pos+2 <= len(s.data) {
		if s.hasPrefix("EI") && isSpace(s.data[s.pos-1]) &&
			(s.pos+2 == len(s.data) || isSpace(s.data[s.pos+2])) {
			s.pos += 2
			return
		}
		s.pos++
	}
	s.pos = len(s.data)
}

func (s *contentScanner) word() string {
	start := s.pos
	for s.pos < len(s.data) && !isSpace(s.data[s.pos]) && !isDelimiter(s.data[s.pos]) {
		s.pos++
	}
	return string(s.data[start:s.pos])
}

func (s *contentScanner) skipSpace() {
	for s.pos < len(s.data) && isSpace(s.data[s.pos]) {
		s.pos++
	}
}

func (s *contentScanner) hasPrefix(p string) bool {
	return len(s.data)-s.pos >= len(p) && string(s.data[s.pos:s.pos+len(p)]) == p
}

func isSpace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
