package fieldspec

import (
	"fmt"
	"strings"
	"unicode"
)

// parseLenient is the fallback scanner behind Parse. It accepts the strict
// grammar plus single-quoted strings, unquoted object keys, bare scalar
// values, and trailing commas inside arrays and objects. It never recurses
// into nested structures: field values are flat scalars.
func parseLenient(input string) ([]FieldSpec, error) {
	s := &scanner{src: input}
	s.skipSpace()
	if !s.consume('[') {
		return nil, fmt.Errorf("expected '[' at offset %d", s.pos)
	}
	var specs []FieldSpec
	for {
		s.skipSpace()
		if s.consume(']') {
			break
		}
		obj, err := s.object()
		if err != nil {
			return nil, err
		}
		specs = append(specs, specFromMap(obj))
		s.skipSpace()
		if s.consume(',') {
			continue
		}
		if s.consume(']') {
			break
		}
		return nil, fmt.Errorf("expected ',' or ']' at offset %d", s.pos)
	}
	s.skipSpace()
	if !s.done() {
		return nil, fmt.Errorf("trailing input at offset %d", s.pos)
	}
	return specs, nil
}

func specFromMap(m map[string]string) FieldSpec {
	return FieldSpec{
		Label:       m["label"],
		Type:        Type(m["type"]),
		Placeholder: m["placeholder"],
		Default:     m["default"],
	}
}

type scanner struct {
	src string
	pos int
}

func (s *scanner) done() bool { return s.pos >= len(s.src) }

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) && unicode.IsSpace(rune(s.src[s.pos])) {
		s.pos++
	}
}

func (s *scanner) consume(c byte) bool {
	if s.pos < len(s.src) && s.src[s.pos] == c {
		s.pos++
		return true
	}
	return false
}

func (s *scanner) object() (map[string]string, error) {
	s.skipSpace()
	if !s.consume('{') {
		return nil, fmt.Errorf("expected '{' at offset %d", s.pos)
	}
	obj := make(map[string]string)
	for {
		s.skipSpace()
		if s.consume('}') {
			return obj, nil
		}
		key, err := s.stringOrIdent()
		if err != nil {
			return nil, err
		}
		s.skipSpace()
		if !s.consume(':') {
			return nil, fmt.Errorf("expected ':' after key %q at offset %d", key, s.pos)
		}
		s.skipSpace()
		val, err := s.scalar()
		if err != nil {
			return nil, err
		}
		obj[key] = val
		s.skipSpace()
		if s.consume(',') {
			continue
		}
		if s.consume('}') {
			return obj, nil
		}
		return nil, fmt.Errorf("expected ',' or '}' at offset %d", s.pos)
	}
}

// stringOrIdent reads a quoted string (single or double quotes) or a bare
// identifier-like token.
func (s *scanner) stringOrIdent() (string, error) {
	if s.done() {
		return "", fmt.Errorf("unexpected end of input at offset %d", s.pos)
	}
	switch s.src[s.pos] {
	case '"', '\'':
		return s.quoted()
	}
	start := s.pos
	for s.pos < len(s.src) && isBare(s.src[s.pos]) {
		s.pos++
	}
	if s.pos == start {
		return "", fmt.Errorf("unexpected character %q at offset %d", s.src[s.pos], s.pos)
	}
	return s.src[start:s.pos], nil
}

// scalar reads a flat value. Bare tokens (numbers, booleans, words) are kept
// as their literal text since every field attribute is a string here.
func (s *scanner) scalar() (string, error) {
	if !s.done() {
		switch s.src[s.pos] {
		case '{', '[':
			return "", fmt.Errorf("nested value at offset %d", s.pos)
		}
	}
	return s.stringOrIdent()
}

func (s *scanner) quoted() (string, error) {
	quote := s.src[s.pos]
	s.pos++
	var b strings.Builder
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch c {
		case quote:
			s.pos++
			return b.String(), nil
		case '\\':
			s.pos++
			if s.done() {
				return "", fmt.Errorf("unterminated escape at offset %d", s.pos)
			}
			esc := s.src[s.pos]
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(esc)
			}
			s.pos++
		default:
			b.WriteByte(c)
			s.pos++
		}
	}
	return "", fmt.Errorf("unterminated string at offset %d", s.pos)
}

func isBare(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_', c == '-', c == '.', c == '$':
		return true
	}
	return false
}
