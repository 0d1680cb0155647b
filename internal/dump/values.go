// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dump reads the GO association database MySQL dump: extended
// INSERT statements are split into row tuples, projected per table and
// streamed into a Sink.
package dump

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed is matched by every ParseError.
var ErrMalformed = errors.New("malformed dump input")

// ParseError reports a syntax error in a VALUES clause.
type ParseError struct {
	Offset int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Reason)
}

func (e *ParseError) Is(target error) bool { return target == ErrMalformed }

// ParseValues splits a VALUES clause such as
//
//	(1,'a,b\'c',3),(4,'d',5);
//
// into row tuples. Single-quoted strings may contain commas, parentheses
// and backslash escapes; quotes are removed and escapes decoded. Unquoted
// values (numbers, NULL) are kept verbatim. Whitespace may surround a
// field but not split it, and nothing but whitespace may follow a closing
// quote before the next ',' or ')'. Scanning stops at the terminating ';'.
func ParseValues(s string) ([][]string, error) {
	var (
		rows    [][]string
		fields  []string
		buf     strings.Builder
		inTuple bool
		inQuote bool
		started bool // current field has content or quotes
		closed  bool // current field is complete; only ',' or ')' may follow
		needSep bool // a tuple just closed; expect ',' or ';'
		quoteAt int
		tupleAt int
	)

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inQuote {
			switch c {
			case '\\':
				if i+1 >= len(s) {
					return nil, &ParseError{Offset: quoteAt, Reason: "unterminated quoted field"}
				}
				i++
				buf.WriteByte(unescape(s[i]))
			case '\'':
				if i+1 < len(s) && s[i+1] == '\'' {
					buf.WriteByte('\'')
					i++
					continue
				}
				inQuote, closed = false, true
			default:
				buf.WriteByte(c)
			}
			continue
		}

		if isSpace(c) {
			if inTuple && started {
				closed = true
			}
			continue
		}

		if !inTuple {
			switch {
			case c == ';':
				return rows, nil
			case c == ',' && needSep:
				needSep = false
			case c == '(' && !needSep:
				inTuple, started = true, false
				fields = nil
				buf.Reset()
				tupleAt = i
			default:
				return nil, &ParseError{Offset: i, Reason: fmt.Sprintf("unexpected %q between tuples", c)}
			}
			continue
		}

		switch c {
		case '\'':
			if started {
				return nil, &ParseError{Offset: i, Reason: "unexpected quote inside field"}
			}
			inQuote, started = true, true
			quoteAt = i
		case ',':
			fields = append(fields, buf.String())
			buf.Reset()
			started, closed = false, false
		case ')':
			if len(fields) == 0 && !started {
				return nil, &ParseError{Offset: tupleAt, Reason: "tuple has no fields"}
			}
			fields = append(fields, buf.String())
			buf.Reset()
			rows = append(rows, fields)
			fields = nil
			inTuple, needSep = false, true
			started, closed = false, false
		default:
			if closed {
				return nil, &ParseError{Offset: i, Reason: fmt.Sprintf("unexpected %q after field", c)}
			}
			buf.WriteByte(c)
			started = true
		}
	}

	if inQuote {
		return nil, &ParseError{Offset: quoteAt, Reason: "unterminated quoted field"}
	}
	if inTuple {
		return nil, &ParseError{Offset: tupleAt, Reason: "unterminated tuple"}
	}
	return rows, nil
}

// unescape decodes the character following a backslash in a MySQL string
// literal.
func unescape(c byte) byte {
	switch c {
	case '0':
		return 0
	case 'b':
		return '\b'
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'Z':
		return 0x1a
	}
	return c
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
