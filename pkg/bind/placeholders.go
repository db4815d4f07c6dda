// Copyright (C) 2025 ScyllaDB

// Package bind turns caller supplied parameters into positional protocol
// values for a statement.
//
// Statements use either positional markers (?) or named markers (:name),
// never both. Named markers are case-folded to lowercase and rewritten to
// positional ones, so the driver always receives positional values.
package bind

import (
	"strings"

	"github.com/scylladb/go-set/strset"
	"github.com/scylladb/scyllaquery/pkg/cqlerrors"
)

// Placeholders describes the bind markers of a statement.
type Placeholders struct {
	// Statement is the text to send, named markers replaced with '?'.
	Statement string
	// Positional is the number of '?' markers in the input text.
	Positional int
	// Names holds the lowercased named markers in order of appearance,
	// repeated names included.
	Names []string
}

// Count returns the number of values the statement takes.
func (p Placeholders) Count() int {
	return p.Positional + len(p.Names)
}

// IsNamed reports whether the statement uses named markers.
func (p Placeholders) IsNamed() bool {
	return len(p.Names) > 0
}

// UniqueNames returns the distinct named markers.
func (p Placeholders) UniqueNames() *strset.Set {
	return strset.New(p.Names...)
}

// Parse finds the bind markers of stmt. String literals, quoted
// identifiers, $$ blocks and comments are skipped. A named marker must
// follow whitespace, an opening bracket, a comma or an operator, so map and
// UDT literals such as {a:1} are left alone.
func Parse(stmt string) (Placeholders, error) {
	var (
		p  = Placeholders{}
		sb strings.Builder
		n  = len(stmt)
	)
	sb.Grow(n)

	for i := 0; i < n; i++ {
		c := stmt[i]
		switch {
		case c == '\'' || c == '"':
			end := skipQuoted(stmt, i, c)
			sb.WriteString(stmt[i:end])
			i = end - 1

		case c == '$' && i+1 < n && stmt[i+1] == '$':
			end := strings.Index(stmt[i+2:], "$$")
			if end < 0 {
				end = n
			} else {
				end += i + 4
			}
			sb.WriteString(stmt[i:end])
			i = end - 1

		case (c == '-' && i+1 < n && stmt[i+1] == '-') || (c == '/' && i+1 < n && stmt[i+1] == '/'):
			end := strings.IndexByte(stmt[i:], '\n')
			if end < 0 {
				end = n
			} else {
				end += i
			}
			sb.WriteString(stmt[i:end])
			i = end - 1

		case c == '/' && i+1 < n && stmt[i+1] == '*':
			end := strings.Index(stmt[i+2:], "*/")
			if end < 0 {
				end = n
			} else {
				end += i + 4
			}
			sb.WriteString(stmt[i:end])
			i = end - 1

		case c == '?':
			p.Positional++
			sb.WriteByte(c)

		case c == ':' && i+1 < n && isIdentStart(stmt[i+1]) && namedMarkerMayFollow(stmt, i):
			j := i + 1
			for j < n && isIdentPart(stmt[j]) {
				j++
			}
			p.Names = append(p.Names, strings.ToLower(stmt[i+1:j]))
			sb.WriteByte('?')
			i = j - 1

		default:
			sb.WriteByte(c)
		}
	}

	if p.Positional > 0 && len(p.Names) > 0 {
		return Placeholders{}, cqlerrors.Bindingf("statement mixes positional and named markers")
	}
	p.Statement = sb.String()
	return p, nil
}

// MustParse works like Parse but panics on error.
func MustParse(stmt string) Placeholders {
	p, err := Parse(stmt)
	if err != nil {
		panic(err)
	}
	return p
}

// skipQuoted returns the index just past the literal opened at stmt[start].
// A doubled quote character is an escaped quote.
func skipQuoted(stmt string, start int, quote byte) int {
	for i := start + 1; i < len(stmt); i++ {
		if stmt[i] != quote {
			continue
		}
		if i+1 < len(stmt) && stmt[i+1] == quote {
			i++
			continue
		}
		return i + 1
	}
	return len(stmt)
}

func namedMarkerMayFollow(stmt string, colon int) bool {
	if colon == 0 {
		return true
	}
	switch stmt[colon-1] {
	case ' ', '\t', '\n', '\r', '(', ',', '=', '<', '>', '[', '+', '-':
		return true
	default:
		return false
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
