// Copyright (C) 2025 ScyllaDB

package statement

// Params are the values supplied when executing a statement.
type Params interface {
	Len() int
	isParams()
}

// Args are values for positional markers, in marker order.
type Args []any

func (a Args) Len() int { return len(a) }

func (Args) isParams() {}

// NamedArgs are values for named markers. Keys match marker names
// case-insensitively.
type NamedArgs map[string]any

func (a NamedArgs) Len() int { return len(a) }

func (NamedArgs) isParams() {}

// IsEmpty reports whether p carries no values.
func IsEmpty(p Params) bool {
	return p == nil || p.Len() == 0
}
