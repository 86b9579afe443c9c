package repo

import (
	"fmt"
	"sort"
	"strings"
)

// Cond is one typed predicate. Conditions are combined with AND; the
// placeholder numbering is assigned when the clause is rendered.
type Cond struct {
	col string
	op  string
	val any
}

// Filter is an ordered conjunction of conditions.
type Filter []Cond

func Eq(col string, v any) Cond { return Cond{col: col, op: "=", val: v} }

func NotEq(col string, v any) Cond { return Cond{col: col, op: "<>", val: v} }

func Like(col, pattern string) Cond { return Cond{col: col, op: "like", val: pattern} }

func Null(col string) Cond { return Cond{col: col, op: "is null"} }

func NotNull(col string) Cond { return Cond{col: col, op: "is not null"} }

func (f Filter) touches(col string) bool {
	for _, c := range f {
		if c.col == col {
			return true
		}
	}
	return false
}

// clause renders the filter as a where fragment starting at placeholder idx.
// Returns the fragment (without the "where" keyword), the argument list and
// the next free placeholder index.
func (f Filter) clause(idx int) (string, []any, int) {
	if len(f) == 0 {
		return "", nil, idx
	}
	parts := make([]string, 0, len(f))
	var args []any
	for _, c := range f {
		switch c.op {
		case "is null", "is not null":
			parts = append(parts, fmt.Sprintf("%s %s", c.col, c.op))
		default:
			parts = append(parts, fmt.Sprintf("%s %s $%d", c.col, c.op, idx))
			args = append(args, c.val)
			idx++
		}
	}
	return strings.Join(parts, " and "), args, idx
}

// Fields carries column values for inserts and updates. Keys are rendered in
// sorted order so generated SQL is deterministic.
type Fields map[string]any

func (f Fields) sortedKeys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
