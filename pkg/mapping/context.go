package mapping

import (
	"sort"

	"github.com/leafbridge/wordvine/pkg/vocab"
)

// Candidate is one value observed for a field during traversal, together
// with the weight of the rule that captured it.
type Candidate struct {
	Value  any
	Weight int
}

// Context accumulates per-field candidates along the path from the document
// root to the current node. It is inherited by value copy at every branch
// point: a child's additions must never be visible to a sibling branch, so
// callers clone before mutating.
type Context map[vocab.FieldID][]Candidate

// Clone returns a deep-enough copy: the map and each candidate slice are
// fresh, so appends on the clone never alias the original.
func (c Context) Clone() Context {
	out := make(Context, len(c))
	for field, cands := range c {
		cp := make([]Candidate, len(cands))
		copy(cp, cands)
		out[field] = cp
	}
	return out
}

// add appends a candidate for field, preserving accumulation order.
func (c Context) add(field vocab.FieldID, value any, weight int) {
	c[field] = append(c[field], Candidate{Value: value, Weight: weight})
}

// collect scans the direct children of node (a non-array JSON object) for
// non-base rules whose normalized path equals the child's, folding matched
// values into ctx. It mutates ctx in place so multiple calls at different
// depths accumulate; it never recurses.
func collect(node map[string]any, pathPrefix string, rules []Rule, ctx Context) {
	for _, key := range sortedKeys(node) {
		value := node[key]
		childPath := NormalizePath(joinPath(pathPrefix, key))
		for _, r := range rules {
			if r.Base {
				continue
			}
			if r.Path == childPath {
				ctx.add(r.Field, value, r.Weight)
			}
		}
	}
}

// sortedKeys gives a stable visit order; Go map iteration is randomized and
// the positional tie-break between equal-weight candidates must be
// deterministic.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
