package textmatch

import (
	"sort"

	"github.com/leafbridge/wordvine/pkg/vocab"
)

// DensityRule caps replacements for one category within one scanned block.
type DensityRule struct {
	Mode  string // "count" or "percent"; anything else means no cap
	Value int
}

const (
	DensityCount   = "count"
	DensityPercent = "percent"
)

// FilterByDensity applies the per-category caps. For "count" the N
// earliest-by-position candidates of the category survive; for "percent"
// ceil(total*value/100) of them do. Categories without a rule keep all
// candidates. Output preserves the input order and is NOT re-sorted; the
// caller re-sorts before compositing.
func FilterByDensity(cands []Candidate, rules map[vocab.Category]DensityRule) []Candidate {
	byCategory := make(map[vocab.Category][]int)
	for i, c := range cands {
		cat := c.Entry.Category
		byCategory[cat] = append(byCategory[cat], i)
	}

	keep := make([]bool, len(cands))
	for cat, idxs := range byCategory {
		rule, ok := rules[cat]
		if !ok || (rule.Mode != DensityCount && rule.Mode != DensityPercent) {
			for _, i := range idxs {
				keep[i] = true
			}
			continue
		}

		limit := rule.Value
		if rule.Mode == DensityPercent {
			limit = (len(idxs)*rule.Value + 99) / 100
		}

		// Earliest by position, not by accumulation order.
		ordered := make([]int, len(idxs))
		copy(ordered, idxs)
		sort.SliceStable(ordered, func(a, b int) bool {
			return cands[ordered[a]].Start < cands[ordered[b]].Start
		})
		for n, i := range ordered {
			if n >= limit {
				break
			}
			keep[i] = true
		}
	}

	out := make([]Candidate, 0, len(cands))
	for i, c := range cands {
		if keep[i] {
			out = append(out, c)
		}
	}
	return out
}
