package textmatch

import (
	"sort"
	"strings"

	"github.com/leafbridge/wordvine/pkg/vocab"
)

// Candidate is one proposed replacement: a vocabulary entry occurrence at
// [Start, End) byte offsets into the scanned block's text. Produced by the
// matcher, filtered, then spliced within one flush cycle; never persisted.
type Candidate struct {
	Start              int
	End                int
	Entry              *vocab.Entry
	Surface            string
	SourceSentence     string
	TranslatedSentence string
}

// Match sides, mirroring config.MatchBy values without importing config.
const (
	MatchByText        = "text"
	MatchByTranslation = "translation"
)

// FindMatches reports every non-overlapping literal occurrence of each
// entry's chosen surface inside the sentence. offset shifts the reported
// positions from sentence-local to block-absolute. Entries whose surface is
// empty never match.
func FindMatches(sentence string, offset int, vocabulary []*vocab.Entry, translation, matchBy string) []Candidate {
	var out []Candidate
	for _, entry := range vocabulary {
		needle := entry.Text
		if matchBy == MatchByTranslation {
			needle = entry.Translation
		}
		if needle == "" {
			continue
		}
		for _, pos := range literalOccurrences(sentence, needle) {
			out = append(out, Candidate{
				Start:              offset + pos,
				End:                offset + pos + len(needle),
				Entry:              entry,
				Surface:            sentence[pos : pos+len(needle)],
				SourceSentence:     sentence,
				TranslatedSentence: translation,
			})
		}
	}
	return out
}

// RichLookup is the structured payload of one rich dictionary lookup,
// reduced to the surface forms aggressive matching searches for.
type RichLookup struct {
	Word  string   `json:"word"`
	Forms []string `json:"forms"`
}

// AggressiveGate reports whether an entry qualifies for the aggressive path:
// its lemma must appear, case-insensitively after normalization, inside the
// translated sentence. With a lemmatizer present the sentence's base forms
// are checked too, covering inflected Japanese surfaces.
func AggressiveGate(entry *vocab.Entry, translation string, lz *Lemmatizer) bool {
	lemma := strings.ToLower(strings.TrimSpace(entry.Text))
	if lemma == "" || translation == "" {
		return false
	}
	if strings.Contains(strings.ToLower(translation), lemma) {
		return true
	}
	if lz != nil {
		for _, base := range lz.BaseForms(translation) {
			if strings.ToLower(base) == lemma {
				return true
			}
		}
	}
	return false
}

// FindAggressiveMatches searches the sentence for any of the rich lookup's
// surface forms of the candidate entry. Each occurrence is attributed to the
// entry with the exact matched surface preserved.
func FindAggressiveMatches(sentence string, offset int, entry *vocab.Entry, lookup *RichLookup, translation string) []Candidate {
	if lookup == nil {
		return nil
	}
	var out []Candidate
	for _, form := range lookup.Forms {
		if form == "" || form == entry.Text {
			continue
		}
		for _, pos := range literalOccurrences(sentence, form) {
			out = append(out, Candidate{
				Start:              offset + pos,
				End:                offset + pos + len(form),
				Entry:              entry,
				Surface:            sentence[pos : pos+len(form)],
				SourceSentence:     sentence,
				TranslatedSentence: translation,
			})
		}
	}
	return out
}

func literalOccurrences(haystack, needle string) []int {
	var out []int
	from := 0
	for {
		idx := strings.Index(haystack[from:], needle)
		if idx < 0 {
			return out
		}
		out = append(out, from+idx)
		from += idx + len(needle)
	}
}

// ResolveOverlaps sorts candidates ascending by start (stable, so
// accumulation order decides between equal starts) and drops any candidate
// overlapping an earlier kept one: first wins, left to right.
func ResolveOverlaps(cands []Candidate) []Candidate {
	sorted := make([]Candidate, len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	out := sorted[:0]
	prevEnd := -1
	for _, c := range sorted {
		if c.Start < prevEnd {
			continue
		}
		out = append(out, c)
		prevEnd = c.End
	}
	return out
}
