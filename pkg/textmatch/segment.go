// Package textmatch implements the pure half of the scan pipeline: sentence
// segmentation, vocabulary matching, and density filtering. Nothing here
// touches a DOM; inputs are sentences and entries, outputs are candidate
// lists, which keeps the whole package unit-testable in isolation.
package textmatch

import (
	"strings"
	"unicode"
)

// Segment is one sentence unit. Start is the byte offset of the sentence
// inside the text it was split from; segments are contiguous and cover the
// input, so offsets map directly back.
type Segment struct {
	Text  string
	Start int
}

// asciiAbbreviations are words a trailing period does not terminate a
// sentence after.
var asciiAbbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "st": true,
	"vs": true, "etc": true, "e.g": true, "i.e": true, "no": true,
	"a.m": true, "p.m": true,
}

// Split segments mixed Chinese/English prose into ordered sentences on
// sentence-ending punctuation. Deterministic: the same input always yields
// the same boundaries, which matters because segment order is later paired
// positionally with translated-sentence order.
func Split(text string) []Segment {
	var out []Segment
	start := 0
	byteIdx := 0
	runes := []rune(text)

	for i, r := range runes {
		width := len(string(r))
		end := false
		switch r {
		case '。', '！', '？', '；', '\n':
			end = true
		case '!', '?':
			end = followedBySpaceOrEnd(runes, i)
		case '.':
			end = followedBySpaceOrEnd(runes, i) && !abbreviationBefore(runes, i) && !digitAround(runes, i)
		}
		byteIdx += width
		if end {
			out = append(out, Segment{Text: text[start:byteIdx], Start: start})
			start = byteIdx
		}
	}
	if start < len(text) {
		out = append(out, Segment{Text: text[start:], Start: start})
	}
	return out
}

// Sentences returns just the sentence strings, for callers that do not need
// offsets.
func Sentences(text string) []string {
	segs := Split(text)
	out := make([]string, len(segs))
	for i, s := range segs {
		out[i] = s.Text
	}
	return out
}

func followedBySpaceOrEnd(runes []rune, i int) bool {
	if i+1 >= len(runes) {
		return true
	}
	return unicode.IsSpace(runes[i+1])
}

func digitAround(runes []rune, i int) bool {
	if i > 0 && unicode.IsDigit(runes[i-1]) {
		return true
	}
	return i+1 < len(runes) && unicode.IsDigit(runes[i+1])
}

// abbreviationBefore checks the word ending at the period against the
// abbreviation list, dotted forms included ("e.g.").
func abbreviationBefore(runes []rune, i int) bool {
	j := i
	for j > 0 {
		p := runes[j-1]
		if unicode.IsLetter(p) || p == '.' && j < i {
			j--
			continue
		}
		break
	}
	word := strings.ToLower(strings.TrimSuffix(string(runes[j:i]), "."))
	if word == "" {
		return false
	}
	if asciiAbbreviations[word] {
		return true
	}
	// A single capital letter reads as an initialism ("U.S.", "J. Smith").
	return len([]rune(word)) == 1 && unicode.IsUpper(runes[i-1])
}
