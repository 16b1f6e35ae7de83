// Package mapping implements the generic JSON-to-entry generation engine:
// given an arbitrary nested JSON document from a dictionary API and a
// user-defined set of path→field mapping rules plus list fan-out markers, it
// produces flattened vocabulary entries via a context-inheriting traversal.
package mapping

import (
	"strings"

	"github.com/leafbridge/wordvine/pkg/vocab"
)

// Rule maps one normalized tree path to one output field.
//
// Weight breaks ties when several rules target the same field for the same
// entry: lower weight wins. Base marks the rule as document-global; its value
// applies to every entry generated from the document regardless of which list
// branch produced the entry.
type Rule struct {
	Path   string       `json:"path"`
	Field  vocab.FieldID `json:"field"`
	Weight int          `json:"weight"`
	Base   bool         `json:"base,omitempty"`
}

// ListMarker declares that the value at Path fans out: one output entry per
// element (a bare object is treated as a single-element list).
type ListMarker struct {
	Path string `json:"path"`
}

// RuleSet is the persisted unit: all rules and markers for one source URL
// template. Stored and reloaded whenever that template becomes active.
type RuleSet struct {
	SourceURLTemplate string       `json:"source_url_template"`
	Mappings          []Rule       `json:"mappings"`
	Lists             []ListMarker `json:"lists"`
}

// NormalizePath strips every pure numeric segment from a dot-separated tree
// path, so a rule written against one array element applies to all of them:
// "root.items.3.name" → "root.items.name". Idempotent and total.
func NormalizePath(path string) string {
	if path == "" {
		return ""
	}
	segs := strings.Split(path, ".")
	out := segs[:0]
	for _, s := range segs {
		if s != "" && isDigits(s) {
			continue
		}
		out = append(out, s)
	}
	return strings.Join(out, ".")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// joinPath appends a key to a normalized path prefix.
func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
