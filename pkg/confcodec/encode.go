// Package confcodec implements the plain-text configuration format: a
// YAML-like, commented, line-oriented encoding with a hand-rolled
// indentation-driven parser. Every string scalar is emitted as a fully
// escaped quoted literal, so embedded newlines, quotes and '#' never corrupt
// the structure, and parse(Marshal(x)) deep-equals x for trees built from
// strings, ints, float64s, bools, nil, []any and map[string]any.
package confcodec

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Encoder serializes a configuration tree. SectionOrder fixes the emission
// order of top-level sections; sections not listed are appended in sorted
// order so arbitrary trees still round-trip. Comments maps a dotted key path
// ("scan.min_block_chars") to a one-line description emitted above the key.
type Encoder struct {
	SectionOrder []string
	Comments     map[string]string
}

// Marshal renders the tree to the text format. It cannot fail: unsupported
// value kinds are rendered through their quoted string form.
func (e *Encoder) Marshal(doc map[string]any) []byte {
	var b strings.Builder
	for _, key := range e.topLevelOrder(doc) {
		e.encodeKey(&b, key, key, doc[key], 0)
	}
	return []byte(b.String())
}

func (e *Encoder) topLevelOrder(doc map[string]any) []string {
	seen := make(map[string]bool, len(doc))
	var order []string
	for _, k := range e.SectionOrder {
		if _, ok := doc[k]; ok && !seen[k] {
			seen[k] = true
			order = append(order, k)
		}
	}
	var rest []string
	for k := range doc {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

func (e *Encoder) encodeKey(b *strings.Builder, path, key string, value any, indent int) {
	pad := strings.Repeat(" ", indent)
	if c, ok := e.Comments[path]; ok {
		b.WriteString(pad)
		b.WriteString("# ")
		b.WriteString(c)
		b.WriteString("\n")
	}

	switch v := value.(type) {
	case map[string]any:
		b.WriteString(pad)
		b.WriteString(encodeKeyName(key))
		b.WriteString(":\n")
		for _, ck := range sortedKeys(v) {
			e.encodeKey(b, path+"."+ck, ck, v[ck], indent+2)
		}
	case []any:
		if isPrimitiveSlice(v) {
			b.WriteString(pad)
			b.WriteString(encodeKeyName(key))
			b.WriteString(": ")
			b.WriteString(encodeInlineArray(v))
			b.WriteString("\n")
			return
		}
		b.WriteString(pad)
		b.WriteString(encodeKeyName(key))
		b.WriteString(":\n")
		for _, el := range v {
			e.encodeListElement(b, path, el, indent+2)
		}
	default:
		b.WriteString(pad)
		b.WriteString(encodeKeyName(key))
		b.WriteString(": ")
		b.WriteString(encodeScalar(value))
		b.WriteString("\n")
	}
}

// encodeListElement emits one dash-prefixed element. Object elements put
// their first field on the dash line with the remaining fields two spaces
// deeper than the dash.
func (e *Encoder) encodeListElement(b *strings.Builder, path string, el any, indent int) {
	pad := strings.Repeat(" ", indent)
	switch v := el.(type) {
	case map[string]any:
		keys := sortedKeys(v)
		if len(keys) == 0 {
			b.WriteString(pad)
			b.WriteString("- {}\n")
			return
		}
		for i, k := range keys {
			if i == 0 {
				b.WriteString(pad)
				b.WriteString("- ")
				e.encodeInlineField(b, path+"."+k, k, v[k], indent+2)
			} else {
				e.encodeKey(b, path+"."+k, k, v[k], indent+2)
			}
		}
	case []any:
		b.WriteString(pad)
		b.WriteString("- ")
		b.WriteString(encodeInlineArray(v))
		b.WriteString("\n")
	default:
		b.WriteString(pad)
		b.WriteString("- ")
		b.WriteString(encodeScalar(el))
		b.WriteString("\n")
	}
}

// encodeInlineField writes "key: value" without leading pad (the dash was
// already written); nested containers fall back to a block on the next line.
func (e *Encoder) encodeInlineField(b *strings.Builder, path, key string, value any, indent int) {
	switch v := value.(type) {
	case map[string]any:
		b.WriteString(encodeKeyName(key))
		b.WriteString(":\n")
		for _, ck := range sortedKeys(v) {
			e.encodeKey(b, path+"."+ck, ck, v[ck], indent+2)
		}
	case []any:
		if isPrimitiveSlice(v) {
			b.WriteString(encodeKeyName(key))
			b.WriteString(": ")
			b.WriteString(encodeInlineArray(v))
			b.WriteString("\n")
			return
		}
		b.WriteString(encodeKeyName(key))
		b.WriteString(":\n")
		for _, el := range v {
			e.encodeListElement(b, path, el, indent+2)
		}
	default:
		b.WriteString(encodeKeyName(key))
		b.WriteString(": ")
		b.WriteString(encodeScalar(value))
		b.WriteString("\n")
	}
}

func encodeInlineArray(v []any) string {
	parts := make([]string, len(v))
	for i, el := range v {
		parts[i] = encodeScalar(el)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// encodeScalar renders one scalar token. Integral floats keep a trailing
// ".0" so the parser restores the same Go type.
func encodeScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		if t {
			return "true"
		}
		return "false"
	case string:
		return strconv.Quote(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) && math.Abs(t) < 1e15 {
			return strconv.FormatFloat(t, 'f', 1, 64)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return strconv.Quote(strings.TrimSpace(stringify(v)))
	}
}

func stringify(v any) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return ""
}

// encodeKeyName quotes keys that are not plain identifiers, which covers
// maps keyed by dynamic names.
func encodeKeyName(key string) string {
	if isPlainKey(key) {
		return key
	}
	return strconv.Quote(key)
}

func isPlainKey(key string) bool {
	if key == "" {
		return false
	}
	for i, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case (r >= '0' && r <= '9' || r == '-') && i > 0:
		default:
			return false
		}
	}
	return true
}

func isPrimitiveSlice(v []any) bool {
	for _, el := range v {
		switch el.(type) {
		case map[string]any, []any:
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
