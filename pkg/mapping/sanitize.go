package mapping

import (
	"encoding/json"
	"strings"
)

// objectLookupKeys is the key preference order when a candidate value is a
// JSON object: the first present key wins. These cover the shapes common
// dictionary APIs wrap scalars in.
var objectLookupKeys = []string{"text", "value", "word", "chn_tran", "tran", "definition", "i"}

// sanitize reduces an arbitrary JSON value to a scalar suitable for one
// entry field. nil → ""; strings, numbers and booleans pass through; arrays
// reduce to their sanitized first element; objects resolve through
// objectLookupKeys and fall back to their raw JSON text.
func sanitize(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case string, float64, int, int64, bool:
		return t
	case []any:
		if len(t) == 0 {
			return ""
		}
		return sanitize(t[0])
	case map[string]any:
		for _, key := range objectLookupKeys {
			if inner, ok := t[key]; ok && inner != nil {
				return sanitize(inner)
			}
		}
		raw, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(raw)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}

// sanitizeArray keeps the list shape for array-valued fields, sanitizing
// each element to a string and dropping empties.
func sanitizeArray(v []any) []string {
	out := make([]string, 0, len(v))
	for _, el := range v {
		s := strings.TrimSpace(toString(sanitize(el)))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// splitListString breaks a comma/semicolon separated field value into its
// trimmed pieces, dropping empties. Both ASCII and fullwidth separators are
// recognized since dictionary APIs mix them freely.
func splitListString(s string) []string {
	pieces := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '，' || r == ';' || r == '；'
	})
	out := make([]string, 0, len(pieces))
	for _, p := range pieces {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return strings.Trim(string(raw), `"`)
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		var f float64
		if err := json.Unmarshal([]byte(strings.TrimSpace(t)), &f); err == nil {
			return f, true
		}
	}
	return 0, false
}

// defined reports whether a candidate value counts as present for field
// resolution: nil never does, everything else does (empty string included,
// matching the source behavior of only skipping null/undefined).
func defined(v any) bool {
	return v != nil
}
