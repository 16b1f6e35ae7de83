package confcodec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	doc := map[string]any{
		"translate": map[string]any{
			"engine":      "google",
			"target_lang": "zh-CN",
			"enabled":     true,
			"timeout":     0.5,
			"retries":     3,
			"proxy":       nil,
		},
		"scan": map[string]any{
			"min_block_chars": 12,
			"batch_size":      10,
			"selectors":       []any{"p", "li", "blockquote"},
			"weights":         []any{1, 2.5, 3},
		},
		"styles": map[string]any{
			"想学的词": map[string]any{
				"density_mode":  "percent",
				"density_value": 50,
			},
			"learning": map[string]any{
				"density_mode":  "count",
				"density_value": 3,
			},
		},
		"rules": []any{
			map[string]any{"path": "senses.tran", "field": "translation", "weight": 1},
			map[string]any{"path": "phonetic", "field": "phonetic", "weight": 2, "base": true},
		},
	}

	out := (&Encoder{SectionOrder: []string{"translate", "scan", "styles", "rules"}}).Marshal(doc)
	parsed, err := Unmarshal(out)
	require.NoError(t, err)
	assert.Equal(t, doc, parsed)
}

func TestRoundTripHostileStrings(t *testing.T) {
	doc := map[string]any{
		"section": map[string]any{
			"note":  "line one\nline two with \"quotes\" and a # hash",
			"colon": "key: looking value",
			"dash":  "- not a list",
			"empty": "",
			"digit": "42",
		},
	}
	out := (&Encoder{}).Marshal(doc)
	parsed, err := Unmarshal(out)
	require.NoError(t, err)
	assert.Equal(t, doc, parsed)
}

func TestRoundTripNestedLists(t *testing.T) {
	doc := map[string]any{
		"outer": map[string]any{
			"items": []any{
				map[string]any{
					"name": "a",
					"tags": []any{"x", "y"},
					"sub": map[string]any{
						"deep": true,
					},
				},
				map[string]any{"name": "b"},
			},
			"plain":   []any{1, 2, 3},
			"empty":   []any{},
			"nothing": map[string]any{},
		},
	}
	out := (&Encoder{}).Marshal(doc)
	parsed, err := Unmarshal(out)
	require.NoError(t, err)
	assert.Equal(t, doc, parsed)
}

func TestCommentsEmittedAndIgnored(t *testing.T) {
	doc := map[string]any{
		"scan": map[string]any{"batch_size": 10},
	}
	enc := &Encoder{
		SectionOrder: []string{"scan"},
		Comments: map[string]string{
			"scan":            "Page scanning settings.",
			"scan.batch_size": "Blocks translated per flush cycle.",
		},
	}
	out := string(enc.Marshal(doc))
	assert.Contains(t, out, "# Page scanning settings.\n")
	assert.Contains(t, out, "  # Blocks translated per flush cycle.\n")

	parsed, err := Unmarshal([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, doc, parsed)
}

func TestSectionOrderRespected(t *testing.T) {
	doc := map[string]any{
		"zeta":  map[string]any{"a": 1},
		"alpha": map[string]any{"b": 2},
	}
	out := string((&Encoder{SectionOrder: []string{"zeta", "alpha"}}).Marshal(doc))
	assert.Less(t, strings.Index(out, "zeta:"), strings.Index(out, "alpha:"))
}

func TestScalarTokens(t *testing.T) {
	assert.Equal(t, nil, parseScalar("null"))
	assert.Equal(t, true, parseScalar("true"))
	assert.Equal(t, false, parseScalar("false"))
	// Exact, case-sensitive tokens only.
	assert.Equal(t, "True", parseScalar("True"))
	assert.Equal(t, "NULL", parseScalar("NULL"))
	assert.Equal(t, 42, parseScalar("42"))
	assert.Equal(t, -1.5, parseScalar("-1.5"))
	assert.Equal(t, "42abc", parseScalar("42abc"))
	assert.Equal(t, []any{1, "a", true}, parseScalar(`[1, "a", true]`))
}

func TestUnmarshalBadIndent(t *testing.T) {
	_, err := Unmarshal([]byte("a: 1\n    b: 2\n"))
	assert.Error(t, err)
}

func TestUnmarshalHandEditedBareStrings(t *testing.T) {
	// Hand-edited files may skip quoting; bare tokens stay strings.
	parsed, err := Unmarshal([]byte("scan:\n  mode: percent\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"scan": map[string]any{"mode": "percent"}}, parsed)
}

func TestUnmarshalQuotedDynamicKeys(t *testing.T) {
	parsed, err := Unmarshal([]byte("styles:\n  \"想学的词\":\n    density_value: 3\n"))
	require.NoError(t, err)
	styles := parsed["styles"].(map[string]any)
	require.Contains(t, styles, "想学的词")
}
