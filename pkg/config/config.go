// Package config defines the user-facing configuration tree and its
// import/export through the confcodec text format.
package config

import (
	"fmt"

	"github.com/leafbridge/wordvine/pkg/confcodec"
	"github.com/leafbridge/wordvine/pkg/vocab"
)

// Match sides for the fuzzy matcher: which of an entry's surfaces is
// searched inside the source sentence.
const (
	MatchByText        = "text"
	MatchByTranslation = "translation"
)

// Density cap modes.
const (
	DensityCount   = "count"
	DensityPercent = "percent"
)

// TranslateConfig configures the translation collaborator.
type TranslateConfig struct {
	Enabled    bool
	Engine     string
	Endpoint   string
	TargetLang string
}

// ScanConfig tunes block admission and the scan pipeline.
type ScanConfig struct {
	MinBlockChars int
	BatchSize     int
	MatchBy       string
	Aggressive    bool
	Language      string
	MaxPunctRatio float64
}

// CategoryStyle holds the per-category replacement geometry and density cap.
// The compositor consumes the geometry as already-resolved values and never
// computes style itself.
type CategoryStyle struct {
	DensityMode      string
	DensityValue     int
	TranslationFirst bool
	Vertical         bool
	Prefix           string
	Suffix           string
}

// Config is the whole tree. Styles is keyed by category name, a dynamic set.
type Config struct {
	Translate TranslateConfig
	Scan      ScanConfig
	Styles    map[string]CategoryStyle
}

// Default returns the configuration the CLI ships with.
func Default() *Config {
	return &Config{
		Translate: TranslateConfig{
			Enabled:    false,
			Engine:     "http",
			TargetLang: "zh-CN",
		},
		Scan: ScanConfig{
			MinBlockChars: 8,
			BatchSize:     10,
			MatchBy:       MatchByText,
			Language:      "zh",
			MaxPunctRatio: 0.5,
		},
		Styles: map[string]CategoryStyle{
			string(vocab.CategoryWantToLearn): {
				DensityMode:  DensityPercent,
				DensityValue: 100,
				Prefix:       "(",
				Suffix:       ")",
			},
			string(vocab.CategoryLearning): {
				DensityMode:  DensityCount,
				DensityValue: 5,
				Prefix:       "(",
				Suffix:       ")",
			},
			string(vocab.CategoryKnown): {
				DensityMode:  DensityCount,
				DensityValue: 0,
			},
		},
	}
}

var sectionOrder = []string{"translate", "scan", "styles"}

// fieldComments is the static metadata table behind the comment lines in
// exported files.
var fieldComments = map[string]string{
	"translate":             "Translation engine settings.",
	"translate.enabled":     "Translate scanned sentences before matching.",
	"translate.engine":      "Engine id; \"http\" posts to the endpoint below.",
	"translate.endpoint":    "Engine HTTP endpoint.",
	"translate.target_lang": "Target language code for translations.",
	"scan":                  "Page scanning settings.",
	"scan.min_block_chars":  "Blocks shorter than this are skipped.",
	"scan.batch_size":       "Blocks handled per flush cycle.",
	"scan.match_by":         "Entry side searched in sentences: text or translation.",
	"scan.aggressive":       "Enable dictionary-assisted aggressive matching.",
	"scan.language":         "Primary page language (zh, ja, en).",
	"scan.max_punct_ratio":  "Punctuation density above this marks a block as navigation.",
	"styles":                "Per-category replacement geometry and density caps.",
}

// Export renders the configuration to the text format.
func Export(c *Config) []byte {
	enc := &confcodec.Encoder{SectionOrder: sectionOrder, Comments: fieldComments}
	return enc.Marshal(toTree(c))
}

// Import parses and validates a configuration file. An unparsable file, or
// one with no recognized top-level section, is rejected outright; no partial
// import happens.
func Import(data []byte) (*Config, error) {
	tree, err := confcodec.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	recognized := false
	for _, s := range sectionOrder {
		if _, ok := tree[s]; ok {
			recognized = true
			break
		}
	}
	if !recognized {
		return nil, fmt.Errorf("config has none of the sections %v", sectionOrder)
	}
	return fromTree(tree), nil
}

func toTree(c *Config) map[string]any {
	styles := map[string]any{}
	for name, s := range c.Styles {
		styles[name] = map[string]any{
			"density_mode":      s.DensityMode,
			"density_value":     s.DensityValue,
			"translation_first": s.TranslationFirst,
			"vertical":          s.Vertical,
			"prefix":            s.Prefix,
			"suffix":            s.Suffix,
		}
	}
	return map[string]any{
		"translate": map[string]any{
			"enabled":     c.Translate.Enabled,
			"engine":      c.Translate.Engine,
			"endpoint":    c.Translate.Endpoint,
			"target_lang": c.Translate.TargetLang,
		},
		"scan": map[string]any{
			"min_block_chars": c.Scan.MinBlockChars,
			"batch_size":      c.Scan.BatchSize,
			"match_by":        c.Scan.MatchBy,
			"aggressive":      c.Scan.Aggressive,
			"language":        c.Scan.Language,
			"max_punct_ratio": c.Scan.MaxPunctRatio,
		},
		"styles": styles,
	}
}

// fromTree fills a default config with whatever the tree carries; unknown
// keys are ignored so older files keep importing.
func fromTree(tree map[string]any) *Config {
	c := Default()
	if t, ok := tree["translate"].(map[string]any); ok {
		getBool(t, "enabled", &c.Translate.Enabled)
		getString(t, "engine", &c.Translate.Engine)
		getString(t, "endpoint", &c.Translate.Endpoint)
		getString(t, "target_lang", &c.Translate.TargetLang)
	}
	if t, ok := tree["scan"].(map[string]any); ok {
		getInt(t, "min_block_chars", &c.Scan.MinBlockChars)
		getInt(t, "batch_size", &c.Scan.BatchSize)
		getString(t, "match_by", &c.Scan.MatchBy)
		getBool(t, "aggressive", &c.Scan.Aggressive)
		getString(t, "language", &c.Scan.Language)
		getFloat(t, "max_punct_ratio", &c.Scan.MaxPunctRatio)
	}
	if t, ok := tree["styles"].(map[string]any); ok {
		c.Styles = make(map[string]CategoryStyle, len(t))
		for name, raw := range t {
			sm, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			var s CategoryStyle
			getString(sm, "density_mode", &s.DensityMode)
			getInt(sm, "density_value", &s.DensityValue)
			getBool(sm, "translation_first", &s.TranslationFirst)
			getBool(sm, "vertical", &s.Vertical)
			getString(sm, "prefix", &s.Prefix)
			getString(sm, "suffix", &s.Suffix)
			c.Styles[name] = s
		}
	}
	return c
}

func getString(m map[string]any, key string, dst *string) {
	if v, ok := m[key].(string); ok {
		*dst = v
	}
}

func getBool(m map[string]any, key string, dst *bool) {
	if v, ok := m[key].(bool); ok {
		*dst = v
	}
}

func getInt(m map[string]any, key string, dst *int) {
	switch v := m[key].(type) {
	case int:
		*dst = v
	case float64:
		*dst = int(v)
	}
}

func getFloat(m map[string]any, key string, dst *float64) {
	switch v := m[key].(type) {
	case float64:
		*dst = v
	case int:
		*dst = float64(v)
	}
}
