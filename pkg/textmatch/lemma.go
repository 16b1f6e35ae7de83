package textmatch

import (
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Lemmatizer maps Japanese surface forms back to dictionary base forms, so
// aggressive-match gating can recognize an inflected occurrence of a lemma.
// Construction loads the IPA dictionary and is comparatively expensive;
// build one and share it.
type Lemmatizer struct {
	t *tokenizer.Tokenizer
}

// NewLemmatizer creates a tokenizer-backed lemmatizer.
func NewLemmatizer() (*Lemmatizer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Lemmatizer{t: t}, nil
}

// BaseForms returns the base form of every token in text, falling back to
// the surface when the dictionary has none. Whitespace-only tokens are
// dropped.
func (l *Lemmatizer) BaseForms(text string) []string {
	tokens := l.t.Tokenize(text)
	var out []string
	for _, token := range tokens {
		if token.Class == tokenizer.DUMMY {
			continue
		}
		if strings.TrimSpace(token.Surface) == "" {
			continue
		}
		base := token.Surface
		// IPA feature 6 is the base form (lemma) when present.
		if features := token.Features(); len(features) > 6 && features[6] != "*" {
			base = features[6]
		}
		out = append(out, base)
	}
	return out
}
