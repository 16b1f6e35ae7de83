package dictapi

import (
	"context"
	"log"

	"github.com/leafbridge/wordvine/pkg/mapping"
	"github.com/leafbridge/wordvine/pkg/vocab"
)

// Generator runs batch entry generation: one document fetch plus one
// mapping-engine pass per word, strictly sequential in input order.
type Generator struct {
	Client *Client
	Engine *mapping.Engine

	// Logger is used for per-word failure messages. nil means no logging.
	Logger *log.Logger
	// OnProgress is called after each word with (processed, total).
	OnProgress func(current, total int)
}

// NewGenerator wires a generator from its collaborators.
func NewGenerator(client *Client) *Generator {
	return &Generator{Client: client, Engine: mapping.NewEngine()}
}

// BatchResult carries the concatenated entries and the words whose fetch or
// decode failed.
type BatchResult struct {
	Entries []*vocab.Entry
	Failed  []string
}

// GenerateAll processes the words against one rule set. A word whose fetch
// fails is recorded and skipped; the rest of the batch proceeds. Only
// context cancellation aborts the whole run. A word whose document matches
// no rules contributes zero entries, silently.
func (g *Generator) GenerateAll(ctx context.Context, words []string, rs *mapping.RuleSet) (*BatchResult, error) {
	res := &BatchResult{}
	total := len(words)
	for i, word := range words {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		doc, err := g.Client.FetchDocument(ctx, rs.SourceURLTemplate, word)
		if err != nil {
			if g.Logger != nil {
				g.Logger.Printf("fetch %q: %v", word, err)
			}
			res.Failed = append(res.Failed, word)
			if g.OnProgress != nil {
				g.OnProgress(i+1, total)
			}
			continue
		}

		entries := g.Engine.Generate(word, doc, rs.Mappings, rs.Lists)
		for _, e := range entries {
			if e.SourceURL == "" {
				if u, uerr := ExpandTemplate(rs.SourceURLTemplate, word); uerr == nil {
					e.SourceURL = u
				}
			}
		}
		res.Entries = append(res.Entries, entries...)

		if g.OnProgress != nil {
			g.OnProgress(i+1, total)
		}
	}
	return res, nil
}
