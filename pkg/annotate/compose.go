package annotate

import (
	"fmt"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/leafbridge/wordvine/pkg/textmatch"
	"github.com/leafbridge/wordvine/pkg/vocab"
)

// Geometry is the already-resolved per-category layout of one replacement
// unit. The compositor only assembles the inner spans accordingly; it never
// computes style values itself.
type Geometry struct {
	TranslationFirst bool
	Vertical         bool
	Prefix           string
	Suffix           string
}

// StyleResolver supplies the geometry for a category.
type StyleResolver func(cat vocab.Category) Geometry

// Splice replaces the matched ranges of a block with styled bilingual
// units. Candidates must be pre-sorted ascending by start and
// overlap-resolved (textmatch.ResolveOverlaps). Splicing runs right to left
// so each text-node split leaves the offsets of candidates further left
// intact. A candidate whose range no longer maps onto a single text node is
// dropped silently. Returns the number of units spliced.
func Splice(b *Block, cands []textmatch.Candidate, styles StyleResolver) int {
	spliced := 0
	prevStart := -1
	for i := len(cands) - 1; i >= 0; i-- {
		c := cands[i]
		run := b.runContaining(c.Start, c.End)
		if run == nil {
			continue
		}
		node := run.node
		parent := node.Parent
		if parent == nil {
			continue
		}

		relStart := c.Start - run.start
		relEnd := c.End - run.start
		data := node.Data
		if relEnd > len(data) {
			continue
		}

		unit := buildUnit(&c, styles)
		ref := node.NextSibling

		node.Data = data[:relStart]
		run.end = c.Start

		parent.InsertBefore(unit, ref)
		if after := data[relEnd:]; after != "" {
			parent.InsertBefore(&html.Node{Type: html.TextNode, Data: after}, ref)
		} else if prevStart == c.End {
			// The unit to the right starts exactly where this one ends;
			// separate them so the rendered text does not merge.
			parent.InsertBefore(&html.Node{Type: html.TextNode, Data: " "}, unit.NextSibling)
		}

		prevStart = c.Start
		spliced++
	}
	return spliced
}

// buildUnit assembles one replacement span: marker classes, data attributes
// for entry id / original surface / originating sentence pair, the optional
// prefix/suffix wrapper symbols, and the two inner spans in the order the
// geometry dictates.
func buildUnit(c *textmatch.Candidate, styles StyleResolver) *html.Node {
	geo := styles(c.Entry.Category)

	class := classUnit + " " + fmt.Sprintf(categoryClassFmt, c.Entry.Category)
	if geo.Vertical {
		class += " " + classRuby
	}
	unit := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Span,
		Data:     "span",
		Attr: []html.Attribute{
			{Key: "class", Val: class},
			{Key: "data-wv-entry", Val: c.Entry.ID},
			{Key: "data-wv-original", Val: c.Surface},
		},
	}
	if c.SourceSentence != "" {
		unit.Attr = append(unit.Attr, html.Attribute{Key: "data-wv-sentence", Val: c.SourceSentence})
	}
	if c.TranslatedSentence != "" {
		unit.Attr = append(unit.Attr, html.Attribute{Key: "data-wv-sentence-tran", Val: c.TranslatedSentence})
	}

	orig := innerSpan(classInnerOrig, c.Surface)
	tran := innerSpan(classInnerTran, counterpart(c))

	if geo.Prefix != "" {
		unit.AppendChild(&html.Node{Type: html.TextNode, Data: geo.Prefix})
	}
	if geo.TranslationFirst {
		unit.AppendChild(tran)
		unit.AppendChild(orig)
	} else {
		unit.AppendChild(orig)
		unit.AppendChild(tran)
	}
	if geo.Suffix != "" {
		unit.AppendChild(&html.Node{Type: html.TextNode, Data: geo.Suffix})
	}
	return unit
}

// counterpart picks the display text paired with the matched surface: the
// entry side the surface did not come from.
func counterpart(c *textmatch.Candidate) string {
	if c.Surface == c.Entry.Translation && c.Entry.Text != "" {
		return c.Entry.Text
	}
	if c.Entry.Translation != "" {
		return c.Entry.Translation
	}
	return c.Entry.Text
}

func innerSpan(class, text string) *html.Node {
	s := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Span,
		Data:     "span",
		Attr:     []html.Attribute{{Key: "class", Val: class}},
	}
	s.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return s
}
