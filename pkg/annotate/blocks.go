// Package annotate is the DOM side of the scan pipeline: it selects text
// blocks from an HTML document, schedules them through segmentation,
// translation and matching, and splices the styled replacement units into
// the tree. All mutation is confined to the compositor; the matching logic
// it drives lives in textmatch and stays DOM-free.
package annotate

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Marker attribute and classes. Anything carrying them is ours and must
// never be re-admitted, or the pipeline would translate its own output
// forever.
const (
	attrState    = "data-wv-state"
	statePending = "pending"
	stateDone    = "done"

	classUnit        = "wv-word"
	classInnerOrig   = "wv-orig"
	classInnerTran   = "wv-tran"
	classRuby        = "wv-ruby"
	classTransBlock  = "wv-translation"
	categoryClassFmt = "wv-cat-%s"
)

// blockSelector lists the elements considered candidate text blocks.
const blockSelector = "p, li, dd, td, blockquote, figcaption, h1, h2, h3, h4, h5, h6"

// Block is one admitted DOM text unit: a container element plus its text
// runs, with run offsets into the concatenated block text.
type Block struct {
	Container *html.Node
	text      string
	runs      []textRun
}

type textRun struct {
	node  *html.Node
	start int
	end   int
}

// NewBlock walks container's text nodes in document order, skipping
// script/style subtrees and previously generated units, and records each
// node's absolute range in the concatenated text.
func NewBlock(container *html.Node) *Block {
	b := &Block{Container: container}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if n.Data == "script" || n.Data == "style" || isGenerated(n) {
				return
			}
		}
		if n.Type == html.TextNode {
			start := len(b.text)
			b.text += n.Data
			b.runs = append(b.runs, textRun{node: n, start: start, end: len(b.text)})
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return b
}

// Text returns the block's concatenated text content.
func (b *Block) Text() string { return b.text }

// runContaining finds the text run whose absolute range fully contains
// [start, end), or nil when offset arithmetic no longer lines up — the
// caller drops such candidates silently.
func (b *Block) runContaining(start, end int) *textRun {
	for i := range b.runs {
		r := &b.runs[i]
		if r.start <= start && end <= r.end {
			return r
		}
	}
	return nil
}

func (b *Block) state() string {
	for _, a := range b.Container.Attr {
		if a.Key == attrState {
			return a.Val
		}
	}
	return ""
}

func (b *Block) setState(v string) {
	for i := range b.Container.Attr {
		if b.Container.Attr[i].Key == attrState {
			b.Container.Attr[i].Val = v
			return
		}
	}
	b.Container.Attr = append(b.Container.Attr, html.Attribute{Key: attrState, Val: v})
}

// isGenerated reports whether the node is content this pipeline inserted.
func isGenerated(n *html.Node) bool {
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == classUnit || c == classTransBlock {
					return true
				}
			}
		}
		if a.Key == attrState {
			return true
		}
	}
	return false
}

// insideGenerated climbs the ancestor chain looking for generated content.
func insideGenerated(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && isGenerated(p) {
			return true
		}
	}
	return false
}

// Admission tunes the cheap textual filters blocks must pass.
type Admission struct {
	MinChars      int
	MaxPunctRatio float64
	RequireCJK    bool
}

// admit applies the admission filters to a block's text: long enough,
// carries CJK content when required, and not dominated by punctuation the
// way navigation and menu fragments are.
func (a Admission) admit(text string) bool {
	trimmed := strings.TrimSpace(text)
	runes := []rune(trimmed)
	if len(runes) < a.MinChars {
		return false
	}
	cjk, punct := 0, 0
	for _, r := range runes {
		switch {
		case unicode.Is(unicode.Han, r), unicode.Is(unicode.Hiragana, r), unicode.Is(unicode.Katakana, r):
			cjk++
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			punct++
		}
	}
	if a.RequireCJK && cjk == 0 {
		return false
	}
	if a.MaxPunctRatio > 0 && float64(punct)/float64(len(runes)) > a.MaxPunctRatio {
		return false
	}
	return true
}

// CollectBlocks finds candidate blocks under root that are not marked and
// not generated content. Marking and admission are left to Scheduler.Add.
func CollectBlocks(root *html.Node) []*Block {
	doc := goquery.NewDocumentFromNode(root)
	var out []*Block
	doc.Find(blockSelector).Each(func(_ int, sel *goquery.Selection) {
		n := sel.Get(0)
		if isGenerated(n) || insideGenerated(n) {
			return
		}
		if _, marked := sel.Attr(attrState); marked {
			return
		}
		// Nested candidates (a p inside an li) are handled at the innermost
		// level; skip containers that hold other candidate blocks.
		if sel.Find(blockSelector).Length() > 0 {
			return
		}
		out = append(out, NewBlock(n))
	})
	return out
}
