package annotate

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/leafbridge/wordvine/pkg/textmatch"
	"github.com/leafbridge/wordvine/pkg/vocab"
)

func parseDoc(t *testing.T, fragment string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func firstBlock(t *testing.T, doc *html.Node, selector string) *Block {
	t.Helper()
	sel := goquery.NewDocumentFromNode(doc).Find(selector)
	if sel.Length() == 0 {
		t.Fatalf("selector %q matched nothing", selector)
	}
	return NewBlock(sel.Get(0))
}

func render(t *testing.T, doc *html.Node) string {
	t.Helper()
	var b strings.Builder
	if err := html.Render(&b, doc); err != nil {
		t.Fatalf("render: %v", err)
	}
	return b.String()
}

func plainStyles(vocab.Category) Geometry { return Geometry{} }

func TestBlockTextAndRuns(t *testing.T) {
	doc := parseDoc(t, `<p>hello <b>bold</b> world</p>`)
	b := firstBlock(t, doc, "p")
	if b.Text() != "hello bold world" {
		t.Fatalf("text = %q", b.Text())
	}
	if len(b.runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(b.runs))
	}
}

func TestSpliceSingleMatch(t *testing.T) {
	doc := parseDoc(t, `<p>今天天气很好</p>`)
	b := firstBlock(t, doc, "p")
	e := &vocab.Entry{ID: "e1", Text: "天气", Translation: "weather", Category: vocab.CategoryLearning}
	start := strings.Index(b.Text(), "天气")
	cands := []textmatch.Candidate{{
		Start: start, End: start + len("天气"),
		Entry: e, Surface: "天气", SourceSentence: b.Text(),
	}}

	if n := Splice(b, cands, plainStyles); n != 1 {
		t.Fatalf("spliced %d", n)
	}
	out := render(t, doc)
	if !strings.Contains(out, `data-wv-entry="e1"`) {
		t.Errorf("missing entry id attribute: %s", out)
	}
	if !strings.Contains(out, `<span class="wv-orig">天气</span>`) {
		t.Errorf("missing original span: %s", out)
	}
	if !strings.Contains(out, `<span class="wv-tran">weather</span>`) {
		t.Errorf("missing translation span: %s", out)
	}
	if !strings.Contains(out, "今天") || !strings.Contains(out, "很好") {
		t.Errorf("surrounding text lost: %s", out)
	}
}

func TestSpliceGeometry(t *testing.T) {
	doc := parseDoc(t, `<p>abc</p>`)
	b := firstBlock(t, doc, "p")
	e := &vocab.Entry{ID: "e1", Text: "abc", Translation: "译", Category: vocab.CategoryLearning}
	cands := []textmatch.Candidate{{Start: 0, End: 3, Entry: e, Surface: "abc"}}

	styles := func(vocab.Category) Geometry {
		return Geometry{TranslationFirst: true, Vertical: true, Prefix: "(", Suffix: ")"}
	}
	Splice(b, cands, styles)
	out := render(t, doc)
	if !strings.Contains(out, "wv-ruby") {
		t.Errorf("vertical class missing: %s", out)
	}
	tranIdx := strings.Index(out, `class="wv-tran"`)
	origIdx := strings.Index(out, `class="wv-orig"`)
	if tranIdx < 0 || origIdx < 0 || tranIdx > origIdx {
		t.Errorf("translation-first ordering not honored: %s", out)
	}
	if !strings.Contains(out, "(") || !strings.Contains(out, ")") {
		t.Errorf("wrapper symbols missing: %s", out)
	}
}

func TestSpliceMultipleRightToLeft(t *testing.T) {
	doc := parseDoc(t, `<p>aa bb cc</p>`)
	b := firstBlock(t, doc, "p")
	ea := &vocab.Entry{ID: "a", Text: "aa", Category: vocab.CategoryLearning}
	ec := &vocab.Entry{ID: "c", Text: "cc", Category: vocab.CategoryLearning}
	cands := []textmatch.Candidate{
		{Start: 0, End: 2, Entry: ea, Surface: "aa"},
		{Start: 6, End: 8, Entry: ec, Surface: "cc"},
	}
	if n := Splice(b, cands, plainStyles); n != 2 {
		t.Fatalf("spliced %d", n)
	}
	out := render(t, doc)
	aIdx := strings.Index(out, `data-wv-entry="a"`)
	cIdx := strings.Index(out, `data-wv-entry="c"`)
	if aIdx < 0 || cIdx < 0 || aIdx > cIdx {
		t.Errorf("document order broken: %s", out)
	}
	if !strings.Contains(out, " bb ") {
		t.Errorf("middle text lost: %s", out)
	}
}

func TestSpliceAdjacentInsertsSpace(t *testing.T) {
	doc := parseDoc(t, `<p>aabb</p>`)
	b := firstBlock(t, doc, "p")
	ea := &vocab.Entry{ID: "a", Text: "aa", Category: vocab.CategoryLearning}
	eb := &vocab.Entry{ID: "b", Text: "bb", Category: vocab.CategoryLearning}
	cands := []textmatch.Candidate{
		{Start: 0, End: 2, Entry: ea, Surface: "aa"},
		{Start: 2, End: 4, Entry: eb, Surface: "bb"},
	}
	Splice(b, cands, plainStyles)
	out := render(t, doc)
	first := strings.Index(out, "</span>")
	// Between the two units there must be exactly a single space text node.
	rest := out[first:]
	if !strings.Contains(rest, `</span> <span`) {
		t.Errorf("no separating space between adjacent units: %s", out)
	}
}

func TestSpliceDropsUnmappableCandidate(t *testing.T) {
	doc := parseDoc(t, `<p>aa<b>bb</b></p>`)
	b := firstBlock(t, doc, "p")
	e := &vocab.Entry{ID: "x", Text: "aabb", Category: vocab.CategoryLearning}
	// Spans two text nodes; no single run contains it.
	cands := []textmatch.Candidate{{Start: 0, End: 4, Entry: e, Surface: "aabb"}}
	if n := Splice(b, cands, plainStyles); n != 0 {
		t.Fatalf("expected candidate to be dropped, spliced %d", n)
	}
	if out := render(t, doc); strings.Contains(out, "wv-word") {
		t.Errorf("unexpected splice output: %s", out)
	}
}

func TestCollectBlocksSkipsGeneratedContent(t *testing.T) {
	doc := parseDoc(t, `<div>
		<p>普通段落的文字内容。</p>
		<p data-wv-state="done">已经处理过的段落。</p>
		<p><span class="wv-word">unit</span>生成内容旁边的文字。</p>
		<div class="wv-translation"><p>我们自己插入的翻译块。</p></div>
	</div>`)
	blocks := CollectBlocks(doc)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 collectable blocks, got %d", len(blocks))
	}
	// The block containing a generated unit is collectable, but its unit
	// text must not appear in the block text.
	for _, b := range blocks {
		if strings.Contains(b.Text(), "unit") {
			t.Errorf("generated unit text leaked into block text: %q", b.Text())
		}
	}
}
