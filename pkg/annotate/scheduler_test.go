package annotate

import (
	"context"
	"strings"
	"testing"

	"github.com/leafbridge/wordvine/pkg/config"
	"github.com/leafbridge/wordvine/pkg/textmatch"
	"github.com/leafbridge/wordvine/pkg/translate"
	"github.com/leafbridge/wordvine/pkg/vocab"
)

type fakeTranslator struct {
	calls int
	fn    func(text string) string
}

func (f *fakeTranslator) Translate(_ context.Context, text, _ string) (string, error) {
	f.calls++
	if f.fn != nil {
		return f.fn(text), nil
	}
	return text, nil
}

func testState(vocabList []*vocab.Entry) *State {
	cfg := config.Default()
	cfg.Scan.MinBlockChars = 2
	return &State{Vocabulary: vocabList, Config: cfg}
}

func TestAddIdempotent(t *testing.T) {
	doc := parseDoc(t, `<p>今天天气很好。</p>`)
	s := NewScheduler(testState(nil), nil, nil)

	b := firstBlock(t, doc, "p")
	if !s.Add(b) {
		t.Fatal("first add rejected")
	}
	if s.Add(b) {
		t.Fatal("second add of a pending block must be rejected")
	}
	// A fresh Block over the same marked container is also rejected.
	if s.Add(firstBlock(t, doc, "p")) {
		t.Fatal("add of a marked container must be rejected")
	}
	if len(s.queue) != 1 {
		t.Fatalf("queue length %d", len(s.queue))
	}
}

func TestAddAdmissionFilters(t *testing.T) {
	s := NewScheduler(testState(nil), nil, nil)

	short := firstBlock(t, parseDoc(t, `<p>短</p>`), "p")
	if s.Add(short) {
		t.Error("too-short block admitted")
	}
	noCJK := firstBlock(t, parseDoc(t, `<p>plain latin text only</p>`), "p")
	if s.Add(noCJK) {
		t.Error("block without CJK admitted under zh config")
	}
	strict := testState(nil)
	strict.Config.Scan.MaxPunctRatio = 0.15
	s2 := NewScheduler(strict, nil, nil)
	menu := firstBlock(t, parseDoc(t, `<p>首页 | 分类 | 标签 | 关于 | 订阅 | 搜索</p>`), "p")
	if s2.Add(menu) {
		t.Error("punctuation-heavy navigation fragment admitted")
	}
	good := firstBlock(t, parseDoc(t, `<p>今天天气很好，我们出去走走。</p>`), "p")
	if !s.Add(good) {
		t.Error("normal prose block rejected")
	}
}

func TestFlushWithoutTranslatorStillMatches(t *testing.T) {
	doc := parseDoc(t, `<p>今天天气很好。</p>`)
	vocabList := []*vocab.Entry{
		{ID: "e1", Text: "天气", Translation: "weather", Category: vocab.CategoryLearning},
	}
	s := NewScheduler(testState(vocabList), nil, nil)
	if s.Rescan(doc) != 1 {
		t.Fatal("expected one admitted block")
	}
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	out := render(t, doc)
	if !strings.Contains(out, `data-wv-entry="e1"`) {
		t.Errorf("no replacement spliced: %s", out)
	}
	if !strings.Contains(out, `data-wv-state="done"`) {
		t.Errorf("block not marked done: %s", out)
	}
}

func TestFlushDoesNotRescanOwnOutput(t *testing.T) {
	doc := parseDoc(t, `<p>今天天气很好。</p>`)
	vocabList := []*vocab.Entry{
		{ID: "e1", Text: "天气", Translation: "天气预报", Category: vocab.CategoryLearning},
	}
	s := NewScheduler(testState(vocabList), nil, nil)
	s.Rescan(doc)
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	// A second observation pass over the mutated document admits nothing:
	// the container is marked and the inserted units are rejected.
	if n := s.Rescan(doc); n != 0 {
		t.Fatalf("rescan admitted %d blocks from generated output", n)
	}
}

func TestFlushBatchTranslation(t *testing.T) {
	doc := parseDoc(t, `<p>今天天气很好。我们去公园吧。</p>`)
	vocabList := []*vocab.Entry{
		{ID: "e1", Text: "weather", Translation: "天气", Category: vocab.CategoryLearning},
	}
	st := testState(vocabList)
	st.Config.Translate.Enabled = true
	st.Config.Scan.MatchBy = config.MatchByTranslation

	tr := &fakeTranslator{fn: func(text string) string {
		n := len(strings.Split(text, strings.TrimSpace(translate.Delimiter)))
		parts := make([]string, n)
		for i := range parts {
			parts[i] = "translated"
		}
		return translate.JoinBatch(parts)
	}}
	s := NewScheduler(st, tr, nil)
	s.Rescan(doc)
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if tr.calls != 1 {
		t.Errorf("expected one combined translation call per block, got %d", tr.calls)
	}
	// MatchByTranslation searches the entry's translation in the source.
	if out := render(t, doc); !strings.Contains(out, `data-wv-entry="e1"`) {
		t.Errorf("translation-side match missing: %s", out)
	}
}

func TestFlushAggressiveUsesLookup(t *testing.T) {
	doc := parseDoc(t, `<p>她昨天跑了很远。</p>`)
	vocabList := []*vocab.Entry{
		{ID: "run", Text: "run", Translation: "跑", Category: vocab.CategoryLearning},
	}
	st := testState(vocabList)
	st.Config.Translate.Enabled = true
	st.Config.Scan.Aggressive = true

	tr := &fakeTranslator{fn: func(string) string { return "She did run far yesterday." }}
	lookups := 0
	lookup := func(_ context.Context, word string) (*textmatch.RichLookup, error) {
		lookups++
		return &textmatch.RichLookup{Word: word, Forms: []string{"跑了"}}, nil
	}
	s := NewScheduler(st, tr, lookup)
	s.Rescan(doc)
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if lookups != 1 {
		t.Errorf("expected 1 rich lookup, got %d", lookups)
	}
	out := render(t, doc)
	if !strings.Contains(out, `data-wv-original="跑了"`) {
		t.Errorf("aggressive match not spliced: %s", out)
	}
}

func TestStateSnapshotSwap(t *testing.T) {
	st1 := testState(nil)
	s := NewScheduler(st1, nil, nil)
	st2 := testState(nil)
	s.SetState(st2)
	if s.state.Load() != st2 {
		t.Fatal("snapshot not swapped")
	}
}
