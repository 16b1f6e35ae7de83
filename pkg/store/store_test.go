package store

import (
	"testing"

	"github.com/leafbridge/wordvine/pkg/mapping"
	"github.com/leafbridge/wordvine/pkg/vocab"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBlobRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if _, ok, err := s.Get("missing"); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}
	if err := s.Set("config", []byte("v1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set("config", []byte("v2")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, ok, err := s.Get("config")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(got) != "v2" {
		t.Errorf("value %q", got)
	}
	if err := s.Delete("config"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Get("config"); ok {
		t.Error("key survived delete")
	}
}

func TestWatchFiresOnSet(t *testing.T) {
	s := openTestStore(t)

	var seen []string
	cancel := s.Watch("config", func(value []byte) {
		seen = append(seen, string(value))
	})
	if err := s.Set("config", []byte("a")); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("other", []byte("x")); err != nil {
		t.Fatal(err)
	}
	cancel()
	if err := s.Set("config", []byte("b")); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 1 || seen[0] != "a" {
		t.Fatalf("watch callbacks %v", seen)
	}
}

func TestEntriesRoundTrip(t *testing.T) {
	s := openTestStore(t)

	entries := []*vocab.Entry{
		{ID: "e1", Text: "天气", Translation: "weather", Category: vocab.CategoryWantToLearn},
		{ID: "e2", Text: "公园", Translation: "park", Category: vocab.CategoryLearning,
			Synonyms: []string{"花园"}},
	}
	if err := s.SaveEntries(entries); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.ListEntries()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("listed %d entries", len(got))
	}
	if got[0].Text != "天气" || got[1].Synonyms[0] != "花园" {
		t.Errorf("payload mangled: %+v %+v", got[0], got[1])
	}

	// Re-saving the same IDs updates rather than duplicates.
	entries[0].Translation = "weather forecast"
	if err := s.SaveEntries(entries[:1]); err != nil {
		t.Fatalf("resave: %v", err)
	}
	got, _ = s.ListEntries()
	if len(got) != 2 || got[0].Translation != "weather forecast" {
		t.Errorf("upsert failed: %+v", got)
	}
}

func TestSetCategory(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveEntries([]*vocab.Entry{
		{ID: "e1", Text: "跑", Category: vocab.CategoryWantToLearn},
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetCategory("e1", vocab.CategoryKnown); err != nil {
		t.Fatalf("set category: %v", err)
	}
	got, _ := s.ListEntries()
	if got[0].Category != vocab.CategoryKnown {
		t.Errorf("category %q", got[0].Category)
	}
	if err := s.SetCategory("nope", vocab.CategoryKnown); err == nil {
		t.Error("expected error for unknown entry id")
	}
}

func TestRuleSetRoundTrip(t *testing.T) {
	s := openTestStore(t)

	rs := &mapping.RuleSet{
		SourceURLTemplate: "https://dict.example/api?q={word}",
		Mappings: []mapping.Rule{
			{Path: "word", Field: vocab.FieldText, Weight: 2},
			{Path: "content.tran", Field: vocab.FieldTranslation, Weight: 1},
		},
		Lists: []mapping.ListMarker{{Path: "content.senses"}},
	}
	if err := s.SaveRuleSet(rs); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok, err := s.LoadRuleSet(rs.SourceURLTemplate)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if len(got.Mappings) != 2 || got.Mappings[0].Weight != 2 {
		t.Errorf("mappings mangled: %+v", got.Mappings)
	}
	if len(got.Lists) != 1 || got.Lists[0].Path != "content.senses" {
		t.Errorf("lists mangled: %+v", got.Lists)
	}

	if _, ok, _ := s.LoadRuleSet("https://other.example/{word}"); ok {
		t.Error("unexpected rule set for unknown template")
	}
}
