package annotate

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"golang.org/x/net/html"

	"github.com/leafbridge/wordvine/pkg/config"
	"github.com/leafbridge/wordvine/pkg/textmatch"
	"github.com/leafbridge/wordvine/pkg/translate"
	"github.com/leafbridge/wordvine/pkg/vocab"
)

// batchSize is how many buffered blocks one flush cycle handles.
const batchSize = 10

// Translator is the translation collaborator; nil means no engine is
// configured and matching proceeds with empty translations.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// RichLookupFunc performs the external rich dictionary lookup behind
// aggressive matching.
type RichLookupFunc func(ctx context.Context, word string) (*textmatch.RichLookup, error)

// State is the snapshot a flush cycle works from. The scheduler reads one
// consistent snapshot at the start of each cycle; external updates (storage
// watch notifications) swap in a new one that takes effect next cycle.
type State struct {
	Vocabulary []*vocab.Entry
	Config     *config.Config
}

// Scheduler buffers admitted blocks and drives the scan pipeline over them
// in FIFO batches. A new flush cycle never starts while one is running, so
// two batches cannot race on the same text node.
type Scheduler struct {
	translator Translator
	lookup     RichLookupFunc
	lemmatizer *textmatch.Lemmatizer

	// Logger is used for informational messages. nil means no logging.
	Logger *log.Logger

	state atomic.Pointer[State]

	mu       sync.Mutex
	queue    []*Block
	flushing bool
}

// NewScheduler creates a scheduler. translator and lookup may be nil; the
// pipeline then degrades per the error policy instead of failing.
func NewScheduler(st *State, translator Translator, lookup RichLookupFunc) *Scheduler {
	s := &Scheduler{translator: translator, lookup: lookup}
	s.state.Store(st)
	return s
}

// SetState atomically swaps the snapshot used by subsequent flush cycles.
func (s *Scheduler) SetState(st *State) { s.state.Store(st) }

// SetLemmatizer installs the optional Japanese lemmatizer for aggressive
// gating.
func (s *Scheduler) SetLemmatizer(lz *textmatch.Lemmatizer) { s.lemmatizer = lz }

// Add admits a block into the buffer. Blocks failing the textual admission
// filters are rejected, and a block already marked pending or done is never
// enqueued twice. Reports whether the block was enqueued.
func (s *Scheduler) Add(b *Block) bool {
	if b.state() != "" {
		return false
	}
	st := s.state.Load()
	adm := Admission{
		MinChars:      st.Config.Scan.MinBlockChars,
		MaxPunctRatio: st.Config.Scan.MaxPunctRatio,
		RequireCJK:    st.Config.Scan.Language != "en",
	}
	if !adm.admit(b.Text()) {
		return false
	}
	b.setState(statePending)
	s.mu.Lock()
	s.queue = append(s.queue, b)
	s.mu.Unlock()
	return true
}

// Rescan collects unmarked blocks under root and admits them, returning how
// many were enqueued. Content the pipeline itself inserted is rejected at
// collection, which is what breaks the translate-scan-translate loop.
func (s *Scheduler) Rescan(root *html.Node) int {
	added := 0
	for _, b := range CollectBlocks(root) {
		if s.Add(b) {
			added++
		}
	}
	return added
}

// Flush drains the buffer in batches. If a flush is already in progress the
// call returns immediately; the running flush keeps cycling until the
// buffer is empty, so nothing is lost.
func (s *Scheduler) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.flushing {
		s.mu.Unlock()
		return nil
	}
	s.flushing = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.flushing = false
		s.mu.Unlock()
	}()

	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return nil
		}
		n := batchSize
		if n > len(s.queue) {
			n = len(s.queue)
		}
		batch := s.queue[:n]
		s.queue = append([]*Block(nil), s.queue[n:]...)
		s.mu.Unlock()

		// One consistent snapshot per cycle.
		st := s.state.Load()
		for _, b := range batch {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.processBlock(ctx, b, st)
			b.setState(stateDone)
		}
	}
}

// processBlock runs segmentation, translation, matching, filtering and
// compositing for one block. Failures degrade: a failed translation means
// empty translations, a failed rich lookup skips that candidate.
func (s *Scheduler) processBlock(ctx context.Context, b *Block, st *State) {
	segs := textmatch.Split(b.Text())
	if len(segs) == 0 {
		return
	}

	translations := s.translateSegments(ctx, segs, st)

	var cands []textmatch.Candidate
	for i, seg := range segs {
		cands = append(cands, textmatch.FindMatches(
			seg.Text, seg.Start, st.Vocabulary, translations[i], st.Config.Scan.MatchBy)...)

		if st.Config.Scan.Aggressive && s.lookup != nil && translations[i] != "" {
			cands = append(cands, s.aggressiveMatches(ctx, seg, translations[i], st)...)
		}
	}
	if len(cands) == 0 {
		return
	}

	rules := densityRules(st.Config)
	filtered := textmatch.FilterByDensity(cands, rules)
	resolved := textmatch.ResolveOverlaps(filtered)
	Splice(b, resolved, styleResolver(st.Config))
}

func (s *Scheduler) translateSegments(ctx context.Context, segs []textmatch.Segment, st *State) []string {
	empty := make([]string, len(segs))
	if s.translator == nil || !st.Config.Translate.Enabled {
		return empty
	}
	texts := make([]string, len(segs))
	for i, seg := range segs {
		texts[i] = seg.Text
	}
	joined, err := s.translator.Translate(ctx, translate.JoinBatch(texts), st.Config.Translate.TargetLang)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Printf("translate failed, matching without translations: %v", err)
		}
		return empty
	}
	return translate.SplitBatch(joined, len(segs))
}

func (s *Scheduler) aggressiveMatches(ctx context.Context, seg textmatch.Segment, translation string, st *State) []textmatch.Candidate {
	var out []textmatch.Candidate
	for _, entry := range st.Vocabulary {
		if !textmatch.AggressiveGate(entry, translation, s.lemmatizer) {
			continue
		}
		lk, err := s.lookup(ctx, entry.Text)
		if err != nil {
			if s.Logger != nil {
				s.Logger.Printf("rich lookup for %q failed: %v", entry.Text, err)
			}
			continue
		}
		out = append(out, textmatch.FindAggressiveMatches(seg.Text, seg.Start, entry, lk, translation)...)
	}
	return out
}

func densityRules(c *config.Config) map[vocab.Category]textmatch.DensityRule {
	out := make(map[vocab.Category]textmatch.DensityRule, len(c.Styles))
	for name, s := range c.Styles {
		if s.DensityMode == "" {
			continue
		}
		out[vocab.Category(name)] = textmatch.DensityRule{Mode: s.DensityMode, Value: s.DensityValue}
	}
	return out
}

func styleResolver(c *config.Config) StyleResolver {
	return func(cat vocab.Category) Geometry {
		s, ok := c.Styles[string(cat)]
		if !ok {
			return Geometry{}
		}
		return Geometry{
			TranslationFirst: s.TranslationFirst,
			Vertical:         s.Vertical,
			Prefix:           s.Prefix,
			Suffix:           s.Suffix,
		}
	}
}
