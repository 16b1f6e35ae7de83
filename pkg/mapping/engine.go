package mapping

import (
	"sort"

	"github.com/google/uuid"

	"github.com/leafbridge/wordvine/pkg/vocab"
)

// maxTraversalDepth bounds every recursive walk. Cyclic or pathological
// documents silently stop descending past this depth; it is not an error.
const maxTraversalDepth = 50

// Engine generates vocabulary entries from JSON documents. The zero value is
// not usable; construct with NewEngine.
type Engine struct {
	// NewID mints entry ids. Injectable so tests get stable output.
	NewID func() string
}

// NewEngine returns an engine with uuid-based entry ids.
func NewEngine() *Engine {
	return &Engine{NewID: uuid.NewString}
}

// Generate produces the flattened entries for one source word. A document
// that matches nothing yields an empty slice, never an error. When rules
// exist but no list markers are defined and the traversal finalized nothing,
// a single full-document deep scan is finalized as a fallback so flat API
// shapes still produce an entry.
func (e *Engine) Generate(sourceWord string, doc any, rules []Rule, lists []ListMarker) []*vocab.Entry {
	g := &generation{
		engine: e,
		word:   sourceWord,
		rules:  rules,
		lists:  make([]string, 0, len(lists)),
		base:   make(Context),
	}
	for _, l := range lists {
		g.lists = append(g.lists, NormalizePath(l.Path))
	}

	g.collectBase(doc, "", 0)
	g.walk(doc, "", make(Context), 0)

	if len(g.entries) == 0 && len(rules) > 0 && len(lists) == 0 {
		ctx := make(Context)
		g.deepCollect(doc, "", ctx, 0)
		if entry := g.finalize(ctx); entry != nil {
			g.entries = append(g.entries, entry)
		}
	}
	return g.entries
}

// generation carries the per-invocation state of one Generate call.
type generation struct {
	engine  *Engine
	word    string
	rules   []Rule
	lists   []string
	base    Context
	entries []*vocab.Entry
}

func (g *generation) isList(path string) bool {
	for _, l := range g.lists {
		if l == path {
			return true
		}
	}
	return false
}

// hasDeeperList reports whether another marker path is a strict descendant
// of path, meaning a deeper fan-out still has to happen below this item.
func (g *generation) hasDeeperList(path string) bool {
	prefix := path + "."
	if path == "" {
		prefix = ""
	}
	for _, l := range g.lists {
		if l != path && len(l) > len(prefix) && l[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// collectBase walks the whole document once, folding every base-rule match
// into the document-global candidate map regardless of list branches.
func (g *generation) collectBase(value any, path string, depth int) {
	if depth > maxTraversalDepth {
		return
	}
	switch node := value.(type) {
	case map[string]any:
		for _, key := range sortedKeys(node) {
			childPath := NormalizePath(joinPath(path, key))
			for _, r := range g.rules {
				if r.Base && r.Path == childPath {
					g.base.add(r.Field, node[key], r.Weight)
				}
			}
			g.collectBase(node[key], joinPath(path, key), depth+1)
		}
	case []any:
		for _, el := range node {
			g.collectBase(el, path, depth+1)
		}
	}
}

// walk is the main traversal. The inherited context is never mutated: every
// descent that needs to add candidates works on a clone, so sibling list
// branches cannot see each other's locally scanned attributes.
func (g *generation) walk(value any, path string, ctx Context, depth int) {
	if depth > maxTraversalDepth {
		return
	}

	if g.isList(path) {
		items := asItems(value)
		deeper := g.hasDeeperList(path)
		for _, item := range items {
			branch := ctx.Clone()
			if m, ok := item.(map[string]any); ok {
				// Attributes declared alongside a nested list (part of
				// speech next to a sense list, say) are captured before
				// descending into that list.
				collect(m, path, g.rules, branch)
			}
			if deeper {
				g.walkChildren(item, path, branch, depth+1)
				continue
			}
			// Leaf branch: one unconditional deep scan of everything under
			// the item, then exactly one entry.
			final := branch.Clone()
			g.deepCollectChildren(item, path, final, depth+1)
			if entry := g.finalize(final); entry != nil {
				g.entries = append(g.entries, entry)
			}
		}
		return
	}

	switch node := value.(type) {
	case map[string]any:
		merged := ctx.Clone()
		collect(node, path, g.rules, merged)
		for _, key := range sortedKeys(node) {
			g.walk(node[key], joinPath(path, key), merged, depth+1)
		}
	case []any:
		for _, el := range node {
			g.walk(el, path, ctx, depth+1)
		}
	}
}

func (g *generation) walkChildren(item any, path string, ctx Context, depth int) {
	switch node := item.(type) {
	case map[string]any:
		for _, key := range sortedKeys(node) {
			g.walk(node[key], joinPath(path, key), ctx, depth+1)
		}
	case []any:
		for _, el := range node {
			g.walk(el, path, ctx, depth+1)
		}
	}
}

// deepCollect folds every non-base rule match at any depth under value into
// ctx, including value's own direct children.
func (g *generation) deepCollect(value any, path string, ctx Context, depth int) {
	if depth > maxTraversalDepth {
		return
	}
	switch node := value.(type) {
	case map[string]any:
		collect(node, path, g.rules, ctx)
		for _, key := range sortedKeys(node) {
			g.deepCollect(node[key], joinPath(path, key), ctx, depth+1)
		}
	case []any:
		for _, el := range node {
			g.deepCollect(el, path, ctx, depth+1)
		}
	}
}

// deepCollectChildren deep-scans below item without re-collecting item's own
// direct children, which the caller already folded in.
func (g *generation) deepCollectChildren(item any, path string, ctx Context, depth int) {
	switch node := item.(type) {
	case map[string]any:
		for _, key := range sortedKeys(node) {
			g.deepCollect(node[key], joinPath(path, key), ctx, depth+1)
		}
	case []any:
		for _, el := range node {
			g.deepCollect(el, path, ctx, depth+1)
		}
	}
}

// asItems presents a list-marked value as its fan-out items: arrays as-is, a
// bare object as a single-item list, anything else as one item.
func asItems(value any) []any {
	switch v := value.(type) {
	case []any:
		return v
	case nil:
		return nil
	default:
		return []any{value}
	}
}

// finalize resolves the accumulated context into one entry, or nil when no
// field ever matched. Local candidates keep priority over base candidates by
// list position; selection within one field is by ascending weight, stable.
func (g *generation) finalize(ctx Context) *vocab.Entry {
	seen := make(map[vocab.FieldID]bool)
	var order []vocab.FieldID
	for field := range ctx {
		if !seen[field] {
			seen[field] = true
			order = append(order, field)
		}
	}
	for field := range g.base {
		if !seen[field] {
			seen[field] = true
			order = append(order, field)
		}
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	resolved := make(map[vocab.FieldID]any)
	for _, field := range order {
		cands := make([]Candidate, 0, len(ctx[field])+len(g.base[field]))
		cands = append(cands, ctx[field]...)
		cands = append(cands, g.base[field]...)
		sort.SliceStable(cands, func(i, j int) bool { return cands[i].Weight < cands[j].Weight })
		for _, c := range cands {
			if !defined(c.Value) {
				continue
			}
			if vocab.ArrayFields[field] {
				if arr, ok := c.Value.([]any); ok {
					resolved[field] = sanitizeArray(arr)
				} else {
					resolved[field] = sanitize(c.Value)
				}
			} else {
				resolved[field] = sanitize(c.Value)
			}
			break
		}
	}

	if len(resolved) == 0 {
		return nil
	}
	return g.toEntry(resolved)
}

// toEntry maps resolved field values onto the entry record, applying the
// post-merge fixups: string-valued array fields are split on separators, and
// a resolved video URL is folded with title/cover into the nested video
// object (the three flat fields do not survive on the entry).
func (g *generation) toEntry(fields map[vocab.FieldID]any) *vocab.Entry {
	entry := &vocab.Entry{ID: g.engine.NewID(), Text: g.word}

	str := func(f vocab.FieldID) string { return toString(fields[f]) }
	arr := func(f vocab.FieldID) []string {
		switch v := fields[f].(type) {
		case []string:
			return v
		case string:
			return splitListString(v)
		case nil:
			return nil
		default:
			if s := toString(v); s != "" {
				return splitListString(s)
			}
			return nil
		}
	}

	if t := str(vocab.FieldText); t != "" {
		entry.Text = t
	}
	entry.Translation = str(vocab.FieldTranslation)
	entry.Phonetic = str(vocab.FieldPhonetic)
	entry.PhoneticUK = str(vocab.FieldPhoneticUK)
	entry.PartOfSpeech = str(vocab.FieldPartOfSpeech)
	entry.Definition = str(vocab.FieldDefinition)
	entry.Example = str(vocab.FieldExample)
	entry.Inflections = arr(vocab.FieldInflections)
	entry.Phrases = arr(vocab.FieldPhrases)
	entry.Roots = arr(vocab.FieldRoots)
	entry.Synonyms = arr(vocab.FieldSynonyms)
	entry.Tags = arr(vocab.FieldTags)
	entry.AudioURL = str(vocab.FieldAudioURL)
	entry.Context = str(vocab.FieldContext)
	entry.SourceURL = str(vocab.FieldSourceURL)
	entry.Notes = str(vocab.FieldNotes)
	if f, ok := toFloat(fields[vocab.FieldImportance]); ok {
		entry.Importance = f
	}
	if f, ok := toFloat(fields[vocab.FieldRank]); ok {
		entry.Rank = f
	}

	if url := str(vocab.FieldVideoURL); url != "" {
		title := str(vocab.FieldVideoTitle)
		if title == "" {
			title = vocab.DefaultVideoTitle
		}
		entry.Video = &vocab.Video{URL: url, Title: title, Cover: str(vocab.FieldVideoCover)}
	}
	return entry
}
