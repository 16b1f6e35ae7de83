// Package vocab holds the shared vocabulary data model: the closed field
// vocabulary produced by the mapping engine, the entry record stored
// long-term, and the word categories used to bucket entries.
package vocab

// FieldID identifies one output attribute of a generated entry. The set is
// closed: mapping rules may only target these ids.
type FieldID string

const (
	FieldText         FieldID = "text"
	FieldTranslation  FieldID = "translation"
	FieldPhonetic     FieldID = "phonetic"
	FieldPhoneticUK   FieldID = "phonetic_uk"
	FieldPartOfSpeech FieldID = "pos"
	FieldDefinition   FieldID = "definition"
	FieldExample      FieldID = "example"
	FieldInflections  FieldID = "inflections"
	FieldPhrases      FieldID = "phrases"
	FieldRoots        FieldID = "roots"
	FieldSynonyms     FieldID = "synonyms"
	FieldTags         FieldID = "tags"
	FieldImportance   FieldID = "importance"
	FieldRank         FieldID = "rank"
	FieldVideoURL     FieldID = "video_url"
	FieldVideoTitle   FieldID = "video_title"
	FieldVideoCover   FieldID = "video_cover"
	FieldAudioURL     FieldID = "audio_url"
	FieldContext      FieldID = "context"
	FieldSourceURL    FieldID = "source_url"
	FieldNotes        FieldID = "notes"
)

// ArrayFields are the fields whose resolved value is a string slice. A string
// resolution for one of these is split on comma/semicolon separators.
var ArrayFields = map[FieldID]bool{
	FieldInflections: true,
	FieldPhrases:     true,
	FieldRoots:       true,
	FieldSynonyms:    true,
	FieldTags:        true,
}

// KnownFields reports whether id belongs to the closed field vocabulary.
func KnownField(id FieldID) bool {
	switch id {
	case FieldText, FieldTranslation, FieldPhonetic, FieldPhoneticUK,
		FieldPartOfSpeech, FieldDefinition, FieldExample, FieldInflections,
		FieldPhrases, FieldRoots, FieldSynonyms, FieldTags, FieldImportance,
		FieldRank, FieldVideoURL, FieldVideoTitle, FieldVideoCover,
		FieldAudioURL, FieldContext, FieldSourceURL, FieldNotes:
		return true
	}
	return false
}

// Category buckets a stored entry and keys per-category style and density
// settings. The enumeration is owned by the surrounding application; these
// are the values the CLI ships with.
type Category string

const (
	CategoryWantToLearn Category = "want_to_learn"
	CategoryLearning    Category = "learning"
	CategoryKnown       Category = "known"
)

// Video is the nested media reference synthesized from the three flat
// video_* fields during entry finalization.
type Video struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Cover string `json:"cover,omitempty"`
}

// DefaultVideoTitle is used when an entry resolves a video URL but no title.
const DefaultVideoTitle = "Video clip"

// Entry is one flattened vocabulary record. Created by the mapping engine
// (one per list-branch traversal, or a single-document fallback), optionally
// enriched with live-page context, then persisted. Conceptually immutable
// once stored except for category reassignment.
type Entry struct {
	ID           string   `json:"id"`
	Text         string   `json:"text"`
	Translation  string   `json:"translation,omitempty"`
	Phonetic     string   `json:"phonetic,omitempty"`
	PhoneticUK   string   `json:"phonetic_uk,omitempty"`
	PartOfSpeech string   `json:"pos,omitempty"`
	Definition   string   `json:"definition,omitempty"`
	Example      string   `json:"example,omitempty"`
	Inflections  []string `json:"inflections,omitempty"`
	Phrases      []string `json:"phrases,omitempty"`
	Roots        []string `json:"roots,omitempty"`
	Synonyms     []string `json:"synonyms,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Importance   float64  `json:"importance,omitempty"`
	Rank         float64  `json:"rank,omitempty"`
	Video        *Video   `json:"video,omitempty"`
	AudioURL     string   `json:"audio_url,omitempty"`
	Context      string   `json:"context,omitempty"`
	SourceURL    string   `json:"source_url,omitempty"`
	Notes        string   `json:"notes,omitempty"`
	Category     Category `json:"category,omitempty"`
}

// DisplayText returns the surface the matcher searches for. Falls back to
// the translation when the entry has no source text, which should not happen
// for engine-generated entries.
func (e *Entry) DisplayText() string {
	if e.Text != "" {
		return e.Text
	}
	return e.Translation
}
