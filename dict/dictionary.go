// Package dict implements stroke-sequence dictionary lookup: a trie-backed
// dictionary loaded from an indented text file, and a procedural dictionary
// for chords containing the number key.
package dict

import "github.com/notewio/moreover/stroke"

// Translation is a dictionary entry's output, plus bookkeeping about how
// many strokes it consumed and whether the match is complete (i.e. no
// continuation of the matched prefix exists, so the translation can never
// be extended by a later stroke).
type Translation struct {
	Raw         string
	Consumed    int
	Complete    bool
	NonUndoable bool
}

// newTranslation builds a Translation that consumed the given number of strokes. Complete and
// NonUndoable are computed later, by the dictionary and the formatter
// respectively.
func newTranslation(raw string, consumed int) Translation {
	return Translation{Raw: raw, Consumed: consumed}
}

// Dictionary is the uniform lookup capability every priority-ordered
// dictionary in an Engine implements.
type Dictionary interface {
	// Get returns the translation for the longest prefix of strokes found
	// in the dictionary, or false if no prefix of strokes matches at all.
	Get(strokes []stroke.Stroke) (Translation, bool)
}
