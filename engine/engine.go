// Package engine implements the stateful translation core: it turns a
// stream of strokes into a stream of keyboard actions, holding a rolling
// window of recent translations so that a later stroke can retranslate
// (or undo) strokes already committed.
package engine

import (
	"strconv"
	"strings"

	"github.com/notewio/moreover/dict"
	"github.com/notewio/moreover/format"
	"github.com/notewio/moreover/stroke"
)

// bufferSize bounds how many strokes of translation history the engine
// keeps. Older translations are frozen and dropped rather than kept
// forever, so memory use doesn't grow with session length.
const bufferSize = 500

var starStroke = stroke.Encode("*")

// Engine holds everything needed to translate one more stroke: the
// priority-ordered dictionaries, the raw stroke history, the translation
// history derived from it, and the suffix-folding key list.
type Engine struct {
	dictionaries  []dict.Dictionary
	strokes       []stroke.Stroke
	translations  []dict.Translation
	suffixFolding []stroke.Stroke
}

// New returns an Engine with the numbers dictionary installed (it never
// needs loading from disk) and the default suffix-folding key order.
func New() *Engine {
	return &Engine{
		dictionaries: []dict.Dictionary{dict.NumbersDict{}},
		suffixFolding: []stroke.Stroke{
			stroke.Encode("z"),
			stroke.Encode("d"),
			stroke.Encode("s"),
			stroke.Encode("g"),
		},
	}
}

// AddDictionary loads a tree dictionary from path and installs it at the
// head of the priority list, so it's consulted before every dictionary
// already present. Only ".txt" paths are recognized; anything else is a
// silent no-op, matching the reference loader this was ported from.
func (e *Engine) AddDictionary(path string) error {
	ext := ""
	if i := strings.LastIndex(path, "."); i >= 0 {
		ext = path[i+1:]
	}
	if ext != "txt" {
		return nil
	}
	td, err := dict.NewTreeDict(path)
	if err != nil {
		return err
	}
	e.dictionaries = append([]dict.Dictionary{td}, e.dictionaries...)
	return nil
}

// ProcessStroke is the engine's single public operation: it folds one
// more stroke into the history, retranslates the window it might have
// affected, and returns the action-level diff between what was on screen
// before and what should be on screen now. old is issued as backspaces
// (for Text actions) or undo key events, then new is issued forward.
func (e *Engine) ProcessStroke(s stroke.Stroke) ([]format.Action, []format.Action) {
	e.flushBuffer()

	ti := 0
	for ti < len(e.translations) && e.translations[ti].Complete && e.translations[ti].Consumed > 0 {
		ti++
	}
	if ti > 0 {
		ti--
	}

	oldTranslations := append([]dict.Translation(nil), e.translations[ti:]...)
	strokeLength := 0
	for _, t := range oldTranslations {
		strokeLength += t.Consumed
	}

	if s == starStroke {
		if len(e.strokes) == 0 {
			return nil, nil
		}
		numNonUndoable := 1
		for i := len(e.translations) - 1; i >= 0 && e.translations[i].NonUndoable; i-- {
			numNonUndoable++
		}
		e.strokes = e.strokes[:len(e.strokes)-min(numNonUndoable, len(e.strokes))]
		strokeLength = strokeLength - min(numNonUndoable, strokeLength)
	} else {
		e.strokes = append(e.strokes, s)
		strokeLength++
	}

	newStrokes := e.strokes[len(e.strokes)-strokeLength:]
	newTranslations := e.translateStrokes(newStrokes)

	oldActions := format.Translate(oldTranslations)
	newActions := format.Translate(newTranslations)

	di := commonPrefixLen(oldTranslations, newTranslations)
	e.translations = append(e.translations[:ti+di], newTranslations[di:]...)

	ai := commonPrefixLen(oldActions, newActions)
	return oldActions[ai:], newActions[ai:]
}

// translateStrokes greedily consumes strokes front to back, looking up
// the longest match at each position. A stroke with no match at all
// becomes a literal placeholder translation carrying its decimal stroke
// id, so untranslatable strokes still surface as visible fallback text.
func (e *Engine) translateStrokes(strokes []stroke.Stroke) []dict.Translation {
	var translations []dict.Translation

	i := 0
	for i < len(strokes) {
		t, suffix, ok := e.lookup(strokes[i:])
		if ok {
			i += t.Consumed
			translations = append(translations, t)
			if suffix != nil {
				translations = append(translations, *suffix)
			}
		} else {
			translations = append(translations, dict.Translation{
				Raw:      strconv.FormatUint(uint64(strokes[i]), 10),
				Consumed: 1,
			})
			i++
		}
	}

	return translations
}

// lookup tries every dictionary in priority order on the full tail, then
// falls back to suffix folding: for each candidate suffix key, it looks
// up that key alone as a secondary translation, then retries progressively
// shorter prefixes of tail with the key masked out of their last stroke.
// The first such hit is returned paired with the suffix translation
// (consumed = 0, since the suffix key rides along with the stroke that
// carries it rather than consuming one of its own).
func (e *Engine) lookup(tail []stroke.Stroke) (dict.Translation, *dict.Translation, bool) {
	if t, ok := e.lookupHelper(tail); ok {
		return t, nil, true
	}

	for _, suffix := range e.suffixFolding {
		suffixTrans, ok := e.lookupHelper([]stroke.Stroke{suffix})
		if !ok {
			continue
		}
		suffixTrans.Consumed = 0

		for i := len(tail); i >= 1; i-- {
			search := append([]stroke.Stroke(nil), tail[:i]...)
			search[len(search)-1] &^= suffix
			if t, ok := e.lookupHelper(search); ok {
				return t, &suffixTrans, true
			}
		}
	}

	return dict.Translation{}, nil, false
}

// lookupHelper returns the first dictionary's match, in priority order.
func (e *Engine) lookupHelper(strokes []stroke.Stroke) (dict.Translation, bool) {
	for _, d := range e.dictionaries {
		if t, ok := d.Get(strokes); ok {
			return t, true
		}
	}
	return dict.Translation{}, false
}

// flushBuffer caps the translation/stroke history at bufferSize strokes
// of cumulative consumption, dropping the oldest entries once it's
// exceeded. Dropped translations are frozen and can never be
// retranslated or undone past this point.
func (e *Engine) flushBuffer() {
	n := 0
	ti := len(e.translations)
	for ti > 0 && n < bufferSize {
		ti--
		n += e.translations[ti].Consumed
	}
	e.translations = e.translations[ti:]
	e.strokes = e.strokes[len(e.strokes)-n:]
}

// commonPrefixLen returns the length of the longest common prefix of a
// and b.
func commonPrefixLen[T comparable](a, b []T) int {
	i := 0
	for i < len(a) && i < len(b) && a[i] == b[i] {
		i++
	}
	return i
}
