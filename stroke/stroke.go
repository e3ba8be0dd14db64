// Package stroke implements the canonical steno chord encoding: a
// bidirectional mapping between chord text (e.g. "STKPWrb") and a compact
// 32-bit bitfield used everywhere else in the engine as a stroke id.
package stroke

import "strings"

// Order is the canonical key order. Bit i of a Stroke is set iff the chord
// contains the i-th key in this string. Lowercase letters denote right-hand
// keys that happen to share glyphs with uppercase left-hand keys.
const Order = "^+#STKPWHRAO*eufrpblgtsdz"

// pseudoSubstitution is one (canonical, pseudo) shorthand pair. Input text
// is rewritten by replacing each pseudo substring with its canonical form,
// in this exact order -- several pseudo forms are prefixes or substrings of
// others, so the order is semantically load-bearing.
type pseudoSubstitution struct {
	canonical string
	pseudo    string
}

var pseudoSteno = []pseudoSubstitution{
	{"gs", "tion"},
	{"frpb", "nch"},
	{"AOeu", "ii"},
	{"AOe", "ee"},
	{"AOu", "uu"},
	{"AO", "oo"},
	{"frp", "mp"},
	{"frb", "rv"},
	{"fp", "ch"},
	{"rb", "sh"},
	{"STKPW", "Z"},
	{"TKPW", "G"},
	{"SKWR", "J"},
	{"TPH", "N"},
	{"KWR", "Y"},
	{"SR", "V"},
	{"TK", "D"},
	{"PW", "B"},
	{"HR", "L"},
	{"TP", "F"},
	{"PH", "M"},
	{"eu", "i"},
	{"pblg", "j"},
	{"pb", "n"},
	{"pl", "m"},
	{"bg", "k"},
}

// Stroke is a 32-bit bitfield identifying a single chord. Stroke id 0
// denotes the empty chord and is never translated.
type Stroke uint32

// Encode converts chord text into a Stroke. Pseudo-steno substitutions are
// applied first, in their declared order, then each remaining character is
// folded to its bit position in Order. A character outside Order indicates
// a malformed dictionary entry and is a programmer error -- dictionaries
// are assumed well-formed, so this panics rather than returning an error.
func Encode(text string) Stroke {
	pseudo := text
	for _, sub := range pseudoSteno {
		pseudo = strings.ReplaceAll(pseudo, sub.pseudo, sub.canonical)
	}

	var result Stroke
	for _, c := range pseudo {
		idx := strings.IndexRune(Order, c)
		if idx < 0 {
			panic("stroke: unknown key character: " + string(c))
		}
		result |= 1 << uint(idx)
	}
	return result
}

// Decode concatenates the canonical-order characters for each set bit.
// Used only for diagnostics; it is the left inverse of Encode restricted to
// canonical (non-pseudo) text, i.e. Encode(Decode(s)) == s.
func Decode(s Stroke) string {
	var b strings.Builder
	for i, c := range Order {
		if s&(1<<uint(i)) != 0 {
			b.WriteRune(c)
		}
	}
	return b.String()
}
