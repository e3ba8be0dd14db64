package dict

import (
	"strings"

	"github.com/notewio/moreover/stroke"
)

// digitKey pairs a single steno key with the digit it produces when the
// number bar ('#') is held.
type digitKey struct {
	key   string
	digit byte
}

// digitOrder lists the number-bar digit keys in the fixed order their
// digits are emitted, independent of which order the keys were pressed
// in -- a stroke holding O and S always yields "10", never "01".
var digitOrder = []digitKey{
	{"S", '1'},
	{"T", '2'},
	{"P", '3'},
	{"H", '4'},
	{"A", '5'},
	{"O", '0'},
	{"f", '6'},
	{"p", '7'},
	{"l", '8'},
	{"t", '9'},
}

var (
	hashBit    = stroke.Encode("#")
	dBit       = stroke.Encode("d")
	zBit       = stroke.Encode("z")
	numberMask = func() stroke.Stroke {
		var m stroke.Stroke
		for _, dk := range digitOrder {
			m |= stroke.Encode(dk.key)
		}
		return m | hashBit | dBit | zBit
	}()
)

// NumbersDict is a procedural dictionary for chords that hold the number
// bar: it never loads from a file, computing a translation directly from
// the stroke's bits. It only ever matches and consumes a single stroke.
type NumbersDict struct{}

// Get implements Dictionary. A stroke matches only if it holds '#' and
// every other key it holds is one of the recognized number-bar keys.
func (NumbersDict) Get(strokes []stroke.Stroke) (Translation, bool) {
	if len(strokes) == 0 {
		return Translation{}, false
	}
	s := strokes[0]
	if s&hashBit == 0 {
		return Translation{}, false
	}
	if s & ^numberMask != 0 {
		return Translation{}, false
	}

	var digits strings.Builder
	for _, dk := range digitOrder {
		if s&stroke.Encode(dk.key) != 0 {
			digits.WriteByte(dk.digit)
		}
	}
	result := digits.String()

	if s&dBit != 0 && len(result) > 0 {
		result += result[len(result)-1:]
	}
	if s&zBit != 0 {
		result += "00"
	}

	return Translation{Raw: "{&" + result + "}", Consumed: 1, Complete: true}, true
}
