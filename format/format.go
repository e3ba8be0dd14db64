// Package format interprets dictionary translation strings -- plain text
// interleaved with "{...}" directives -- into an ordered sequence of
// keyboard output actions, tracking attach/glue/capitalization state
// across a run of translations via a small stack machine.
package format

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/notewio/moreover/dict"
	"github.com/notewio/moreover/orthography"
)

// Format flag bits. resetCaps clears the three case bits while leaving
// everything else (ATTACH, GLUE, COMMAND) untouched.
const (
	Command    = 1
	Attach     = 1 << 1
	Glue       = 1 << 2
	Capitalize = 1 << 3
	Lowercase  = 1 << 4
	Uppercase  = 1 << 5

	resetCaps = ^(Capitalize | Lowercase | Uppercase)
)

// KeyKind names a non-printable key recognized by the "{#...}" command
// table, or Layout for any other single character.
type KeyKind int

const (
	KeyControl KeyKind = iota
	KeyShift
	KeyAlt
	KeyMeta
	KeyBackspace
	KeyEscape
	KeyTab
	KeyDelete
	KeyReturn
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyLayout
)

// Key is a single keyboard key. Char is only meaningful when Kind is
// KeyLayout.
type Key struct {
	Kind KeyKind
	Char rune
}

// commandKeys maps the symbol table recognized inside "{#...}" directives
// to a Key. Anything not listed here becomes Layout(first character).
var commandKeys = map[string]KeyKind{
	"Control_L": KeyControl,
	"Shift_L":   KeyShift,
	"Alt_L":     KeyAlt,
	"Super_L":   KeyMeta,

	"BackSpace": KeyBackspace,
	"Escape":    KeyEscape,
	"Tab":       KeyTab,
	"Delete":    KeyDelete,
	"Return":    KeyReturn,
	"Up":        KeyUp,
	"Down":      KeyDown,
	"Left":      KeyLeft,
	"Right":     KeyRight,
}

func commandKey(s string) Key {
	if kind, ok := commandKeys[s]; ok {
		return Key{Kind: kind}
	}
	for _, r := range s {
		return Key{Kind: KeyLayout, Char: r}
	}
	return Key{Kind: KeyLayout}
}

// ActionKind distinguishes the four kinds of output action.
type ActionKind int

const (
	ActionText ActionKind = iota
	ActionKeyClick
	ActionKeyDown
	ActionKeyUp
)

// Action is a single unit of keyboard output. Text is valid only when
// Kind is ActionText (always exactly one character, for diff-trim
// granularity); Key is valid for the three key-event kinds.
type Action struct {
	Kind ActionKind
	Text string
	Key  Key
}

func textAction(s string) Action { return Action{Kind: ActionText, Text: s} }

var (
	brackets        = regexp.MustCompile(`(?s)\{(.*?)\}`)
	escapedBrackets = regexp.MustCompile(`\\(\{|\})`)
)

// Translate runs the formatter over a run of translations, writing each
// one's NonUndoable flag back in place, and returns the ordered actions
// that result.
func Translate(translations []dict.Translation) []Action {
	strs := []string{}
	formats := []int{0}

	for i := range translations {
		translations[i].NonUndoable = processRaw(translations[i].Raw, &strs, &formats)
	}

	var actions []Action
	for i := range strs {
		actions = append(actions, toAction(strs[i], formats[i])...)
	}
	return actions
}

// processRaw parses raw into alternating plain-text and bracketed-command
// segments, pushing plain text onto strs/formats and dispatching each
// command to processCommand. It returns true iff no visible text was
// emitted by this translation, the signal used to set NonUndoable.
func processRaw(raw string, strs *[]string, formats *[]int) bool {
	matches := brackets.FindAllStringSubmatchIndex(raw, -1)
	nonUndoable := true
	pos := 0

	for i := 0; i <= len(matches); i++ {
		var seg string
		hasCommand := i < len(matches)
		var command string
		if hasCommand {
			m := matches[i]
			seg = raw[pos:m[0]]
			command = raw[m[2]:m[3]]
			pos = m[1]
		} else {
			seg = raw[pos:]
		}

		if len(seg) > 0 {
			text := escapedBrackets.ReplaceAllString(seg, "${1}")
			*strs = append(*strs, text)
			*formats = append(*formats, 0)
			nonUndoable = false
		}
		if hasCommand {
			nonUndoable = nonUndoable && processCommand(command, strs, formats)
		}
	}
	return nonUndoable
}

func popFormat(formats *[]int) int {
	f := (*formats)[len(*formats)-1]
	*formats = (*formats)[:len(*formats)-1]
	return f
}

func isPunctCaps(s string) bool  { return s == "." || s == "!" || s == "?" }
func isPunctSpace(s string) bool { return s == "," || s == ":" || s == ";" }

// processCommand applies a single "{...}" directive's effect to the
// strs/formats stacks and returns true iff it produced no visible text.
func processCommand(s string, strs *[]string, formats *[]int) bool {
	f := popFormat(formats)
	next := 0
	nonUndoable := true
	if len(*formats) > len(*strs) {
		next = f
		f = popFormat(formats)
	}

	switch s {
	case "":
		*formats = append(*formats, 0)

	case "^", "^^":
		*formats = append(*formats, f|Attach)

	case "-|":
		*formats = append(*formats, (f&resetCaps)|Capitalize)
	case "*-|":
		if len(*formats) > 0 {
			prev := popFormat(formats)
			*formats = append(*formats, prev|Capitalize)
		}
		*formats = append(*formats, f)

	case ">":
		*formats = append(*formats, (f&resetCaps)|Lowercase)
	case "*>":
		if len(*formats) > 0 {
			prev := popFormat(formats)
			*formats = append(*formats, prev|Lowercase)
			*formats = append(*formats, f)
		}

	case "<":
		*formats = append(*formats, (f&resetCaps)|Uppercase)
	case "*<":
		if len(*formats) > 0 {
			prev := popFormat(formats)
			*formats = append(*formats, prev|Uppercase)
			*formats = append(*formats, f)
		}

	case "~|":
		*formats = append(*formats, f&resetCaps)
		*formats = append(*formats, f & ^resetCaps)

	default:
		switch {
		case isPunctCaps(s):
			*strs = append(*strs, s)
			*formats = append(*formats, Attach)
			*formats = append(*formats, Capitalize)
			nonUndoable = false

		case isPunctSpace(s):
			*strs = append(*strs, s)
			*formats = append(*formats, Attach)
			*formats = append(*formats, 0)
			nonUndoable = false

		case strings.HasPrefix(s, "#") && len(s) > 1:
			*strs = append(*strs, s[1:])
			*formats = append(*formats, Command|Attach)
			*formats = append(*formats, Attach)

		case strings.HasPrefix(s, "&") && len(s) > 1:
			glued := s[1:]
			*strs = append(*strs, glued)
			if len(*formats) > 0 && (*formats)[len(*formats)-1]&Glue > 0 {
				*formats = append(*formats, f|Attach|Glue)
			} else {
				*formats = append(*formats, f|Glue)
			}
			*formats = append(*formats, 0)
			nonUndoable = false

		default:
			text := s
			needsOrthography := false
			if strings.HasPrefix(text, "^") {
				text = text[1:]
				f |= Attach
				needsOrthography = true
			}
			if strings.HasSuffix(text, "^") {
				text = text[:len(text)-1]
				next |= Attach
			}

			if needsOrthography && len(*strs) > 0 && (*formats)[len(*formats)-1]&Command == 0 {
				last := (*strs)[len(*strs)-1]
				*strs = (*strs)[:len(*strs)-1]
				*strs = append(*strs, orthography.Apply(last, text))
				*formats = append(*formats, next)
			} else {
				*strs = append(*strs, text)
				*formats = append(*formats, f)
				*formats = append(*formats, next)
			}
			nonUndoable = false
		}
	}
	return nonUndoable
}

// toAction converts one finished fragment into its output actions.
func toAction(s string, f int) []Action {
	if f&Command > 0 {
		switch {
		case strings.HasSuffix(s, ","):
			return []Action{{Kind: ActionKeyDown, Key: commandKey(s[:len(s)-1])}}
		case strings.HasSuffix(s, "."):
			return []Action{{Kind: ActionKeyUp, Key: commandKey(s[:len(s)-1])}}
		default:
			return []Action{{Kind: ActionKeyClick, Key: commandKey(s)}}
		}
	}

	s = strings.ReplaceAll(s, `\n`, "\n")
	if f&Lowercase > 0 {
		s = strings.ToLower(s)
	}
	if f&Uppercase > 0 {
		s = strings.ToUpper(s)
	}
	runes := []rune(s)
	if f&Lowercase == 0 && f&Capitalize > 0 && len(runes) > 0 {
		runes[0] = unicode.ToUpper(runes[0])
	}
	if f&Attach == 0 {
		runes = append([]rune{' '}, runes...)
	}

	actions := make([]Action, len(runes))
	for i, r := range runes {
		actions[i] = textAction(string(r))
	}
	return actions
}
