package dict

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/notewio/moreover/stroke"
)

// treeNode is one node of the arena-indexed trie. Nodes are stored in a
// flat slice rather than behind owning pointers (see spec design notes on
// arena+index storage); children maps a stroke id to the index of the
// child node in the owning TreeDict's nodes slice.
type treeNode struct {
	translation    Translation
	hasTranslation bool
	children       map[stroke.Stroke]int
}

func newTreeNode() treeNode {
	return treeNode{children: make(map[stroke.Stroke]int)}
}

// TreeDict is a trie-backed Dictionary loaded from an indented text file:
// one entry per line, leading-TAB count gives depth in the trie, and the
// line body is "<stroke-text>\t<translation>".
type TreeDict struct {
	nodes []treeNode
}

// NewTreeDict loads a dictionary from path. Malformed lines (unknown
// stroke character, or a depth that skips an ancestor) are fatal: the
// returned error names the file and the 1-indexed line number.
func NewTreeDict(path string) (td *TreeDict, err error) {
	f, openErr := os.Open(path)
	if openErr != nil {
		return nil, openErr
	}
	defer f.Close()

	td = &TreeDict{nodes: []treeNode{newTreeNode()}}
	var lastParents []stroke.Stroke

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		depth := 0
		for depth < len(line) && line[depth] == '\t' {
			depth++
		}

		trimmed := strings.TrimLeft(line, " \t")
		fields := strings.Split(trimmed, "\t")
		strokeText := fields[0]
		translation := ""
		if len(fields) > 1 {
			translation = fields[1]
		}

		id, encErr := safeEncode(strokeText)
		if encErr != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, encErr)
		}

		if depth > len(lastParents) {
			return nil, fmt.Errorf("%s:%d: indentation skips an ancestor level", path, lineNo)
		}
		lastParents = lastParents[:depth]

		parentIdx := 0
		for _, p := range lastParents {
			childIdx, ok := td.nodes[parentIdx].children[p]
			if !ok {
				return nil, fmt.Errorf("%s:%d: parent entry at this depth was never inserted", path, lineNo)
			}
			parentIdx = childIdx
		}

		lastParents = append(lastParents, id)

		n := newTreeNode()
		if translation != "" {
			n.translation = newTranslation(translation, len(lastParents))
			n.hasTranslation = true
		}
		td.nodes = append(td.nodes, n)
		td.nodes[parentIdx].children[id] = len(td.nodes) - 1
	}
	if scanErr := scanner.Err(); scanErr != nil {
		return nil, fmt.Errorf("%s: %w", path, scanErr)
	}

	return td, nil
}

// safeEncode wraps stroke.Encode, converting its panic-on-bad-character
// into an error so a malformed dictionary line produces a diagnosable
// load error instead of crashing the process.
func safeEncode(text string) (id stroke.Stroke, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid stroke text %q: %v", text, r)
		}
	}()
	return stroke.Encode(text), nil
}

// Get descends the trie following strokes, remembering the deepest
// translation seen, and returns it with Consumed set to its depth and
// Complete set according to whether the node the descent stopped at has
// any children (no children means no continuation is possible, so this
// translation can never be extended by a further stroke).
func (td *TreeDict) Get(strokes []stroke.Stroke) (Translation, bool) {
	parentIdx := 0
	var trans Translation
	found := false

	for _, s := range strokes {
		childIdx, ok := td.nodes[parentIdx].children[s]
		if !ok {
			break
		}
		parentIdx = childIdx
		if td.nodes[parentIdx].hasTranslation {
			trans = td.nodes[parentIdx].translation
			found = true
		}
	}

	if !found {
		return Translation{}, false
	}
	trans.Complete = len(td.nodes[parentIdx].children) == 0
	return trans, true
}
