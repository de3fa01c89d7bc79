// Package token holds source locations shared by every compilation stage.
package token

import (
	"fmt"
	"sort"
)

// NoOffset marks nodes that the analyzer synthesized and that have no
// counterpart in the source text.
const NoOffset = -1

// Location is a byte offset into the source text the tree was parsed from.
type Location struct {
	Offset int
}

// At returns the location of the given byte offset.
func At(offset int) Location {
	return Location{Offset: offset}
}

// Synthetic returns a location for generated nodes.
func Synthetic() Location {
	return Location{Offset: NoOffset}
}

func (l Location) IsKnown() bool {
	return l.Offset >= 0
}

func (l Location) String() string {
	if !l.IsKnown() {
		return "@?"
	}
	return fmt.Sprintf("@%d", l.Offset)
}

// Position is a 1-based line/column pair.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// LineIndex maps byte offsets to positions.
type LineIndex struct {
	starts []int
	size   int
}

// NewLineIndex scans src once and records where every line starts.
func NewLineIndex(src []byte) *LineIndex {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{starts: starts, size: len(src)}
}

// Position converts an offset. Offsets past the end clamp to the last byte.
func (li *LineIndex) Position(offset int) Position {
	if offset < 0 {
		return Position{}
	}
	if offset > li.size {
		offset = li.size
	}
	line := sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset }) - 1
	return Position{Line: line + 1, Column: offset - li.starts[line] + 1}
}
