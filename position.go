package annotator

import (
	"cmp"
	"fmt"
)

// Position identifies one operation of one flow graph. The driver hands out
// positions; the engine only compares and stores them.
type Position struct {
	Graph string // Name of the graph the operation belongs to
	Block int    // Block index inside the graph
	Index int    // Operation index inside the block
}

// NoPosition is the zero Position, used when no operation is active.
var NoPosition = Position{}

// IsZero reports whether p is NoPosition.
func (p Position) IsZero() bool {
	return p == NoPosition
}

// Compare orders positions by graph, then block, then operation index.
func (p Position) Compare(q Position) int {
	if c := cmp.Compare(p.Graph, q.Graph); c != 0 {
		return c
	}
	if c := cmp.Compare(p.Block, q.Block); c != 0 {
		return c
	}
	return cmp.Compare(p.Index, q.Index)
}

// ComparePositions is Position.Compare as a free function, for sorted sets.
func ComparePositions(a, b Position) int {
	return a.Compare(b)
}

func (p Position) String() string {
	if p.IsZero() {
		return "?"
	}
	return fmt.Sprintf("%s:%d:%d", p.Graph, p.Block, p.Index)
}
