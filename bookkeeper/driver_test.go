package bookkeeper

import (
	"io"
	"testing"

	"github.com/speakeasy-api/annotator"
)

type recordedCall struct {
	fn     *annotator.Function
	pos    annotator.Position
	inputs []Value
}

// fakeDriver records what the bookkeeper asks of the fixpoint scheduler.
type fakeDriver struct {
	calls    []recordedCall
	graphs   []*annotator.Function
	result   func(fn *annotator.Function, inputs []Value) Value
	err      error
	graphErr error
}

func (d *fakeDriver) RecursiveCall(s *Scope, fn *annotator.Function, inputs []Value) (Value, error) {
	d.calls = append(d.calls, recordedCall{fn: fn, pos: s.Position(), inputs: inputs})
	if d.err != nil {
		return nil, d.err
	}
	if d.result != nil {
		return d.result(fn, inputs), nil
	}
	return NewImpossible(), nil
}

func (d *fakeDriver) EnsureGraph(fn *annotator.Function) error {
	d.graphs = append(d.graphs, fn)
	return d.graphErr
}

func (d *fakeDriver) WhereAmI(pos annotator.Position) string {
	return "fake " + pos.String()
}

func newTestBookkeeper(t *testing.T, opts ...Option) (*Bookkeeper, *fakeDriver) {
	t.Helper()
	d := &fakeDriver{}
	base := []Option{WithWarningOutput(io.Discard), WithLogger(NopLogger())}
	return New(d, append(base, opts...)...), d
}

func at(block, index int) annotator.Position {
	return annotator.Position{Graph: "main", Block: block, Index: index}
}

// enter opens a scope and leaves it when the test ends.
func enter(t *testing.T, bk *Bookkeeper, pos annotator.Position) *Scope {
	t.Helper()
	s := bk.Enter(pos)
	t.Cleanup(func() {
		if bk.Current() == s {
			if err := s.Leave(); err != nil {
				t.Errorf("Leave(%s): %v", pos, err)
			}
		}
	})
	return s
}
