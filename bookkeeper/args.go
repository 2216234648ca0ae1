package bookkeeper

import (
	"fmt"
	"slices"
	"strings"

	"github.com/speakeasy-api/annotator"
)

// Keyword is one keyword argument of a call.
type Keyword struct {
	Name  string
	Value Value
}

// Arguments are the abstract arguments of a call site.
type Arguments struct {
	Positional []Value
	Keywords   []Keyword
	StarArg    Value // Value of a *args argument, nil if absent
}

// NewArguments creates positional-only arguments.
func NewArguments(positional ...Value) *Arguments {
	return &Arguments{Positional: positional}
}

// WithKeyword returns a copy of a with one more keyword argument.
func (a *Arguments) WithKeyword(name string, v Value) *Arguments {
	c := a.clone()
	c.Keywords = append(c.Keywords, Keyword{Name: name, Value: v})
	return c
}

// WithStarArg returns a copy of a passing v as *args.
func (a *Arguments) WithStarArg(v Value) *Arguments {
	c := a.clone()
	c.StarArg = v
	return c
}

// Prepend returns a copy of a with v as the first positional argument.
func (a *Arguments) Prepend(v Value) *Arguments {
	c := a.clone()
	c.Positional = append([]Value{v}, a.Positional...)
	return c
}

func (a *Arguments) clone() *Arguments {
	return &Arguments{
		Positional: slices.Clone(a.Positional),
		Keywords:   slices.Clone(a.Keywords),
		StarArg:    a.StarArg,
	}
}

// HasKeywords reports whether any keyword argument is passed.
func (a *Arguments) HasKeywords() bool {
	return len(a.Keywords) > 0
}

// Unpack returns the positional arguments, with a tuple *args expanded, and
// the keyword arguments.
func (a *Arguments) Unpack() ([]Value, []Keyword, error) {
	positional := slices.Clone(a.Positional)
	if a.StarArg != nil {
		items, ok := starItems(a.StarArg)
		if !ok {
			return nil, nil, &ArgErr{Msg: fmt.Sprintf("cannot unpack *args of %s", a.StarArg)}
		}
		positional = append(positional, items...)
	}
	return positional, slices.Clone(a.Keywords), nil
}

// FixedUnpack returns exactly n positional arguments, failing if there are
// more, fewer or any keywords.
func (a *Arguments) FixedUnpack(n int) ([]Value, error) {
	positional, keywords, err := a.Unpack()
	if err != nil {
		return nil, err
	}
	if len(keywords) > 0 {
		return nil, &ArgErr{Msg: "no keyword arguments expected"}
	}
	if len(positional) != n {
		return nil, &ArgErr{Msg: fmt.Sprintf("expected %d arguments, got %d", n, len(positional))}
	}
	return positional, nil
}

// Shape describes the layout of a call's arguments.
type Shape struct {
	Positional int
	Keywords   []string
	HasStar    bool
}

// Flatten returns the shape of the call and all argument values in order:
// positional, keyword, then *args.
func (a *Arguments) Flatten() (Shape, []Value) {
	shape := Shape{Positional: len(a.Positional), HasStar: a.StarArg != nil}
	values := slices.Clone(a.Positional)
	for _, kw := range a.Keywords {
		shape.Keywords = append(shape.Keywords, kw.Name)
		values = append(values, kw.Value)
	}
	if a.StarArg != nil {
		values = append(values, a.StarArg)
	}
	return shape, values
}

// StarLength returns the number of items a *args argument provides, when
// it is known.
func (a *Arguments) StarLength() (int, bool) {
	if a.StarArg == nil {
		return 0, true
	}
	items, ok := starItems(a.StarArg)
	return len(items), ok
}

// MatchSignature binds the arguments to sig. defaults hold the values of
// the trailing parameters. Extra positional arguments become a Tuple for
// *args and extra keywords are passed to kwargs to build the **kwargs value.
func (a *Arguments) MatchSignature(sig annotator.Signature, defaults []Value, kwargs func([]Keyword) Value) ([]Value, error) {
	positional, keywords, err := a.Unpack()
	if err != nil {
		return nil, err
	}
	n := len(sig.Params)
	cells := make([]Value, n)
	var extra []Value
	for i, v := range positional {
		if i < n {
			cells[i] = v
		} else {
			extra = append(extra, v)
		}
	}
	if len(extra) > 0 && !sig.HasVararg() {
		return nil, &ArgErr{Msg: fmt.Sprintf("takes %d arguments, got %d", n, len(positional))}
	}

	var extraKeywords []Keyword
	for _, kw := range keywords {
		idx := slices.Index(sig.Params, kw.Name)
		switch {
		case idx < 0 && sig.Kwarg != "":
			extraKeywords = append(extraKeywords, kw)
		case idx < 0:
			return nil, &ArgErr{Msg: fmt.Sprintf("unexpected keyword argument '%s'", kw.Name)}
		case cells[idx] != nil:
			return nil, &ArgErr{Msg: fmt.Sprintf("got multiple values for argument '%s'", kw.Name)}
		default:
			cells[idx] = kw.Value
		}
	}

	firstDefault := n - len(defaults)
	var missing []string
	for i := range cells {
		if cells[i] != nil {
			continue
		}
		if i >= firstDefault {
			cells[i] = defaults[i-firstDefault]
		} else {
			missing = append(missing, sig.Params[i])
		}
	}
	if len(missing) > 0 {
		return nil, &ArgErr{Msg: "missing arguments: " + strings.Join(missing, ", ")}
	}

	if sig.HasVararg() {
		cells = append(cells, NewTuple(extra...))
	}
	if sig.Kwarg != "" {
		if kwargs == nil {
			cells = append(cells, NewObject(nil))
		} else {
			cells = append(cells, kwargs(extraKeywords))
		}
	}
	return cells, nil
}

func starItems(v Value) ([]Value, bool) {
	switch x := v.(type) {
	case *Tuple:
		return x.Items, true
	case *Impossible:
		return nil, true
	}
	return nil, false
}
