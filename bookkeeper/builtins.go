package bookkeeper

import (
	"fmt"
	"unicode/utf8"

	"github.com/speakeasy-api/annotator"
)

// Analyzer computes the abstract result of a built-in call from its
// positional arguments. Arity problems are reported as *ArgErr.
type Analyzer func(s *Scope, args []Value) (Value, error)

// builtinAnalyzers maps built-in callables to their analyzers.
var builtinAnalyzers = map[*annotator.Builtin]Analyzer{
	// Introspection
	annotator.Len:        builtinLen,
	annotator.IsInstance: builtinIsInstance,

	// Conversions
	annotator.Int:   builtinInt,
	annotator.Float: builtinConvert(func() Value { return NewFloat() }),
	annotator.Str:   builtinConvert(func() Value { return NewString() }),
	annotator.Bool:  builtinConvert(func() Value { return NewBool() }),

	// Arithmetic
	annotator.Abs: builtinAbs,
	annotator.Min: builtinMinMax,
	annotator.Max: builtinMinMax,

	// Sequences
	annotator.Range: builtinRange,
}

func defaultBuiltins() map[*annotator.Builtin]Analyzer {
	out := make(map[*annotator.Builtin]Analyzer, len(builtinAnalyzers))
	for b, a := range builtinAnalyzers {
		out[b] = a
	}
	return out
}

// RegisterBuiltin installs or replaces the analyzer of b for this run.
func (bk *Bookkeeper) RegisterBuiltin(b *annotator.Builtin, a Analyzer) {
	bk.builtins[b] = a
}

func arity(name string, args []Value, minArgs, maxArgs int) error {
	if len(args) < minArgs || (maxArgs >= 0 && len(args) > maxArgs) {
		return &ArgErr{Msg: fmt.Sprintf("%s() takes %s arguments (%d given)", name, arityRange(minArgs, maxArgs), len(args))}
	}
	return nil
}

func arityRange(minArgs, maxArgs int) string {
	switch {
	case maxArgs < 0:
		return fmt.Sprintf("at least %d", minArgs)
	case minArgs == maxArgs:
		return fmt.Sprintf("exactly %d", minArgs)
	default:
		return fmt.Sprintf("%d to %d", minArgs, maxArgs)
	}
}

func builtinLen(s *Scope, args []Value) (Value, error) {
	if err := arity("len", args, 1, 1); err != nil {
		return nil, err
	}
	switch x := args[0].(type) {
	case *Tuple:
		return s.bk.Classify(len(x.Items)), nil
	case *String:
		if str, ok := x.Const().(string); ok && x.IsConstant() {
			return s.bk.Classify(utf8.RuneCountInString(str)), nil
		}
	}
	return NewInteger(true, false), nil
}

func builtinIsInstance(s *Scope, args []Value) (Value, error) {
	if err := arity("isinstance", args, 2, 2); err != nil {
		return nil, err
	}
	inst, ok := args[0].(*Instance)
	if !ok || !args[1].IsConstant() {
		return NewBool(), nil
	}
	cls, ok := args[1].Const().(*annotator.Class)
	if !ok {
		return NewBool(), nil
	}
	if inst.Def.Class.IsSubclassOf(cls) {
		return WithConst(NewBool(), true), nil
	}
	return NewBool(), nil
}

func builtinInt(s *Scope, args []Value) (Value, error) {
	if err := arity("int", args, 0, 2); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return s.bk.Classify(0), nil
	}
	switch x := args[0].(type) {
	case *Integer:
		return NewInteger(x.Nonneg, x.Unsigned), nil
	case *Bool:
		return NewInteger(true, false), nil
	}
	return NewInteger(false, false), nil
}

func builtinConvert(result func() Value) Analyzer {
	return func(s *Scope, args []Value) (Value, error) {
		if len(args) > 1 {
			return nil, &ArgErr{Msg: fmt.Sprintf("conversion takes at most 1 argument (%d given)", len(args))}
		}
		return result(), nil
	}
}

func builtinAbs(s *Scope, args []Value) (Value, error) {
	if err := arity("abs", args, 1, 1); err != nil {
		return nil, err
	}
	switch x := args[0].(type) {
	case *Integer, *Bool:
		return NewInteger(true, isUnsigned(x)), nil
	case *Float:
		return NewFloat(), nil
	}
	return NewObject(nil), nil
}

func isUnsigned(v Value) bool {
	i, ok := v.(*Integer)
	return ok && i.Unsigned
}

// builtinMinMax handles both min and max: the result is one of the
// arguments, or an item of the single sequence argument.
func builtinMinMax(s *Scope, args []Value) (Value, error) {
	if err := arity("min/max", args, 1, -1); err != nil {
		return nil, err
	}
	if len(args) > 1 {
		return UnionOf(args...), nil
	}
	switch x := args[0].(type) {
	case *List:
		return x.Def.Read(s), nil
	case *Tuple:
		return UnionOf(x.Items...), nil
	case *Dict:
		return x.Def.ReadKey(s), nil
	}
	return NewObject(nil), nil
}

func builtinRange(s *Scope, args []Value) (Value, error) {
	if err := arity("range", args, 1, 3); err != nil {
		return nil, err
	}
	nonneg := true
	for _, a := range args {
		i, ok := a.(*Integer)
		if !ok || !i.Nonneg {
			nonneg = false
		}
	}
	return s.NewList(NewInteger(nonneg, false)), nil
}
