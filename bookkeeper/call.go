package bookkeeper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/speakeasy-api/annotator"
)

// Call returns the abstract result of calling the concrete callee with args
// from the scope's position. Classes are instantiated, bound methods are
// unwrapped and functions are dispatched according to their specialization
// policy before the driver analyzes them.
func (s *Scope) Call(callee any, args *Arguments) (Value, error) {
	switch c := callee.(type) {
	case nil, annotator.NoneType:
		// calling None models a null function pointer
		return NewImpossible(), nil
	case *annotator.Class:
		if !c.Builtin {
			return s.instantiate(c, args)
		}
	case *annotator.Builtin:
		return s.callBuiltin(c, args)
	case *annotator.Instance:
		if m, ok := c.Attr("__call__"); ok {
			if bm, isMethod := m.(*annotator.BoundMethod); isMethod {
				callee = bm
			}
		}
	}

	if bm, ok := callee.(*annotator.BoundMethod); ok {
		if bm.Self != nil {
			args = args.Prepend(s.bk.Classify(bm.Self))
		}
		if bm.Func.Class == nil {
			bm.Func.Class = bm.Class
		}
		callee = bm.Func
	}

	fn, ok := callee.(*annotator.Function)
	if !ok {
		return nil, newError(KindCall, s.pos, ErrNotAFunction, "expected function, got %s", describeObject(callee))
	}
	return s.callFunction(fn, args)
}

func (s *Scope) instantiate(cls *annotator.Class, args *Arguments) (Value, error) {
	bk := s.bk
	switch cls.Policy {
	case annotator.PolicyNone:
	case annotator.PolicyByLocation:
		spec, err := bk.SpecializeByKey(cls, s.pos, "")
		if err != nil {
			return nil, err
		}
		cls = spec.(*annotator.Class)
	default:
		return nil, newError(KindSpecialization, s.pos, annotator.ErrUnsupportedSpecialization,
			"unsupported specialization type '%s' on %s", cls.Policy, cls)
	}
	bk.metrics.called("class")

	inst := NewInstanceValue(bk.ClassDef(cls))
	init, ok := cls.Init()
	if !ok {
		if _, err := args.FixedUnpack(0); err != nil {
			return nil, newError(KindCall, s.pos, ErrNoConstructor, "no __init__ found in %s", cls)
		}
		return inst, nil
	}
	// __init__ is a static call, not an attribute read on the ClassDef
	if _, err := s.CallValue(bk.Classify(init), args.Prepend(inst)); err != nil {
		return nil, err
	}
	return inst, nil
}

func (s *Scope) callFunction(fn *annotator.Function, args *Arguments) (Value, error) {
	bk := s.bk
	base := fn
	policy := fn.Policy
	if policy == annotator.PolicyNone && fn.Sig.HasVararg() {
		policy = annotator.PolicyByArity
	}
	bk.metrics.called(policy.String())

	switch policy {
	case annotator.PolicyNone:
	case annotator.PolicyByArgTypes:
		key := shortTypeName(args)
		spec, err := bk.SpecializeByKey(fn, key, fn.Name+"__"+key)
		if err != nil {
			return nil, err
		}
		fn = spec.(*annotator.Function)
	case annotator.PolicyByLocation:
		spec, err := bk.SpecializeByKey(fn, s.pos, "")
		if err != nil {
			return nil, err
		}
		fn = spec.(*annotator.Function)
	case annotator.PolicyMemo:
		return s.memo(fn, args)
	case annotator.PolicyByArity:
		if args.HasKeywords() {
			return nil, newError(KindCall, s.pos, ErrVarargsKeywords, "keyword forbidden in calls to *arg function %s", fn.Name)
		}
		starLen, known := args.StarLength()
		if !known {
			return nil, newError(KindCall, s.pos, ErrUnknownArity, "call to %s requires a known number of args", fn.Name)
		}
		nbargs := len(args.Positional) + starLen
		spec, err := bk.SpecializeByKey(fn, nbargs, fmt.Sprintf("%s__%d", fn.Name, nbargs))
		if err != nil {
			return nil, err
		}
		fn = spec.(*annotator.Function)
	default:
		return nil, newError(KindSpecialization, s.pos, annotator.ErrUnsupportedSpecialization,
			"unsupported specialization type '%s' on %s", policy, fn.Name)
	}

	defaults := make([]Value, len(fn.Defaults))
	for i, d := range fn.Defaults {
		defaults[i] = bk.Classify(d)
	}
	inputs, err := args.MatchSignature(fn.Sig, defaults, s.kwargsDict)
	if err != nil {
		return s.argMismatch(fn.Name, err)
	}

	result, err := bk.driver.RecursiveCall(s, fn, inputs)
	if err != nil {
		return nil, wrapDriverError(s.pos, err, "analyzing call to %s", fn.Name)
	}

	// Different visits of the site may reach different clones; the site
	// must still see one monotonic result.
	if policy == annotator.PolicyByArgTypes {
		key := callSiteKey{fn: base, pos: s.pos}
		if prev, ok := bk.argtypesResults[key]; ok {
			result = Join(prev, result)
		}
		bk.argtypesResults[key] = result
	}
	return result, nil
}

// memo calls fn now on every combination of concrete arguments and joins
// the classified results.
func (s *Scope) memo(fn *annotator.Function, args *Arguments) (Value, error) {
	bk := s.bk
	positional, keywords, err := args.Unpack()
	if err != nil {
		return s.argMismatch(fn.Name, err)
	}
	if len(keywords) > 0 {
		return nil, newError(KindSpecialization, s.pos, ErrMemoKeywords, "no ** args in memo call to %s", fn.Name)
	}
	if fn.Impl == nil {
		return nil, newError(KindSpecialization, s.pos, ErrMemoNoImpl, "memo function %s cannot be evaluated", fn.Name)
	}
	combos, err := possibleArguments(positional, bk.opts.MaxMemoCombinations)
	if err != nil {
		return nil, newError(KindSpecialization, s.pos, err, "memo call to %s", fn.Name)
	}

	results := make([]Value, 0, len(combos))
	for _, concrete := range combos {
		r, err := fn.Impl(concrete)
		if err != nil {
			return nil, newError(KindCall, s.pos, err, "evaluating %s", fn.Name)
		}
		results = append(results, bk.Classify(r))
	}
	bk.logger.With(map[string]any{
		"fn":           fn.Name,
		"combinations": len(combos),
	}).Debugf("memo call evaluated")
	return UnionOf(results...), nil
}

// possibleArguments enumerates every tuple of concrete values contained in
// values. Each value must be a constant or a constant set. The first
// argument varies fastest.
func possibleArguments(values []Value, limit int) ([][]any, error) {
	choices := make([][]any, len(values))
	total := 1
	for i, v := range values {
		switch {
		case v.IsConstant():
			choices[i] = []any{v.Const()}
		case isPBC(v):
			choices[i] = v.(*PBC).Objects()
		default:
			return nil, fmt.Errorf("%w: %s", ErrMemoNonConstant, v)
		}
		total *= len(choices[i])
		if limit > 0 && total > limit {
			return nil, fmt.Errorf("%w: more than %d", ErrMemoTooLarge, limit)
		}
	}

	combos := [][]any{{}}
	for i := len(choices) - 1; i >= 0; i-- {
		next := make([][]any, 0, len(combos)*len(choices[i]))
		for _, tail := range combos {
			for _, c := range choices[i] {
				combo := make([]any, 0, len(tail)+1)
				combo = append(combo, c)
				combo = append(combo, tail...)
				next = append(next, combo)
			}
		}
		combos = next
	}
	return combos, nil
}

func isPBC(v Value) bool {
	_, ok := v.(*PBC)
	return ok
}

// CallValue calls every object an abstract callee may stand for and joins
// the results.
func (s *Scope) CallValue(callee Value, args *Arguments) (Value, error) {
	switch c := callee.(type) {
	case *PBC:
		results := make([]Value, 0, c.Len())
		for _, obj := range c.Objects() {
			r, err := s.Call(obj, args)
			if err != nil {
				return nil, err
			}
			results = append(results, r)
		}
		return UnionOf(results...), nil
	case *BuiltinFunc:
		return s.runAnalyzer(c.Object, c.Analyzer, args)
	case *Impossible:
		return NewImpossible(), nil
	}
	s.bk.Warn("cannot follow call to %s", callee)
	return NewObject(nil), nil
}

func (s *Scope) callBuiltin(b *annotator.Builtin, args *Arguments) (Value, error) {
	analyzer, ok := s.bk.builtins[b]
	if !ok {
		s.bk.Warn("no analyzer for %s", b)
		return NewObject(nil), nil
	}
	return s.runAnalyzer(b, analyzer, args)
}

func (s *Scope) runAnalyzer(b *annotator.Builtin, analyzer Analyzer, args *Arguments) (Value, error) {
	s.bk.metrics.called("builtin")
	positional, keywords, err := args.Unpack()
	if err == nil && len(keywords) > 0 {
		err = &ArgErr{Msg: b.Name + "() takes no keyword arguments"}
	}
	if err != nil {
		return s.argMismatch(b.Name, err)
	}
	r, err := analyzer(s, positional)
	if err != nil {
		return s.argMismatch(b.Name, err)
	}
	return r, nil
}

// argMismatch applies the configured policy to an argument binding
// failure. Other errors are returned as call errors.
func (s *Scope) argMismatch(callee string, err error) (Value, error) {
	var argErr *ArgErr
	if !errors.As(err, &argErr) {
		var ae *AnalysisError
		if errors.As(err, &ae) {
			return nil, err
		}
		return nil, newError(KindCall, s.pos, err, "calling %s", callee)
	}
	if s.bk.opts.ArgMismatch == ArgMismatchImpossible {
		s.bk.Warn("ignoring bad call to %s: %s", callee, argErr.Msg)
		return NewImpossible(), nil
	}
	return nil, newError(KindArgumentMismatch, s.pos, argErr, "calling %s: %s", callee, argErr.Msg)
}

// kwargsDict builds the **kwargs value of a call at the scope's position.
func (s *Scope) kwargsDict(keywords []Keyword) Value {
	items := make([]KeyValue, len(keywords))
	for i, kw := range keywords {
		items[i] = KeyValue{Key: s.bk.Classify(kw.Name), Value: kw.Value}
	}
	return s.NewDict(items...)
}

func wrapDriverError(pos annotator.Position, err error, format string, args ...any) error {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return err
	}
	return newError(KindDriver, pos, err, format, args...)
}

// shortTypeName summarizes the coarse type of every argument, in the order
// Flatten returns them.
func shortTypeName(args *Arguments) string {
	_, values := args.Flatten()
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = Kind(v)
	}
	return strings.Join(names, "__")
}
