// Package starlarkobj loads Starlark modules and exposes their globals as
// the concrete objects the bookkeeper classifies.
//
// Functions keep their signature and defaults and can be evaluated through
// Function.Impl, which memo specialization relies on. Structs become frozen
// instances of one class per constructor. A module declares specialization
// policies with the predeclared marker:
//
//	def pick(which):
//	    return TABLE[which]
//
//	specialize(pick, "memo")
package starlarkobj

import (
	"errors"
	"fmt"
	"reflect"
	"slices"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/speakeasy-api/annotator"
)

// ErrUnsupportedValue is returned for Starlark values without a concrete
// object counterpart.
var ErrUnsupportedValue = errors.New("unsupported starlark value")

// Module is a loaded Starlark module.
type Module struct {
	Filename string

	globals map[string]any
	names   []string
	conv    *converter
}

type loadConfig struct {
	maxSteps uint64
	print    func(msg string)
}

// LoadOption customizes Load.
type LoadOption func(*loadConfig)

// WithMaxSteps bounds the number of execution steps of the module and of
// every later evaluation of its functions.
func WithMaxSteps(n uint64) LoadOption {
	return func(c *loadConfig) {
		c.maxSteps = n
	}
}

// WithPrint receives the output of print() calls, which are dropped by
// default.
func WithPrint(fn func(msg string)) LoadOption {
	return func(c *loadConfig) {
		c.print = fn
	}
}

// Load executes a Starlark module and converts its public globals. src is
// anything starlark.ExecFile accepts: nil (read filename), a string, or
// []byte.
func Load(filename string, src any, opts ...LoadOption) (*Module, error) {
	cfg := &loadConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	thread := &starlark.Thread{
		Name: "annotator",
		Print: func(_ *starlark.Thread, msg string) {
			if cfg.print != nil {
				cfg.print(msg)
			}
		},
	}
	if cfg.maxSteps > 0 {
		thread.SetMaxExecutionSteps(cfg.maxSteps)
	}

	conv := newConverter(thread)
	predeclared := starlark.StringDict{
		"struct":     starlark.NewBuiltin("struct", starlarkstruct.Make),
		"specialize": starlark.NewBuiltin("specialize", conv.specialize),
	}

	globals, err := starlark.ExecFile(thread, filename, src, predeclared)
	if err != nil {
		return nil, fmt.Errorf("starlark execution failed: %w", err)
	}

	m := &Module{
		Filename: filename,
		globals:  make(map[string]any, len(globals)),
		conv:     conv,
	}
	// Keys are sorted
	for _, name := range globals.Keys() {
		// Skip internal variables (starting with _)
		if len(name) > 0 && name[0] == '_' {
			continue
		}
		obj, err := conv.fromStarlark(globals[name])
		if err != nil {
			return nil, fmt.Errorf("failed to convert global %s: %w", name, err)
		}
		m.globals[name] = obj
		m.names = append(m.names, name)
	}
	return m, nil
}

// Get returns the converted global name.
func (m *Module) Get(name string) (any, bool) {
	v, ok := m.globals[name]
	return v, ok
}

// Names returns the converted globals, sorted.
func (m *Module) Names() []string {
	return slices.Clone(m.names)
}

// Function returns the global name, which must be a function.
func (m *Module) Function(name string) (*annotator.Function, error) {
	v, ok := m.globals[name]
	if !ok {
		return nil, fmt.Errorf("%s has no global %s", m.Filename, name)
	}
	fn, ok := v.(*annotator.Function)
	if !ok {
		return nil, fmt.Errorf("global %s is not a function", name)
	}
	return fn, nil
}

// Class returns the class of structs built by the given constructor
// ("struct" for plain structs), if any was converted.
func (m *Module) Class(constructor string) (*annotator.Class, bool) {
	cls, ok := m.conv.classes[constructor]
	return cls, ok
}

type converter struct {
	thread   *starlark.Thread
	policies map[*starlark.Function]annotator.Policy
	classes  map[string]*annotator.Class
	builtins map[string]*annotator.Builtin

	// Mutable and callable values keep their identity across conversions
	objects map[starlark.Value]any
	reverse map[any]starlark.Value
}

func newConverter(thread *starlark.Thread) *converter {
	return &converter{
		thread:   thread,
		policies: make(map[*starlark.Function]annotator.Policy),
		classes:  make(map[string]*annotator.Class),
		builtins: make(map[string]*annotator.Builtin),
		objects:  make(map[starlark.Value]any),
		reverse:  make(map[any]starlark.Value),
	}
}

// specialize implements the specialize(fn, tag) marker.
func (c *converter) specialize(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var fn *starlark.Function
	var tag string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &fn, &tag); err != nil {
		return nil, err
	}
	policy, err := annotator.ParsePolicy(tag)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	c.policies[fn] = policy
	return fn, nil
}

func (c *converter) remember(sv starlark.Value, obj any) {
	c.objects[sv] = obj
	c.reverse[obj] = sv
}

// fromStarlark converts a Starlark value to a concrete object.
func (c *converter) fromStarlark(v starlark.Value) (any, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return annotator.None, nil
	case starlark.Bool:
		return bool(val), nil
	case starlark.Int:
		i, ok := val.Int64()
		if !ok {
			return nil, fmt.Errorf("%w: integer %s too large", ErrUnsupportedValue, val)
		}
		return int(i), nil
	case starlark.Float:
		return float64(val), nil
	case starlark.String:
		return string(val), nil
	case starlark.Tuple:
		out := make(annotator.Tuple, len(val))
		for i, item := range val {
			obj, err := c.fromStarlark(item)
			if err != nil {
				return nil, err
			}
			out[i] = obj
		}
		return out, nil
	}

	if obj, ok := c.objects[v]; ok {
		return obj, nil
	}

	switch val := v.(type) {
	case *starlark.List:
		list := annotator.NewList()
		c.remember(val, list)
		for i := 0; i < val.Len(); i++ {
			item, err := c.fromStarlark(val.Index(i))
			if err != nil {
				return nil, err
			}
			list.Items = append(list.Items, item)
		}
		return list, nil
	case *starlark.Dict:
		dict := annotator.NewDict()
		c.remember(val, dict)
		for _, item := range val.Items() {
			key, err := c.fromStarlark(item[0])
			if err != nil {
				return nil, err
			}
			if _, isTuple := key.(annotator.Tuple); isTuple {
				return nil, fmt.Errorf("%w: tuple dict key %s", ErrUnsupportedValue, item[0])
			}
			value, err := c.fromStarlark(item[1])
			if err != nil {
				return nil, err
			}
			dict.Set(key, value)
		}
		return dict, nil
	case *starlark.Function:
		return c.function(val)
	case *starlark.Builtin:
		b := c.builtin(val.Name())
		c.remember(val, b)
		return b, nil
	case *starlarkstruct.Struct:
		return c.instance(val)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedValue, v.Type())
	}
}

func (c *converter) builtin(name string) *annotator.Builtin {
	if b, ok := annotator.Builtins[name]; ok {
		return b
	}
	b, ok := c.builtins[name]
	if !ok {
		b = annotator.NewBuiltin(name)
		c.builtins[name] = b
	}
	return b
}

func (c *converter) function(sf *starlark.Function) (*annotator.Function, error) {
	// Signature has no keyword-only parameters
	if sf.NumKwonlyParams() > 0 {
		return nil, fmt.Errorf("%w: %s has keyword-only parameters", ErrUnsupportedValue, sf.Name())
	}
	n := sf.NumParams()
	positional := n
	if sf.HasVarargs() {
		positional--
	}
	if sf.HasKwargs() {
		positional--
	}

	fn := &annotator.Function{Name: sf.Name(), Policy: c.policies[sf]}
	c.remember(sf, fn)
	for i := 0; i < positional; i++ {
		name, _ := sf.Param(i)
		fn.Sig.Params = append(fn.Sig.Params, name)
	}
	if sf.HasVarargs() {
		fn.Sig.Vararg, _ = sf.Param(positional)
	}
	if sf.HasKwargs() {
		fn.Sig.Kwarg, _ = sf.Param(n - 1)
	}

	// defaults cover the trailing parameters from the first optional one
	for i := 0; i < positional; i++ {
		d := sf.ParamDefault(i)
		if d == nil && len(fn.Defaults) == 0 {
			continue
		}
		if d == nil {
			fn.Defaults = append(fn.Defaults, annotator.None)
			continue
		}
		obj, err := c.fromStarlark(d)
		if err != nil {
			return nil, fmt.Errorf("default of %s: %w", fn.Name, err)
		}
		fn.Defaults = append(fn.Defaults, obj)
	}

	fn.Impl = func(args []any) (any, error) {
		sargs := make(starlark.Tuple, len(args))
		for i, a := range args {
			sv, err := c.toStarlark(a)
			if err != nil {
				return nil, err
			}
			sargs[i] = sv
		}
		result, err := starlark.Call(c.thread, sf, sargs, nil)
		if err != nil {
			return nil, fmt.Errorf("calling %s: %w", sf.Name(), err)
		}
		return c.fromStarlark(result)
	}
	return fn, nil
}

func (c *converter) instance(s *starlarkstruct.Struct) (*annotator.Instance, error) {
	ctor := s.Constructor().String()
	if str, ok := s.Constructor().(starlark.String); ok {
		ctor = string(str)
	}
	cls, ok := c.classes[ctor]
	if !ok {
		cls = annotator.NewClass(ctor)
		// module globals are frozen once loaded
		cls.Freeze = func(*annotator.Instance) bool { return true }
		c.classes[ctor] = cls
	}

	in := annotator.NewInstance(cls)
	c.remember(s, in)
	for _, name := range s.AttrNames() {
		attr, err := s.Attr(name)
		if err != nil {
			continue
		}
		obj, err := c.fromStarlark(attr)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", name, err)
		}
		in.SetAttr(name, obj)
	}
	return in, nil
}

// toStarlark converts a concrete object back for evaluation.
func (c *converter) toStarlark(obj any) (starlark.Value, error) {
	switch v := obj.(type) {
	case nil, annotator.NoneType:
		return starlark.None, nil
	case bool:
		return starlark.Bool(v), nil
	case int:
		return starlark.MakeInt(v), nil
	case int64:
		return starlark.MakeInt64(v), nil
	case float64:
		return starlark.Float(v), nil
	case string:
		return starlark.String(v), nil
	case annotator.Tuple:
		out := make(starlark.Tuple, len(v))
		for i, item := range v {
			sv, err := c.toStarlark(item)
			if err != nil {
				return nil, err
			}
			out[i] = sv
		}
		return out, nil
	}
	if t := reflect.TypeOf(obj); t.Comparable() {
		if sv, ok := c.reverse[obj]; ok {
			return sv, nil
		}
	}
	return nil, fmt.Errorf("%w: cannot pass %T to starlark", ErrUnsupportedValue, obj)
}
