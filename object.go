package annotator

import "slices"

// NoneType is the type of None.
type NoneType struct{}

// None is the null constant of the analyzed program.
var None = NoneType{}

func (NoneType) String() string { return "None" }

// Freezer is implemented by prebuilt objects that can declare themselves
// immutable. Freeze may finish building a lazily constructed object before
// answering.
type Freezer interface {
	Freeze() bool
}

// AttrGetter is implemented by objects whose attributes can be read at
// analysis time.
type AttrGetter interface {
	Attr(name string) (any, bool)
}

// Tuple is an immutable sequence constant.
type Tuple []any

// List is a prebuilt list constant. Lists are compared by identity.
type List struct {
	Items []any
}

// NewList creates a prebuilt list holding items.
func NewList(items ...any) *List {
	return &List{Items: items}
}

// Dict is a prebuilt dict constant with insertion-ordered keys.
type Dict struct {
	keys   []any
	values map[any]any
}

// NewDict creates an empty prebuilt dict.
func NewDict() *Dict {
	return &Dict{values: make(map[any]any)}
}

// Set stores value under key. Keys must be comparable.
func (d *Dict) Set(key, value any) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Get returns the value stored under key.
func (d *Dict) Get(key any) (any, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []any {
	return slices.Clone(d.keys)
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	return len(d.keys)
}

// Signature is the declared parameter list of a function.
type Signature struct {
	Params []string // Named positional parameters
	Vararg string   // Name of the *args parameter, "" if none
	Kwarg  string   // Name of the **kwargs parameter, "" if none
}

// HasVararg reports whether the signature collects extra positional arguments.
func (s Signature) HasVararg() bool {
	return s.Vararg != ""
}

// Function is a user-level function of the analyzed program.
type Function struct {
	Name     string
	Sig      Signature
	Defaults []any  // Default values for the trailing len(Defaults) params
	Policy   Policy // Specialization policy declared for the function
	Class    *Class // Class the function was found on, for diagnostics

	// Impl evaluates the function on concrete arguments. Only memo
	// specialization calls it.
	Impl func(args []any) (any, error)

	// Origin is the function this one was cloned from, nil for originals.
	Origin *Function
}

// NewFunction creates a function with the given positional parameters.
func NewFunction(name string, params ...string) *Function {
	return &Function{Name: name, Sig: Signature{Params: params}}
}

// WithName returns a copy of f carrying a new name. The copy is a distinct
// object and shares the implementation.
func (f *Function) WithName(name string) *Function {
	clone := *f
	clone.Name = name
	clone.Sig.Params = slices.Clone(f.Sig.Params)
	clone.Defaults = slices.Clone(f.Defaults)
	clone.Origin = f
	return &clone
}

func (f *Function) String() string { return "<function " + f.Name + ">" }

// Builtin is a built-in callable, analyzed by a registered analyzer rather
// than by flowing into its body.
type Builtin struct {
	Name string
}

// NewBuiltin creates a built-in callable.
func NewBuiltin(name string) *Builtin {
	return &Builtin{Name: name}
}

func (b *Builtin) String() string { return "<built-in " + b.Name + ">" }

// Class is a class of the analyzed program.
type Class struct {
	Name    string
	Bases   []*Class
	Policy  Policy
	Builtin bool // Classes of the runtime itself, never given a ClassDef

	// Freeze, when set, is consulted by instances to decide whether they are
	// prebuilt constants.
	Freeze func(in *Instance) bool

	members map[string]any
	order   []string
}

// ObjectClass is the root of every class hierarchy.
var ObjectClass = &Class{Name: "object", Builtin: true}

// NewClass creates a user class. Without bases the class derives from
// ObjectClass.
func NewClass(name string, bases ...*Class) *Class {
	if len(bases) == 0 {
		bases = []*Class{ObjectClass}
	}
	return &Class{Name: name, Bases: bases, members: make(map[string]any)}
}

// Set defines a class member. Functions stored on a class record the class
// for diagnostics.
func (c *Class) Set(name string, value any) {
	if c.members == nil {
		c.members = make(map[string]any)
	}
	if _, ok := c.members[name]; !ok {
		c.order = append(c.order, name)
	}
	if fn, ok := value.(*Function); ok && fn.Class == nil {
		fn.Class = c
	}
	c.members[name] = value
}

// Member returns a member defined directly on c.
func (c *Class) Member(name string) (any, bool) {
	v, ok := c.members[name]
	return v, ok
}

// Members returns the names defined directly on c, in definition order.
func (c *Class) Members() []string {
	return slices.Clone(c.order)
}

// MRO returns c followed by its ancestors, depth first, without duplicates.
func (c *Class) MRO() []*Class {
	var out []*Class
	seen := make(map[*Class]bool)
	var walk func(k *Class)
	walk = func(k *Class) {
		if seen[k] {
			return
		}
		seen[k] = true
		out = append(out, k)
		for _, b := range k.Bases {
			walk(b)
		}
	}
	walk(c)
	return out
}

// Lookup finds name along the MRO and returns the value and the class that
// defines it.
func (c *Class) Lookup(name string) (any, *Class, bool) {
	for _, k := range c.MRO() {
		if v, ok := k.members[name]; ok {
			return v, k, true
		}
	}
	return nil, nil, false
}

// Attr implements AttrGetter.
func (c *Class) Attr(name string) (any, bool) {
	v, _, ok := c.Lookup(name)
	return v, ok
}

// Init returns the constructor declared by c or one of its user-level
// ancestors.
func (c *Class) Init() (*Function, bool) {
	v, owner, ok := c.Lookup("__init__")
	if !ok || owner.Builtin {
		return nil, false
	}
	fn, ok := v.(*Function)
	return fn, ok
}

// IsSubclassOf reports whether other appears in the MRO of c.
func (c *Class) IsSubclassOf(other *Class) bool {
	return slices.Contains(c.MRO(), other)
}

func (c *Class) String() string { return "<class " + c.Name + ">" }

// Instance is an instance of a user class.
type Instance struct {
	Class *Class

	attrs map[string]any
	order []string
	bound map[string]*BoundMethod
}

// NewInstance creates an instance of cls without attributes.
func NewInstance(cls *Class) *Instance {
	return &Instance{Class: cls, attrs: make(map[string]any)}
}

// SetAttr stores an instance attribute.
func (in *Instance) SetAttr(name string, value any) {
	if in.attrs == nil {
		in.attrs = make(map[string]any)
	}
	if _, ok := in.attrs[name]; !ok {
		in.order = append(in.order, name)
	}
	in.attrs[name] = value
}

// AttrNames returns the attributes set on the instance itself.
func (in *Instance) AttrNames() []string {
	return slices.Clone(in.order)
}

// Attr implements AttrGetter. Functions found on the class come back bound
// to the instance; the same BoundMethod is returned on every lookup.
func (in *Instance) Attr(name string) (any, bool) {
	if v, ok := in.attrs[name]; ok {
		return v, true
	}
	v, _, ok := in.Class.Lookup(name)
	if !ok {
		return nil, false
	}
	if fn, isFn := v.(*Function); isFn {
		return in.Bind(name, fn), true
	}
	return v, true
}

// Bind returns the cached bound method for fn under name.
func (in *Instance) Bind(name string, fn *Function) *BoundMethod {
	if bm, ok := in.bound[name]; ok && bm.Func == fn {
		return bm
	}
	if in.bound == nil {
		in.bound = make(map[string]*BoundMethod)
	}
	bm := &BoundMethod{Self: in, Func: fn, Class: in.Class}
	in.bound[name] = bm
	return bm
}

// Freeze implements Freezer using the class hook.
func (in *Instance) Freeze() bool {
	for _, k := range in.Class.MRO() {
		if k.Freeze != nil {
			return k.Freeze(in)
		}
	}
	return false
}

func (in *Instance) String() string { return "<" + in.Class.Name + " instance>" }

// BoundMethod is a function bound to a receiver.
type BoundMethod struct {
	Self  any
	Func  *Function
	Class *Class
}

// Name returns the name of the underlying function.
func (bm *BoundMethod) Name() string {
	return bm.Func.Name
}

func (bm *BoundMethod) String() string {
	return "<bound method " + bm.Class.Name + "." + bm.Func.Name + ">"
}
