package bookkeeper

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/speakeasy-api/annotator"
)

// Value is an element of the abstract-value lattice. The set of variants is
// closed: Bool, Integer, Float, String, Tuple, List, Dict, Instance, PBC,
// BuiltinFunc, Impossible and Object.
type Value interface {
	// Const returns the constant payload, meaningful when IsConstant is true.
	Const() any
	// IsConstant reports whether the value stands for exactly one object.
	IsConstant() bool
	String() string

	setConst(c any)
}

type constant struct {
	c     any
	known bool
}

func (k *constant) Const() any       { return k.c }
func (k *constant) IsConstant() bool { return k.known }

func (k *constant) setConst(c any) {
	k.c = c
	k.known = true
}

func (k *constant) constSuffix() string {
	if !k.known {
		return ""
	}
	return fmt.Sprintf("(const=%s)", describeObject(k.c))
}

// Bool is any boolean.
type Bool struct{ constant }

// Integer is any integer. Nonneg and Unsigned refine it; an Integer with
// Nonneg set is contained in the same Integer without it.
type Integer struct {
	constant
	Nonneg   bool
	Unsigned bool
}

// Float is any floating point number.
type Float struct{ constant }

// String is any string.
type String struct{ constant }

// Tuple is a fixed-length sequence with a value per position.
type Tuple struct {
	constant
	Items []Value
}

// List is a list whose items are described by a ListDef.
type List struct {
	constant
	Def *ListDef
}

// Dict is a dict whose keys and values are described by a DictDef.
type Dict struct {
	constant
	Def *DictDef
}

// Instance is an instance of the class described by Def or a subclass.
type Instance struct {
	constant
	Def *ClassDef
}

// PBC is a set of prebuilt constant objects.
type PBC struct {
	constant
	objects []any
	index   map[any]bool
}

// BuiltinFunc is a built-in callable with a registered analyzer.
type BuiltinFunc struct {
	constant
	Object   *annotator.Builtin
	Analyzer Analyzer
}

// Impossible is the bottom of the lattice: no value at all.
type Impossible struct{ constant }

// Object is the top of the lattice. KnownType, when set, is the concrete
// runtime type of every object it stands for.
type Object struct {
	constant
	KnownType reflect.Type
}

// NewBool returns a non-constant Bool.
func NewBool() *Bool { return &Bool{} }

// NewInteger returns a non-constant Integer with the given refinements.
func NewInteger(nonneg, unsigned bool) *Integer {
	return &Integer{Nonneg: nonneg || unsigned, Unsigned: unsigned}
}

// NewFloat returns a non-constant Float.
func NewFloat() *Float { return &Float{} }

// NewString returns a non-constant String.
func NewString() *String { return &String{} }

// NewTuple returns a Tuple of the given item values.
func NewTuple(items ...Value) *Tuple { return &Tuple{Items: items} }

// NewListValue wraps a ListDef.
func NewListValue(def *ListDef) *List { return &List{Def: def} }

// NewDictValue wraps a DictDef.
func NewDictValue(def *DictDef) *Dict { return &Dict{Def: def} }

// NewInstanceValue wraps a ClassDef.
func NewInstanceValue(def *ClassDef) *Instance { return &Instance{Def: def} }

// NewImpossible returns the bottom value.
func NewImpossible() *Impossible { return &Impossible{} }

// NewObject returns the top value, optionally annotated with a known type.
func NewObject(known reflect.Type) *Object { return &Object{KnownType: known} }

// NewPBC returns the set of the given prebuilt objects. A set of exactly one
// object is a constant.
func NewPBC(objects ...any) *PBC {
	p := &PBC{index: make(map[any]bool, len(objects))}
	for _, o := range objects {
		p.add(o)
	}
	if len(p.objects) == 1 {
		p.setConst(p.objects[0])
	}
	return p
}

func (p *PBC) add(o any) {
	if p.index[o] {
		return
	}
	p.index[o] = true
	p.objects = append(p.objects, o)
}

// Objects returns the objects of the set in insertion order.
func (p *PBC) Objects() []any {
	return slices.Clone(p.objects)
}

// Has reports whether o belongs to the set.
func (p *PBC) Has(o any) bool {
	return p.index[o]
}

// Len returns the number of objects in the set.
func (p *PBC) Len() int {
	return len(p.objects)
}

func (v *Bool) String() string { return "Bool" + v.constSuffix() }

func (v *Integer) String() string {
	var flags []string
	if v.Nonneg {
		flags = append(flags, "nonneg")
	}
	if v.Unsigned {
		flags = append(flags, "unsigned")
	}
	s := "Integer"
	if len(flags) > 0 {
		s += "[" + strings.Join(flags, ",") + "]"
	}
	return s + v.constSuffix()
}

func (v *Float) String() string  { return "Float" + v.constSuffix() }
func (v *String) String() string { return "String" + v.constSuffix() }

func (v *Tuple) String() string { return formatValue(v, nil) }
func (v *List) String() string  { return formatValue(v, nil) }
func (v *Dict) String() string  { return formatValue(v, nil) }

// formatValue renders v. A record already being rendered further up is
// printed as "...", so self-containing lists terminate.
func formatValue(v Value, seen map[*itemDef]bool) string {
	switch x := v.(type) {
	case *Tuple:
		items := make([]string, len(x.Items))
		for i, it := range x.Items {
			items[i] = formatValue(it, seen)
		}
		return "Tuple(" + strings.Join(items, ", ") + ")"
	case *List:
		item := x.Def.item
		if seen[item] {
			return "List[...]"
		}
		if seen == nil {
			seen = make(map[*itemDef]bool)
		}
		seen[item] = true
		defer delete(seen, item)
		return "List[" + formatValue(item.value, seen) + "]"
	case *Dict:
		key, value := x.Def.key, x.Def.value
		if seen[key] || seen[value] {
			return "Dict[...]"
		}
		if seen == nil {
			seen = make(map[*itemDef]bool)
		}
		seen[key], seen[value] = true, true
		defer delete(seen, key)
		defer delete(seen, value)
		return "Dict[" + formatValue(key.value, seen) + ": " + formatValue(value.value, seen) + "]"
	}
	return v.String()
}

func (v *Instance) String() string {
	return "Instance(" + v.Def.Name + ")"
}

func (v *PBC) String() string {
	items := make([]string, len(v.objects))
	for i, o := range v.objects {
		items[i] = describeObject(o)
	}
	return "PBC{" + strings.Join(items, ", ") + "}"
}

func (v *BuiltinFunc) String() string {
	return "Builtin(" + v.Object.Name + ")"
}

func (v *Impossible) String() string { return "Impossible" }

func (v *Object) String() string {
	if v.KnownType != nil {
		return "Object(" + v.KnownType.String() + ")" + v.constSuffix()
	}
	return "Object" + v.constSuffix()
}

// WithConst attaches a constant payload to v and returns it.
func WithConst(v Value, c any) Value {
	v.setConst(c)
	return v
}

// Kind is the coarse type name used to key argument-type specialization.
func Kind(v Value) string {
	switch x := v.(type) {
	case *Bool:
		return "Bool"
	case *Integer:
		return "Integer"
	case *Float:
		return "Float"
	case *String:
		return "String"
	case *Tuple:
		return "Tuple"
	case *List:
		return "List"
	case *Dict:
		return "Dict"
	case *Instance:
		return "SI_" + x.Def.Name
	case *PBC:
		return "ConstantSet"
	case *BuiltinFunc:
		return "Builtin"
	case *Impossible:
		return "Impossible"
	case *Object:
		return "Object"
	default:
		panic(fmt.Sprintf("unknown value variant %T", v))
	}
}

// FindMethod looks up a method on every object of a constant set and
// returns the set of bound methods. Only constant sets support the lookup.
func FindMethod(v Value, name string) (Value, error) {
	pbc, ok := v.(*PBC)
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrNoSuchAttribute, name, v)
	}
	methods := make([]any, 0, pbc.Len())
	for _, o := range pbc.objects {
		getter, ok := o.(annotator.AttrGetter)
		if !ok {
			return nil, fmt.Errorf("%w: %s on %s", ErrNoSuchAttribute, name, describeObject(o))
		}
		attr, found := getter.Attr(name)
		if !found {
			return nil, fmt.Errorf("%w: %s on %s", ErrNoSuchAttribute, name, describeObject(o))
		}
		bm, isMethod := attr.(*annotator.BoundMethod)
		if !isMethod {
			return nil, fmt.Errorf("%w: %s on %s is not a method", ErrNoSuchAttribute, name, describeObject(o))
		}
		methods = append(methods, bm)
	}
	return NewPBC(methods...), nil
}

func describeObject(o any) string {
	switch x := o.(type) {
	case nil:
		return "None"
	case string:
		return fmt.Sprintf("%q", x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}
