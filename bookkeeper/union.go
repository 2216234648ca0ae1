package bookkeeper

import (
	"reflect"

	"github.com/speakeasy-api/annotator"
)

// UnionOf joins all values. The join of nothing is Impossible.
func UnionOf(values ...Value) Value {
	var result Value = NewImpossible()
	for _, v := range values {
		result = Join(result, v)
	}
	return result
}

// Join returns the least value containing both a and b. It is commutative,
// associative and monotonic. Joining two lists or two dicts unifies their
// records, so the result describes both from then on.
func Join(a, b Value) Value {
	if a == nil {
		return b
	}
	if b == nil || a == b {
		return a
	}
	if Equal(a, b) {
		return a
	}
	if _, ok := a.(*Impossible); ok {
		return b
	}
	if _, ok := b.(*Impossible); ok {
		return a
	}
	if _, ok := b.(*Object); ok {
		a, b = b, a
	}

	switch x := a.(type) {
	case *Object:
		if y, ok := b.(*Object); ok && x.KnownType == y.KnownType {
			return NewObject(x.KnownType)
		}
		return NewObject(nil)

	case *Bool:
		switch y := b.(type) {
		case *Bool:
			return NewBool()
		case *Integer:
			return NewInteger(y.Nonneg, y.Unsigned)
		case *Float:
			return NewFloat()
		}

	case *Integer:
		switch y := b.(type) {
		case *Bool:
			return NewInteger(x.Nonneg, x.Unsigned)
		case *Integer:
			return NewInteger(x.Nonneg && y.Nonneg, x.Unsigned || y.Unsigned)
		case *Float:
			return NewFloat()
		}

	case *Float:
		switch b.(type) {
		case *Bool, *Integer, *Float:
			return NewFloat()
		}

	case *String:
		if _, ok := b.(*String); ok {
			return NewString()
		}

	case *Tuple:
		if y, ok := b.(*Tuple); ok && len(x.Items) == len(y.Items) {
			items := make([]Value, len(x.Items))
			for i := range x.Items {
				items[i] = Join(x.Items[i], y.Items[i])
			}
			return NewTuple(items...)
		}

	case *List:
		if y, ok := b.(*List); ok {
			x.Def.Union(y.Def)
			return NewListValue(x.Def)
		}

	case *Dict:
		if y, ok := b.(*Dict); ok {
			x.Def.Union(y.Def)
			return NewDictValue(x.Def)
		}

	case *Instance:
		if y, ok := b.(*Instance); ok {
			if base := CommonBase(x.Def, y.Def); base != nil {
				return NewInstanceValue(base)
			}
		}

	case *PBC:
		if y, ok := b.(*PBC); ok {
			merged := NewPBC(x.objects...)
			for _, o := range y.objects {
				merged.add(o)
			}
			if len(merged.objects) != 1 {
				merged.constant = constant{}
			}
			return merged
		}

	case *BuiltinFunc:
		if y, ok := b.(*BuiltinFunc); ok && x.Object == y.Object {
			return &BuiltinFunc{Object: x.Object, Analyzer: x.Analyzer}
		}
	}
	return NewObject(nil)
}

// Equal reports whether a and b denote the same lattice element, constant
// payload included.
func Equal(a, b Value) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.IsConstant() != b.IsConstant() {
		return false
	}
	if a.IsConstant() && !sameConst(a.Const(), b.Const()) {
		return false
	}
	switch x := a.(type) {
	case *Bool:
		_, ok := b.(*Bool)
		return ok
	case *Integer:
		y, ok := b.(*Integer)
		return ok && x.Nonneg == y.Nonneg && x.Unsigned == y.Unsigned
	case *Float:
		_, ok := b.(*Float)
		return ok
	case *String:
		_, ok := b.(*String)
		return ok
	case *Tuple:
		y, ok := b.(*Tuple)
		if !ok || len(x.Items) != len(y.Items) {
			return false
		}
		for i := range x.Items {
			if !Equal(x.Items[i], y.Items[i]) {
				return false
			}
		}
		return true
	case *List:
		y, ok := b.(*List)
		return ok && x.Def.item == y.Def.item
	case *Dict:
		y, ok := b.(*Dict)
		return ok && x.Def.key == y.Def.key && x.Def.value == y.Def.value
	case *Instance:
		y, ok := b.(*Instance)
		return ok && x.Def == y.Def
	case *PBC:
		y, ok := b.(*PBC)
		if !ok || len(x.objects) != len(y.objects) {
			return false
		}
		for _, o := range x.objects {
			if !y.index[o] {
				return false
			}
		}
		return true
	case *BuiltinFunc:
		y, ok := b.(*BuiltinFunc)
		return ok && x.Object == y.Object
	case *Impossible:
		_, ok := b.(*Impossible)
		return ok
	case *Object:
		y, ok := b.(*Object)
		return ok && x.KnownType == y.KnownType
	}
	return false
}

// Contains reports whether big already covers small in the lattice order.
// Like Join, it unifies list and dict records it meets.
func Contains(big, small Value) bool {
	return Equal(Join(big, small), big)
}

func sameConst(x, y any) bool {
	if tx, ok := x.(annotator.Tuple); ok {
		ty, ok := y.(annotator.Tuple)
		if !ok || len(tx) != len(ty) {
			return false
		}
		for i := range tx {
			if !sameConst(tx[i], ty[i]) {
				return false
			}
		}
		return true
	}
	if x == nil || y == nil {
		return x == y
	}
	if reflect.TypeOf(x) != reflect.TypeOf(y) || !reflect.TypeOf(x).Comparable() {
		return false
	}
	return x == y
}
