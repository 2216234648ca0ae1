package bookkeeper

import (
	"reflect"

	"github.com/speakeasy-api/annotator"
)

// Classify returns the most precise value that contains exactly x. Values
// reached through a constant path carry x as their constant payload.
func (bk *Bookkeeper) Classify(x any) Value {
	var result Value
	switch v := x.(type) {
	case nil, annotator.NoneType:
		return bk.GetPBC(annotator.None)
	case bool:
		result = NewBool()
	case int:
		result = NewInteger(v >= 0, false)
	case int8:
		result = NewInteger(v >= 0, false)
	case int16:
		result = NewInteger(v >= 0, false)
	case int32:
		result = NewInteger(v >= 0, false)
	case int64:
		result = NewInteger(v >= 0, false)
	case uint, uint8, uint16, uint32, uint64, uintptr:
		result = NewInteger(true, true)
	case string:
		result = NewString()
	case annotator.Tuple:
		items := make([]Value, len(v))
		for i, e := range v {
			items[i] = bk.Classify(e)
		}
		result = NewTuple(items...)
	case float32, float64:
		result = NewFloat()
	case *annotator.List:
		if cur, ok := bk.classifying[v]; ok {
			return cur
		}
		def := newListDef(bk, nil)
		result = WithConst(NewListValue(def), x)
		bk.classifying[v] = result
		items := make([]Value, len(v.Items))
		for i, e := range v.Items {
			items[i] = bk.Classify(e)
		}
		delete(bk.classifying, v)
		def.Generalize(UnionOf(items...))
		return result
	case *annotator.Dict:
		if cur, ok := bk.classifying[v]; ok {
			return cur
		}
		def := newDictDef(bk, nil, nil)
		result = WithConst(NewDictValue(def), x)
		bk.classifying[v] = result
		keys := make([]Value, 0, v.Len())
		values := make([]Value, 0, v.Len())
		for _, k := range v.Keys() {
			item, _ := v.Get(k)
			keys = append(keys, bk.Classify(k))
			values = append(values, bk.Classify(item))
		}
		delete(bk.classifying, v)
		def.GeneralizeKey(UnionOf(keys...))
		def.GeneralizeValue(UnionOf(values...))
		return result
	case *annotator.Builtin:
		analyzer, ok := bk.builtins[v]
		if !ok {
			return bk.GetPBC(v)
		}
		result = &BuiltinFunc{Object: v, Analyzer: analyzer}
	case *annotator.BoundMethod:
		// the receiver may be a cache that is not frozen yet
		if f, ok := v.Self.(annotator.Freezer); ok {
			f.Freeze()
		}
		if v.Self == nil {
			return bk.GetPBC(v)
		}
		method, err := FindMethod(bk.Classify(v.Self), v.Name())
		if err != nil {
			result = NewObject(nil)
		} else {
			result = method
		}
	case *annotator.Function, *annotator.Class:
		return bk.GetPBC(v)
	case *annotator.Instance:
		return bk.classifyInstance(v)
	default:
		if f, ok := x.(annotator.Freezer); ok && isComparable(x) && f.Freeze() {
			return bk.GetPBC(x)
		}
		result = NewObject(reflect.TypeOf(x))
	}
	result.setConst(x)
	return result
}

func (bk *Bookkeeper) classifyInstance(in *annotator.Instance) Value {
	if in.Freeze() {
		return bk.GetPBC(in)
	}
	cd := bk.ClassDef(in.Class)
	if cd == nil {
		return NewObject(nil)
	}
	// circular mutable structures must not be scanned twice
	if !bk.seenMutable[in] {
		bk.seenMutable[in] = true
		for _, name := range in.AttrNames() {
			cd.AddSourceForAttribute(name, in)
		}
	}
	return NewInstanceValue(cd)
}

// GetPBC returns the constant set of exactly x. The result is cached by
// identity: the same object always maps to the same *PBC.
func (bk *Bookkeeper) GetPBC(x any) *PBC {
	if p, ok := bk.pbcCache[x]; ok {
		return p
	}
	p := NewPBC(x)
	bk.pbcCache[x] = p
	bk.metrics.pbcCreated()

	typ := typeKey(x)
	if !bk.pbcTypes[typ] {
		bk.pbcTypes[typ] = true
		if cls, ok := typ.(*annotator.Class); ok {
			if _, has := bk.userClasses[cls]; has {
				bk.Warn("making some PBC of type %s, which has already got a ClassDef", cls)
			}
		}
	}
	return p
}

// typeKey returns the class of x: the user class for instances, the Go type
// otherwise.
func typeKey(x any) any {
	if in, ok := x.(*annotator.Instance); ok {
		return in.Class
	}
	return reflect.TypeOf(x)
}

func isComparable(x any) bool {
	t := reflect.TypeOf(x)
	return t != nil && t.Comparable()
}
