package bookkeeper

import (
	"fmt"

	"github.com/speakeasy-api/annotator"
)

// Specialization is one clone made by SpecializeByKey.
type Specialization struct {
	Original any
	Key      any
	Clone    any
}

// SpecializeByKey returns the clone of thing for key, creating it on first
// request. Functions are cloned under name (default: their own name) once
// the driver has built the original's graph. Leaf classes are cloned into
// a subclass whose methods are renamed "<method>_for_<name>" when a name is
// given; other members are shared.
func (bk *Bookkeeper) SpecializeByKey(thing any, key any, name string) (any, error) {
	k := specKey{thing: thing, key: key}
	if clone, ok := bk.specializations[k]; ok {
		return clone, nil
	}
	pos := bk.CurrentPosition()
	if limit := bk.opts.MaxSpecializations; limit > 0 && len(bk.specOrder) >= limit {
		return nil, newError(KindSpecialization, pos, ErrSpecializationLimit, "cannot specialize %s for %v: %d clones exist", describeObject(thing), key, limit)
	}

	var clone any
	var target string
	switch t := thing.(type) {
	case *annotator.Function:
		// later phases look at the original's graph, so it must exist first
		if err := bk.driver.EnsureGraph(t); err != nil {
			return nil, wrapDriverError(pos, err, "building graph of %s", t.Name)
		}
		if name == "" {
			name = t.Name
		}
		clone = t.WithName(name)
		target = "function"
	case *annotator.Class:
		c, err := bk.specializeClass(t, name)
		if err != nil {
			return nil, err
		}
		clone = c
		target = "class"
	default:
		return nil, newError(KindSpecialization, pos, ErrUnsupportedTarget, "specializing %s", describeObject(thing))
	}

	bk.specializations[k] = clone
	bk.specOrder = append(bk.specOrder, k)
	bk.metrics.specialized(target)
	bk.logger.With(map[string]any{
		"target": target,
		"key":    fmt.Sprint(key),
	}).Debugf("specialized %s as %s", describeObject(thing), describeObject(clone))
	return clone, nil
}

func (bk *Bookkeeper) specializeClass(cls *annotator.Class, name string) (*annotator.Class, error) {
	pos := bk.CurrentPosition()
	for _, ancestor := range cls.MRO()[1:] {
		if ancestor.Policy != annotator.PolicyNone {
			return nil, newError(KindSpecialization, pos, ErrNonLeafSpecialization,
				"%s derives from %s, which declares a specialization", cls, ancestor)
		}
	}
	// Earlier clones create the ClassDef of cls as their base.
	if _, ok := bk.userClasses[cls]; ok && !bk.clonedClasses[cls] {
		bk.Warn("specializing %s, which has already got a ClassDef", cls)
	}
	bk.clonedClasses[cls] = true

	clsName := name
	if clsName == "" {
		clsName = cls.Name
	}
	clone := annotator.NewClass(clsName, cls)
	clone.Freeze = cls.Freeze
	for _, member := range cls.Members() {
		v, _ := cls.Member(member)
		if fn, ok := v.(*annotator.Function); ok {
			fname := fn.Name
			if name != "" {
				fname = fmt.Sprintf("%s_for_%s", fname, name)
			}
			method := fn.WithName(fname)
			method.Class = nil
			v = method
		}
		clone.Set(member, v)
	}
	return clone, nil
}

// Specializations returns every clone in creation order.
func (bk *Bookkeeper) Specializations() []Specialization {
	out := make([]Specialization, len(bk.specOrder))
	for i, k := range bk.specOrder {
		out[i] = Specialization{Original: k.thing, Key: k.key, Clone: bk.specializations[k]}
	}
	return out
}
