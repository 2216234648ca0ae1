package bookkeeper

import (
	"github.com/speakeasy-api/annotator"
)

// GetAttr reads a constant attribute off every object of a constant set.
// The objects are merged into one access set; when that merge changes the
// set, every earlier reader of it is queued for reflow, since it may have
// seen too few objects.
func (s *Scope) GetAttr(pbc *PBC, attr Value) (Value, error) {
	if !attr.IsConstant() {
		return nil, newError(KindAttribute, s.pos, ErrNonConstantAttr, "getattr with %s", attr)
	}
	name, ok := attr.Const().(string)
	if !ok {
		return nil, newError(KindAttribute, s.pos, ErrNonConstantAttr, "attribute name %v is not a string", attr.Const())
	}
	if pbc.Len() == 0 {
		return NewImpossible(), nil
	}
	bk := s.bk

	objects := pbc.Objects()
	change, rep, access := bk.accessSets.Find(objects[0])
	for _, obj := range objects[1:] {
		var changed bool
		changed, rep, access = bk.accessSets.Union(rep, obj)
		change = change || changed
	}

	// readers recorded before this read are the ones that may be stale
	var stale []annotator.Position
	if change {
		for _, pos := range access.ReadLocations.Slice() {
			if pos != s.pos {
				stale = append(stale, pos)
			}
		}
	}

	access.Attrs.Insert(name)
	if !s.pos.IsZero() {
		access.ReadLocations.Insert(s.pos)
	}

	actuals := make([]Value, 0, len(access.order))
	for _, obj := range access.Objects() {
		getter, ok := obj.(annotator.AttrGetter)
		if !ok {
			continue
		}
		if v, found := getter.Attr(name); found {
			actuals = append(actuals, bk.Classify(v))
		}
	}

	if len(stale) > 0 {
		bk.metrics.accessSetMerged()
		bk.logger.With(map[string]any{
			"pos":     s.pos,
			"attr":    name,
			"objects": len(access.order),
		}).Debugf("access set changed, reflowing %d readers", len(stale))
		bk.reflowAll(stale)
	}
	return UnionOf(actuals...), nil
}

// AccessSet returns the access set obj currently belongs to, if any.
func (bk *Bookkeeper) AccessSet(obj any) (*AccessSet, bool) {
	if _, known := bk.accessSets.parent[obj]; !known {
		return nil, false
	}
	_, _, access := bk.accessSets.Find(obj)
	return access, true
}

// AccessSets returns the current access sets in creation order.
func (bk *Bookkeeper) AccessSets() []*AccessSet {
	roots := bk.accessSets.Roots()
	out := make([]*AccessSet, len(roots))
	for i, r := range roots {
		_, _, out[i] = bk.accessSets.Find(r)
	}
	return out
}
