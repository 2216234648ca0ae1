package bookkeeper

import (
	"slices"
	"strings"

	set "github.com/hashicorp/go-set/v3"

	"github.com/speakeasy-api/annotator"
)

// Attribute is the generalization record of one attribute of a ClassDef.
type Attribute struct {
	Name  string
	Value Value

	sources *set.Set[any]
	order   []any
	readers *set.TreeSet[annotator.Position]
}

func newAttribute(name string) *Attribute {
	return &Attribute{
		Name:    name,
		Value:   NewImpossible(),
		sources: set.New[any](4),
		readers: set.NewTreeSet[annotator.Position](annotator.ComparePositions),
	}
}

// Sources returns the objects that contributed to the attribute.
func (a *Attribute) Sources() []any {
	return slices.Clone(a.order)
}

// Readers returns the positions that read the attribute, in order.
func (a *Attribute) Readers() []annotator.Position {
	return a.readers.Slice()
}

// ClassDef collects the attribute types of every instance of one user class.
type ClassDef struct {
	Class *annotator.Class
	Name  string
	Base  *ClassDef

	bk      *Bookkeeper
	subdefs []*ClassDef
	attrs   map[string]*Attribute
	names   []string
}

func newClassDef(bk *Bookkeeper, cls *annotator.Class, base *ClassDef) *ClassDef {
	cd := &ClassDef{
		Class: cls,
		Name:  cls.Name,
		Base:  base,
		bk:    bk,
		attrs: make(map[string]*Attribute),
	}
	if base != nil {
		base.subdefs = append(base.subdefs, cd)
	}
	return cd
}

// Ancestors returns cd followed by its base chain.
func (cd *ClassDef) Ancestors() []*ClassDef {
	var out []*ClassDef
	for d := cd; d != nil; d = d.Base {
		out = append(out, d)
	}
	return out
}

// IsSubclassOf reports whether other is cd or one of its bases.
func (cd *ClassDef) IsSubclassOf(other *ClassDef) bool {
	return slices.Contains(cd.Ancestors(), other)
}

// Subdefs returns the direct subclasses known so far.
func (cd *ClassDef) Subdefs() []*ClassDef {
	return slices.Clone(cd.subdefs)
}

// CommonBase returns the most derived ClassDef both a and b derive from,
// or nil when they share none.
func CommonBase(a, b *ClassDef) *ClassDef {
	ancestors := set.From(a.Ancestors())
	for d := b; d != nil; d = d.Base {
		if ancestors.Contains(d) {
			return d
		}
	}
	return nil
}

// Attrs returns the attribute names recorded directly on cd.
func (cd *ClassDef) Attrs() []string {
	return slices.Clone(cd.names)
}

// Attr returns the attribute record declared on cd or a base.
func (cd *ClassDef) Attr(name string) (*Attribute, bool) {
	a := cd.locate(name)
	return a, a != nil
}

func (cd *ClassDef) locate(name string) *Attribute {
	for d := cd; d != nil; d = d.Base {
		if a, ok := d.attrs[name]; ok {
			return a
		}
	}
	return nil
}

// attribute returns the record for name, creating it on cd when no base
// declares it. Records of the same name on subclasses move up into the new
// one and their readers are reflowed.
func (cd *ClassDef) attribute(name string) *Attribute {
	if a := cd.locate(name); a != nil {
		return a
	}
	a := newAttribute(name)
	var stale []annotator.Position
	var pull func(d *ClassDef)
	pull = func(d *ClassDef) {
		for _, sub := range d.subdefs {
			if moved, ok := sub.attrs[name]; ok {
				a.Value = Join(a.Value, moved.Value)
				for _, src := range moved.order {
					if a.sources.Insert(src) {
						a.order = append(a.order, src)
					}
				}
				a.readers.InsertSet(moved.readers)
				stale = append(stale, moved.readers.Slice()...)
				delete(sub.attrs, name)
				sub.names = slices.DeleteFunc(sub.names, func(n string) bool { return n == name })
			}
			pull(sub)
		}
	}
	pull(cd)
	cd.attrs[name] = a
	cd.names = append(cd.names, name)
	cd.bk.reflowAll(stale)
	return a
}

func (cd *ClassDef) generalizeAttribute(a *Attribute, v Value) {
	widened := Join(a.Value, v)
	if Equal(widened, a.Value) {
		return
	}
	a.Value = widened
	cd.bk.reflowAll(a.readers.Slice())
}

// AddSourceForAttribute records that source (an instance or the class
// itself) provides name, and widens the attribute to the classification of
// its current value. Each source is only considered once per attribute.
func (cd *ClassDef) AddSourceForAttribute(name string, source annotator.AttrGetter) {
	a := cd.attribute(name)
	if !a.sources.Insert(source) {
		return
	}
	a.order = append(a.order, source)
	raw, ok := source.Attr(name)
	if !ok {
		return
	}
	cd.generalizeAttribute(a, cd.bk.Classify(raw))
}

// GeneralizeAttr widens name to cover v, as for an attribute store.
func (cd *ClassDef) GeneralizeAttr(name string, v Value) {
	cd.generalizeAttribute(cd.attribute(name), v)
}

// ReadAttr returns the current type of name and records the scope as a
// reader of it.
func (cd *ClassDef) ReadAttr(s *Scope, name string) Value {
	a := cd.attribute(name)
	if pos := s.Position(); !pos.IsZero() {
		a.readers.Insert(pos)
	}
	return a.Value
}

func (cd *ClassDef) String() string {
	names := make([]string, 0, len(cd.Ancestors()))
	for _, d := range cd.Ancestors() {
		names = append(names, d.Name)
	}
	return "ClassDef(" + strings.Join(names, " < ") + ")"
}

// classMemberSource reports whether a class member describes instance state.
func classMemberSource(name string) bool {
	return !strings.HasPrefix(name, "__")
}
