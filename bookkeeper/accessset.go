package bookkeeper

import (
	"slices"

	set "github.com/hashicorp/go-set/v3"

	"github.com/speakeasy-api/annotator"
)

// AccessSet groups prebuilt constants that are read through the same
// attribute sites. It remembers every attribute read and every reader.
type AccessSet struct {
	objects       *set.Set[any]
	order         []any
	Attrs         *set.Set[string]
	ReadLocations *set.TreeSet[annotator.Position]
}

func newAccessSet(obj any) *AccessSet {
	return &AccessSet{
		objects:       set.From([]any{obj}),
		order:         []any{obj},
		Attrs:         set.New[string](4),
		ReadLocations: set.NewTreeSet[annotator.Position](annotator.ComparePositions),
	}
}

// Absorb implements Absorber.
func (a *AccessSet) Absorb(other *AccessSet) {
	for _, o := range other.order {
		if a.objects.Insert(o) {
			a.order = append(a.order, o)
		}
	}
	a.Attrs.InsertSet(other.Attrs)
	a.ReadLocations.InsertSet(other.ReadLocations)
}

// Objects returns the merged constants in the order they joined the set.
func (a *AccessSet) Objects() []any {
	return slices.Clone(a.order)
}

// Contains reports whether obj belongs to the set.
func (a *AccessSet) Contains(obj any) bool {
	return a.objects.Contains(obj)
}

// AttrNames returns the attributes read so far, sorted.
func (a *AccessSet) AttrNames() []string {
	names := a.Attrs.Slice()
	slices.Sort(names)
	return names
}
