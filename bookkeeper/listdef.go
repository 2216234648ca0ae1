package bookkeeper

import (
	set "github.com/hashicorp/go-set/v3"

	"github.com/speakeasy-api/annotator"
)

// itemDef is the generalization record shared by every container record
// that has been unified with another. It only ever widens.
type itemDef struct {
	bk      *Bookkeeper
	value   Value
	readers *set.TreeSet[annotator.Position]
	owners  []func(*itemDef) // Repoint a container record at a merged item
}

func newItemDef(bk *Bookkeeper, initial Value) *itemDef {
	if initial == nil {
		initial = NewImpossible()
	}
	return &itemDef{
		bk:      bk,
		value:   initial,
		readers: set.NewTreeSet[annotator.Position](annotator.ComparePositions),
	}
}

func (it *itemDef) read(pos annotator.Position) Value {
	if !pos.IsZero() {
		it.readers.Insert(pos)
	}
	return it.value
}

// generalize widens the item and reflows its readers when it changed.
func (it *itemDef) generalize(v Value) bool {
	widened := Join(it.value, v)
	if Equal(widened, it.value) {
		return false
	}
	it.value = widened
	it.bk.reflowAll(it.readers.Slice())
	return true
}

// merge makes other share it. Readers of a side whose value widened are
// reflowed.
func (it *itemDef) merge(other *itemDef) bool {
	if it == other {
		return false
	}
	widened := Join(it.value, other.value)
	changedSelf := !Equal(widened, it.value)
	changedOther := !Equal(widened, other.value)
	var stale []annotator.Position
	if changedSelf {
		stale = append(stale, it.readers.Slice()...)
	}
	if changedOther {
		stale = append(stale, other.readers.Slice()...)
	}
	it.value = widened
	it.readers.InsertSet(other.readers)
	for _, repoint := range other.owners {
		repoint(it)
		it.owners = append(it.owners, repoint)
	}
	other.owners = nil
	it.bk.reflowAll(stale)
	return changedSelf || changedOther
}

// ListDef describes the items of every list created at one position, and of
// every list it has been joined with.
type ListDef struct {
	item *itemDef
}

func newListDef(bk *Bookkeeper, initial Value) *ListDef {
	d := &ListDef{item: newItemDef(bk, initial)}
	d.item.owners = append(d.item.owners, func(it *itemDef) { d.item = it })
	return d
}

// Item returns the current join of all items.
func (d *ListDef) Item() Value {
	return d.item.value
}

// Read returns the item value and records the scope's position as a reader.
func (d *ListDef) Read(s *Scope) Value {
	return d.item.read(s.Position())
}

// Generalize widens the item type to cover v. It reports whether the record
// changed.
func (d *ListDef) Generalize(v Value) bool {
	return d.item.generalize(v)
}

// Union unifies d and other so that both describe the join of their items.
func (d *ListDef) Union(other *ListDef) bool {
	return d.item.merge(other.item)
}

// Same reports whether d and other share their generalization record.
func (d *ListDef) Same(other *ListDef) bool {
	return d.item == other.item
}
