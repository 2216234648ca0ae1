package bookkeeper

// DictDef describes the keys and values of every dict created at one
// position, and of every dict it has been joined with.
type DictDef struct {
	key   *itemDef
	value *itemDef
}

func newDictDef(bk *Bookkeeper, key, value Value) *DictDef {
	d := &DictDef{
		key:   newItemDef(bk, key),
		value: newItemDef(bk, value),
	}
	d.key.owners = append(d.key.owners, func(it *itemDef) { d.key = it })
	d.value.owners = append(d.value.owners, func(it *itemDef) { d.value = it })
	return d
}

// Key returns the current join of all keys.
func (d *DictDef) Key() Value {
	return d.key.value
}

// Value returns the current join of all values.
func (d *DictDef) Value() Value {
	return d.value.value
}

// ReadKey returns the key type and records the scope as a reader.
func (d *DictDef) ReadKey(s *Scope) Value {
	return d.key.read(s.Position())
}

// ReadValue returns the value type and records the scope as a reader.
func (d *DictDef) ReadValue(s *Scope) Value {
	return d.value.read(s.Position())
}

// GeneralizeKey widens the key type to cover v.
func (d *DictDef) GeneralizeKey(v Value) bool {
	return d.key.generalize(v)
}

// GeneralizeValue widens the value type to cover v.
func (d *DictDef) GeneralizeValue(v Value) bool {
	return d.value.generalize(v)
}

// Union unifies the key and value records of d and other.
func (d *DictDef) Union(other *DictDef) bool {
	changedKey := d.key.merge(other.key)
	changedValue := d.value.merge(other.value)
	return changedKey || changedValue
}

// Same reports whether d and other share their generalization records.
func (d *DictDef) Same(other *DictDef) bool {
	return d.key == other.key && d.value == other.value
}
