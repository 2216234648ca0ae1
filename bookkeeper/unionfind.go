package bookkeeper

// Absorber is implemented by the info records kept by a UnionFind. Absorb
// folds other into the receiver when their classes are merged.
type Absorber[V any] interface {
	Absorb(other V)
}

// UnionFind partitions keys into classes, each carrying one info record
// built by the factory for the first key of the class.
type UnionFind[K comparable, V Absorber[V]] struct {
	factory func(K) V
	parent  map[K]K
	weight  map[K]int
	info    map[K]V
	roots   []K
}

// NewUnionFind creates an empty forest.
func NewUnionFind[K comparable, V Absorber[V]](factory func(K) V) *UnionFind[K, V] {
	return &UnionFind[K, V]{
		factory: factory,
		parent:  make(map[K]K),
		weight:  make(map[K]int),
		info:    make(map[K]V),
	}
}

// Find returns the representative of k and its info. A key seen for the
// first time starts its own class, which is reported as a change.
func (u *UnionFind[K, V]) Find(k K) (bool, K, V) {
	if _, ok := u.parent[k]; !ok {
		u.parent[k] = k
		u.weight[k] = 1
		info := u.factory(k)
		u.info[k] = info
		u.roots = append(u.roots, k)
		return true, k, info
	}
	root := k
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for k != root {
		next := u.parent[k]
		u.parent[k] = root
		k = next
	}
	return false, root, u.info[root]
}

// Union merges the classes of a and b and reports whether anything changed.
func (u *UnionFind[K, V]) Union(a, b K) (bool, K, V) {
	newA, repA, infoA := u.Find(a)
	newB, repB, infoB := u.Find(b)
	if repA == repB {
		return newA || newB, repA, infoA
	}
	if u.weight[repA] < u.weight[repB] {
		repA, repB = repB, repA
		infoA, infoB = infoB, infoA
	}
	u.parent[repB] = repA
	u.weight[repA] += u.weight[repB]
	delete(u.weight, repB)
	delete(u.info, repB)
	infoA.Absorb(infoB)
	return true, repA, infoA
}

// Roots returns the current representatives in creation order.
func (u *UnionFind[K, V]) Roots() []K {
	live := u.roots[:0]
	for _, r := range u.roots {
		if u.parent[r] == r {
			live = append(live, r)
		}
	}
	u.roots = live
	return append([]K(nil), live...)
}

// Len returns the number of keys in the forest.
func (u *UnionFind[K, V]) Len() int {
	return len(u.parent)
}
