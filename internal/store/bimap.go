package store

// Bimap is a bijective mapping maintained as two synchronized maps.
// Put keeps the bijection: any pair sharing the new key or value is removed.
type Bimap[K comparable, V comparable] struct {
	fwd map[K]V
	rev map[V]K
}

func NewBimap[K comparable, V comparable]() *Bimap[K, V] {
	return &Bimap[K, V]{
		fwd: make(map[K]V),
		rev: make(map[V]K),
	}
}

func (b *Bimap[K, V]) Put(k K, v V) {
	if old, ok := b.fwd[k]; ok {
		delete(b.rev, old)
	}
	if old, ok := b.rev[v]; ok {
		delete(b.fwd, old)
	}
	b.fwd[k] = v
	b.rev[v] = k
}

func (b *Bimap[K, V]) Value(k K) (V, bool) {
	v, ok := b.fwd[k]
	return v, ok
}

func (b *Bimap[K, V]) Key(v V) (K, bool) {
	k, ok := b.rev[v]
	return k, ok
}

func (b *Bimap[K, V]) DeleteKey(k K) {
	if v, ok := b.fwd[k]; ok {
		delete(b.fwd, k)
		delete(b.rev, v)
	}
}

func (b *Bimap[K, V]) DeleteValue(v V) {
	if k, ok := b.rev[v]; ok {
		delete(b.fwd, k)
		delete(b.rev, v)
	}
}

func (b *Bimap[K, V]) Len() int { return len(b.fwd) }

func (b *Bimap[K, V]) Clear() {
	b.fwd = make(map[K]V)
	b.rev = make(map[V]K)
}

func (b *Bimap[K, V]) ForEach(fn func(K, V)) {
	for k, v := range b.fwd {
		fn(k, v)
	}
}
