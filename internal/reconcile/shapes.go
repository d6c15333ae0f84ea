package reconcile

// Option is a body that may be absent.
type Option[B Body[B]] struct {
	value B
	ok    bool
}

// Some returns a present option.
func Some[B Body[B]](b B) *Option[B] {
	return &Option[B]{value: b, ok: true}
}

// None returns an absent option.
func None[B Body[B]]() *Option[B] {
	return &Option[B]{}
}

// Get returns the body and whether it is present.
func (o *Option[B]) Get() (B, bool) {
	return o.value, o.ok
}

func (o *Option[B]) Build(rt *Runtime) {
	if o.ok {
		o.value.Build(rt)
	}
}

// Rebuild: Some->Some rebuilds in place, None->Some builds, Some->None
// removes, None->None does nothing.
func (o *Option[B]) Rebuild(rt *Runtime, prev *Option[B]) {
	switch {
	case o.ok && prev.ok:
		o.value.Rebuild(rt, prev.value)
	case o.ok:
		o.value.Build(rt)
	case prev.ok:
		prev.value.Remove(rt)
	}
}

func (o *Option[B]) Remove(rt *Runtime) {
	if o.ok {
		o.value.Remove(rt)
	}
}

// Entry is one keyed item of a Keyed list.
type Entry[K comparable, B Body[B]] struct {
	Key  K
	Body B
}

// Keyed is an ordered list of bodies with unique keys.
type Keyed[K comparable, B Body[B]] struct {
	Items []Entry[K, B]
}

// NewKeyed returns a keyed list.
func NewKeyed[K comparable, B Body[B]](items ...Entry[K, B]) *Keyed[K, B] {
	return &Keyed[K, B]{Items: items}
}

// Keys returns the keys in order.
func (k *Keyed[K, B]) Keys() []K {
	out := make([]K, len(k.Items))
	for i, it := range k.Items {
		out[i] = it.Key
	}
	return out
}

func (k *Keyed[K, B]) checkUnique() {
	seen := make(map[K]struct{}, len(k.Items))
	for _, it := range k.Items {
		if _, ok := seen[it.Key]; ok {
			panic(&KeyError{Key: it.Key})
		}
		seen[it.Key] = struct{}{}
	}
}

func (k *Keyed[K, B]) Build(rt *Runtime) {
	k.checkUnique()
	for _, it := range k.Items {
		it.Body.Build(rt)
	}
}

// Rebuild matches every new item to the unvisited predecessor with the same
// key and rebuilds it; unmatched new items are built and unvisited
// predecessors are removed.
func (k *Keyed[K, B]) Rebuild(rt *Runtime, prev *Keyed[K, B]) {
	k.checkUnique()
	visited := make([]bool, len(prev.Items))
	for _, it := range k.Items {
		matched := false
		for j, old := range prev.Items {
			if visited[j] || old.Key != it.Key {
				continue
			}
			visited[j] = true
			it.Body.Rebuild(rt, old.Body)
			matched = true
			break
		}
		if !matched {
			it.Body.Build(rt)
		}
	}
	for j, old := range prev.Items {
		if !visited[j] {
			old.Body.Remove(rt)
		}
	}
}

func (k *Keyed[K, B]) Remove(rt *Runtime) {
	for _, it := range k.Items {
		it.Body.Remove(rt)
	}
}

// Tuple2 is a fixed pair of bodies. Position is identity.
type Tuple2[A Body[A], B Body[B]] struct {
	First  A
	Second B
}

// Pair returns a Tuple2.
func Pair[A Body[A], B Body[B]](a A, b B) *Tuple2[A, B] {
	return &Tuple2[A, B]{First: a, Second: b}
}

func (t *Tuple2[A, B]) Build(rt *Runtime) {
	t.First.Build(rt)
	t.Second.Build(rt)
}

func (t *Tuple2[A, B]) Rebuild(rt *Runtime, prev *Tuple2[A, B]) {
	t.First.Rebuild(rt, prev.First)
	t.Second.Rebuild(rt, prev.Second)
}

func (t *Tuple2[A, B]) Remove(rt *Runtime) {
	t.First.Remove(rt)
	t.Second.Remove(rt)
}

// Tuple3 is a fixed triple of bodies.
type Tuple3[A Body[A], B Body[B], C Body[C]] struct {
	First  A
	Second B
	Third  C
}

// Triple returns a Tuple3.
func Triple[A Body[A], B Body[B], C Body[C]](a A, b B, c C) *Tuple3[A, B, C] {
	return &Tuple3[A, B, C]{First: a, Second: b, Third: c}
}

func (t *Tuple3[A, B, C]) Build(rt *Runtime) {
	t.First.Build(rt)
	t.Second.Build(rt)
	t.Third.Build(rt)
}

func (t *Tuple3[A, B, C]) Rebuild(rt *Runtime, prev *Tuple3[A, B, C]) {
	t.First.Rebuild(rt, prev.First)
	t.Second.Rebuild(rt, prev.Second)
	t.Third.Rebuild(rt, prev.Third)
}

func (t *Tuple3[A, B, C]) Remove(rt *Runtime) {
	t.First.Remove(rt)
	t.Second.Remove(rt)
	t.Third.Remove(rt)
}

// Empty is a body with nothing in it.
type Empty struct{}

func (*Empty) Build(*Runtime)           {}
func (*Empty) Rebuild(*Runtime, *Empty) {}
func (*Empty) Remove(*Runtime)          {}

// Root holds the current body of a reconciled tree.
type Root[B Body[B]] struct {
	rt      *Runtime
	current B
	built   bool
}

// NewRoot returns an empty root.
func NewRoot[B Body[B]](rt *Runtime) *Root[B] {
	return &Root[B]{rt: rt}
}

// Update builds next on first use and rebuilds it against the current body
// afterwards. It returns a *KeyError or hook order error raised while
// reconciling; the tree shape is undefined afterwards.
func (r *Root[B]) Update(next B) error {
	err := r.rt.Apply(func() {
		if r.built {
			next.Rebuild(r.rt, r.current)
		} else {
			next.Build(r.rt)
		}
	})
	if err != nil {
		return err
	}
	r.current = next
	r.built = true
	return nil
}

// Current returns the current body.
func (r *Root[B]) Current() (B, bool) {
	return r.current, r.built
}

// Clear removes the current body.
func (r *Root[B]) Clear() {
	if !r.built {
		return
	}
	r.current.Remove(r.rt)
	var zero B
	r.current = zero
	r.built = false
}
