package window

import "github.com/flowlinego/flowline/pool"

// Accumulator holds the in-progress aggregation state for one (window, key)
// pair. One Accumulator exists per distinct key observed within a window.
type Accumulator[K comparable, A any] struct {
	Key        K
	State      A
	FirstEvent Window
	Count      int
}

// Table indexes accumulators by window and key for one aggregate node. It is
// not safe for concurrent use; callers serialize access per node the same
// way the runner serializes all other per-node state. A Table is created
// fresh once per aggregate run and reused for every window and key it sees
// during that run, so its internal pools amortize across the run's whole
// lifetime rather than across runs.
type Table[K comparable, A any] struct {
	byWindow  map[Window]map[K]*Accumulator[K, A]
	keyMaps   *pool.Map[K, *Accumulator[K, A]]
	accSlices *pool.Slice[*Accumulator[K, A]]
}

// NewTable creates an empty accumulator table.
func NewTable[K comparable, A any]() *Table[K, A] {
	return &Table[K, A]{
		byWindow:  make(map[Window]map[K]*Accumulator[K, A]),
		keyMaps:   pool.NewMap[K, *Accumulator[K, A]](),
		accSlices: pool.NewSlice[*Accumulator[K, A]](),
	}
}

// GetOrCreate returns the accumulator for (win, key), creating it via create
// if absent.
func (t *Table[K, A]) GetOrCreate(win Window, key K, create func() A) *Accumulator[K, A] {
	keys, ok := t.byWindow[win]
	if !ok {
		keys = t.keyMaps.Get()
		t.byWindow[win] = keys
	}
	acc, ok := keys[key]
	if !ok {
		acc = &Accumulator[K, A]{Key: key, State: create(), FirstEvent: win}
		keys[key] = acc
	}
	return acc
}

// Windows returns every window currently tracked, in no particular order.
func (t *Table[K, A]) Windows() []Window {
	out := make([]Window, 0, len(t.byWindow))
	for w := range t.byWindow {
		out = append(out, w)
	}
	return out
}

// Accumulators returns every accumulator for a given window, borrowed from
// the table's slice pool. Callers must pass the returned slice to
// ReleaseAccumulators once they are done with it.
func (t *Table[K, A]) Accumulators(win Window) []*Accumulator[K, A] {
	keys := t.byWindow[win]
	out := t.accSlices.Get()
	for _, acc := range keys {
		out = append(out, acc)
	}
	return out
}

// ReleaseAccumulators returns a slice obtained from Accumulators to the
// table's pool.
func (t *Table[K, A]) ReleaseAccumulators(accs []*Accumulator[K, A]) {
	t.accSlices.Put(accs)
}

// Evict removes a window's accumulators once it has been closed and emitted,
// returning its key map to the table's map pool.
func (t *Table[K, A]) Evict(win Window) {
	if keys, ok := t.byWindow[win]; ok {
		t.keyMaps.Put(keys)
	}
	delete(t.byWindow, win)
}
