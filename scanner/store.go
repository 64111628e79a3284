package scanner

import (
	"sync"

	"gomemscan/process"
)

// ScannedValue is a candidate address together with the value read there
type ScannedValue[T Scalar] struct {
	Value   T
	Address process.ProcessMemoryAddress
}

// ResultStore accumulates scanned values. Writers from a pass append whole
// batches under the lock, so readers never see half of a batch.
type ResultStore[T Scalar] struct {
	mu    sync.RWMutex
	items []ScannedValue[T]
}

func NewResultStore[T Scalar]() *ResultStore[T] {
	return &ResultStore[T]{}
}

// Append copies batch into the store
func (rs *ResultStore[T]) Append(batch []ScannedValue[T]) {
	if len(batch) == 0 {
		return
	}
	rs.mu.Lock()
	rs.items = append(rs.items, batch...)
	rs.mu.Unlock()
}

// Replace drops the current contents and takes ownership of items
func (rs *ResultStore[T]) Replace(items []ScannedValue[T]) {
	rs.mu.Lock()
	rs.items = items
	rs.mu.Unlock()
}

// Take empties the store and returns what it held
func (rs *ResultStore[T]) Take() []ScannedValue[T] {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	items := rs.items
	rs.items = nil
	return items
}

func (rs *ResultStore[T]) Clear() {
	rs.Replace(nil)
}

func (rs *ResultStore[T]) Count() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.items)
}

// Snapshot returns a copy of the stored values
func (rs *ResultStore[T]) Snapshot() []ScannedValue[T] {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	out := make([]ScannedValue[T], len(rs.items))
	copy(out, rs.items)
	return out
}

// Each calls fn for every value under the read lock until fn returns false
func (rs *ResultStore[T]) Each(fn func(ScannedValue[T]) bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	for _, v := range rs.items {
		if !fn(v) {
			return
		}
	}
}

// collector is a worker's side of a pass: hits go into a fixed-size batch,
// full batches move into a worker-local buffer, and the local buffer is
// appended to the shared store once it reaches the flush threshold or the
// worker finishes.
type collector[T Scalar] struct {
	store     *ResultStore[T]
	batch     []ScannedValue[T]
	local     []ScannedValue[T]
	threshold int
}

func newCollector[T Scalar](store *ResultStore[T], batchSize, threshold int) *collector[T] {
	return &collector[T]{
		store:     store,
		batch:     make([]ScannedValue[T], 0, batchSize),
		threshold: threshold,
	}
}

func (c *collector[T]) add(v ScannedValue[T]) {
	c.batch = append(c.batch, v)
	if len(c.batch) == cap(c.batch) {
		c.spill()
	}
}

func (c *collector[T]) spill() {
	c.local = append(c.local, c.batch...)
	c.batch = c.batch[:0]
	if len(c.local) >= c.threshold {
		c.store.Append(c.local)
		c.local = c.local[:0]
	}
}

func (c *collector[T]) finish() {
	c.local = append(c.local, c.batch...)
	c.batch = c.batch[:0]
	c.store.Append(c.local)
	c.local = nil
}
