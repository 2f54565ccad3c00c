package utils

// Growable ring buffer. Not thread safe; meant to be owned by a single goroutine (e.g. a BFS frontier).
// Capacity is always a power of 2 so positions can be masked.
type Deque[T any] struct {
	entries []T
	head    int
	size    int
}

const dequeMinCap = 16

func (d *Deque[T]) Len() int {
	return d.size
}

func (d *Deque[T]) PushBack(item T) {
	if d.size == len(d.entries) {
		d.grow()
	}
	d.entries[(d.head+d.size)&(len(d.entries)-1)] = item
	d.size++
}

// PopFront panics if the deque is empty. Use TryPopFront if that is possible.
func (d *Deque[T]) PopFront() T {
	item, ok := d.TryPopFront()
	if !ok {
		panic("PopFront on empty deque")
	}
	return item
}

func (d *Deque[T]) TryPopFront() (item T, ok bool) {
	if d.size == 0 {
		return item, false
	}
	var zero T
	item = d.entries[d.head]
	d.entries[d.head] = zero
	d.head = (d.head + 1) & (len(d.entries) - 1)
	d.size--
	return item, true
}

// Empties the deque but keeps the backing storage for reuse.
func (d *Deque[T]) Clear() {
	var zero T
	for d.size > 0 {
		d.entries[d.head] = zero
		d.head = (d.head + 1) & (len(d.entries) - 1)
		d.size--
	}
	d.head = 0
}

func (d *Deque[T]) grow() {
	newCap := int(RoundUpPow(uint64(len(d.entries) * 2)))
	if newCap < dequeMinCap {
		newCap = dequeMinCap
	}
	entries := make([]T, newCap)
	for i := 0; i < d.size; i++ {
		entries[i] = d.entries[(d.head+i)&(len(d.entries)-1)]
	}
	d.entries = entries
	d.head = 0
}
