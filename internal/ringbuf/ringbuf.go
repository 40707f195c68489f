// Package ringbuf provides a fixed-capacity buffer that evicts its oldest
// element when full.
package ringbuf

// Buffer holds at most Cap() elements in insertion order. Pushing onto a full
// buffer evicts the oldest element. Buffer is not safe for concurrent use.
type Buffer[T any] struct {
	items  []T
	head   int
	size   int
	pushed uint64
}

// New returns an empty buffer with the given capacity. Capacities below one
// are raised to one.
func New[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[T]{items: make([]T, capacity)}
}

// Push appends v and reports whether an older element was evicted.
func (b *Buffer[T]) Push(v T) bool {
	b.pushed++
	if b.size < len(b.items) {
		b.items[(b.head+b.size)%len(b.items)] = v
		b.size++
		return false
	}
	b.items[b.head] = v
	b.head = (b.head + 1) % len(b.items)
	return true
}

// Len returns the number of stored elements.
func (b *Buffer[T]) Len() int { return b.size }

// Cap returns the maximum number of stored elements.
func (b *Buffer[T]) Cap() int { return len(b.items) }

// Pushed returns the number of Push calls over the buffer's lifetime,
// including elements that have since been evicted.
func (b *Buffer[T]) Pushed() uint64 { return b.pushed }

// Items returns a copy of the stored elements, oldest first.
func (b *Buffer[T]) Items() []T {
	out := make([]T, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.items[(b.head+i)%len(b.items)]
	}
	return out
}

// Last returns up to n of the newest elements, oldest first.
func (b *Buffer[T]) Last(n int) []T {
	if n > b.size {
		n = b.size
	}
	if n <= 0 {
		return nil
	}
	out := make([]T, n)
	start := b.size - n
	for i := 0; i < n; i++ {
		out[i] = b.items[(b.head+start+i)%len(b.items)]
	}
	return out
}

// Since returns the elements pushed after the buffer had seen mark pushes,
// oldest first. Elements already evicted are not returned.
func (b *Buffer[T]) Since(mark uint64) []T {
	if mark >= b.pushed {
		return nil
	}
	n := b.pushed - mark
	if n > uint64(b.size) {
		n = uint64(b.size)
	}
	return b.Last(int(n))
}
