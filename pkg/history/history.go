package history

import "iter"

// DefaultCapacity is used when a History is created with a non-positive capacity.
const DefaultCapacity = 50

// History is a bounded FIFO buffer that retains the most recently added items.
type History[T any] struct {
	max   int
	items []T
}

// New creates a History holding at most capacity items, seeded with the tail of items.
func New[T any](capacity int, items ...T) *History[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	seed := Tail(items, capacity)
	stack := make([]T, len(seed), capacity)
	copy(stack, seed)

	return &History[T]{
		max:   capacity,
		items: stack,
	}
}

// Len returns how many items are currently retained.
func (h *History[T]) Len() int {
	return len(h.items)
}

// Cap returns the fixed capacity.
func (h *History[T]) Cap() int {
	return h.max
}

// Push appends item, evicting the oldest entries first when the buffer is full.
// It returns the new length.
func (h *History[T]) Push(item T) int {
	for len(h.items) >= h.max {
		var zero T
		h.items[0] = zero
		h.items = h.items[1:]
	}

	h.items = append(h.items, item)
	return len(h.items)
}

// Concat appends items in one step and keeps only the last Cap() entries.
func (h *History[T]) Concat(items ...T) *History[T] {
	merged := make([]T, 0, len(h.items)+len(items))
	merged = append(merged, h.items...)
	merged = append(merged, items...)

	h.items = Tail(merged, h.max)
	return h
}

// Merge appends the contents of other, oldest first.
func (h *History[T]) Merge(other *History[T]) *History[T] {
	if other == nil {
		return h
	}
	return h.Concat(other.Items()...)
}

// Items returns a copy of the retained items, oldest first.
func (h *History[T]) Items() []T {
	out := make([]T, len(h.items))
	copy(out, h.items)
	return out
}

// All iterates over the retained items from oldest to newest.
func (h *History[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, item := range h.items {
			if !yield(item) {
				return
			}
		}
	}
}

// Each calls fn for every retained item with its position, oldest first.
func (h *History[T]) Each(fn func(int, T)) {
	for i, item := range h.items {
		fn(i, item)
	}
}

// Drain removes every item. The capacity is unchanged.
func (h *History[T]) Drain() *History[T] {
	h.items = make([]T, 0, h.max)
	return h
}

// Tail returns the last limit items, or all of them when there are fewer.
func Tail[T any](items []T, limit int) []T {
	if len(items) <= limit {
		return items
	}
	return items[len(items)-limit:]
}
