package history

import "sync"

// Buffer is a bounded FIFO: once full, every Push evicts the oldest item.
type Buffer[T any] struct {
	mu    sync.RWMutex
	items []T
	limit int
}

func NewBuffer[T any](limit int) *Buffer[T] {
	if limit < 1 {
		limit = 1
	}
	return &Buffer[T]{items: make([]T, 0, limit), limit: limit}
}

func (b *Buffer[T]) Push(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.items) == b.limit {
		copy(b.items, b.items[1:])
		b.items = b.items[:len(b.items)-1]
	}
	b.items = append(b.items, item)
}

// Items returns a copy, oldest first.
func (b *Buffer[T]) Items() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]T, len(b.items))
	copy(out, b.items)
	return out
}

func (b *Buffer[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.items)
}

func (b *Buffer[T]) Limit() int { return b.limit }

func (b *Buffer[T]) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = b.items[:0]
}
