package persistence

import (
	"context"
	"sync"
)

// Collection is an in-process keyed store for one entity type. Every read
// returns a copy of the stored value and every write replaces the whole value,
// so concurrent writers to the same key resolve as last-write-wins.
//
// Values are stored as given; callers holding reference types (maps, slices)
// must clone them before handing them over.
type Collection[T any] struct {
	name  string
	mu    sync.RWMutex
	items map[string]T
}

// NewCollection constructs an empty collection. The name is used in error context only.
func NewCollection[T any](name string) *Collection[T] {
	return &Collection[T]{name: name, items: make(map[string]T)}
}

// Name reports the collection name.
func (c *Collection[T]) Name() string {
	return c.name
}

// Get returns the value stored under id.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.items[id]
	if !ok {
		return zero, ErrNotFound
	}
	return value, nil
}

// List returns a snapshot of every stored value in unspecified order.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.items))
	for _, value := range c.items {
		out = append(out, value)
	}
	return out, nil
}

// Len reports the number of stored values.
func (c *Collection[T]) Len(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items), nil
}

// Insert stores value under id. It fails with ErrDuplicate when id is taken or
// when conflicts reports a collision with any stored value. conflicts may be nil.
func (c *Collection[T]) Insert(ctx context.Context, id string, value T, conflicts func(candidate, existing T) bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[id]; ok {
		return ErrDuplicate
	}
	if conflicts != nil {
		for _, existing := range c.items {
			if conflicts(value, existing) {
				return ErrDuplicate
			}
		}
	}
	c.items[id] = value
	return nil
}

// Update applies mutate to the value stored under id and stores the result.
// The read, mutate and write happen under one lock. conflicts is checked
// against every other stored value and may be nil.
func (c *Collection[T]) Update(ctx context.Context, id string, mutate func(current T) (T, error), conflicts func(candidate, existing T) bool) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	current, ok := c.items[id]
	if !ok {
		return zero, ErrNotFound
	}
	updated, err := mutate(current)
	if err != nil {
		return zero, err
	}
	if conflicts != nil {
		for key, existing := range c.items {
			if key == id {
				continue
			}
			if conflicts(updated, existing) {
				return zero, ErrDuplicate
			}
		}
	}
	c.items[id] = updated
	return updated, nil
}

// Upsert is Update for an existing id and an insert otherwise. mutate receives
// the zero value and exists=false when nothing is stored yet. The boolean
// result reports whether a new value was created.
func (c *Collection[T]) Upsert(ctx context.Context, id string, mutate func(current T, exists bool) (T, error)) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	current, exists := c.items[id]
	updated, err := mutate(current, exists)
	if err != nil {
		return zero, false, err
	}
	c.items[id] = updated
	return updated, !exists, nil
}

// Delete removes the value stored under id and returns it.
func (c *Collection[T]) Delete(ctx context.Context, id string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.items[id]
	if !ok {
		return zero, ErrNotFound
	}
	delete(c.items, id)
	return value, nil
}

// Reset discards every stored value.
func (c *Collection[T]) Reset() {
	c.mu.Lock()
	c.items = make(map[string]T)
	c.mu.Unlock()
}
