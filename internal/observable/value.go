// Package observable provides a value holder that notifies subscribers on
// every state transition.
package observable

import "sync"

// Value holds a comparable value. Set fires every subscriber when the value
// changes; subscribers are called synchronously, outside the lock, in
// subscription order.
type Value[T comparable] struct {
	mu     sync.Mutex
	val    T
	subs   []subscription[T]
	nextID int
}

type subscription[T comparable] struct {
	id int
	fn func(T)
}

// New creates a Value holding initial.
func New[T comparable](initial T) *Value[T] {
	return &Value[T]{val: initial}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.val
}

// Set stores next and reports whether it was a transition.
func (v *Value[T]) Set(next T) bool {
	v.mu.Lock()
	if v.val == next {
		v.mu.Unlock()
		return false
	}
	v.val = next
	subs := make([]subscription[T], len(v.subs))
	copy(subs, v.subs)
	v.mu.Unlock()

	for _, s := range subs {
		s.fn(next)
	}
	return true
}

// Update applies fn to the current value under the lock and notifies
// subscribers if the result differs. It returns the new value.
func (v *Value[T]) Update(fn func(T) T) T {
	v.mu.Lock()
	next := fn(v.val)
	if next == v.val {
		v.mu.Unlock()
		return next
	}
	v.val = next
	subs := make([]subscription[T], len(v.subs))
	copy(subs, v.subs)
	v.mu.Unlock()

	for _, s := range subs {
		s.fn(next)
	}
	return next
}

// Subscribe registers fn and returns the function that removes it.
// Calling the returned function more than once is a no-op.
func (v *Value[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.nextID
	v.nextID++
	v.subs = append(v.subs, subscription[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			for i, s := range v.subs {
				if s.id == id {
					v.subs = append(v.subs[:i], v.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Subscribers returns the number of active subscriptions.
func (v *Value[T]) Subscribers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.subs)
}
