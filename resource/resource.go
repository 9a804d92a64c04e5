// Package resource implements the fixed-capacity slot registry shared by
// every resource kind the audio thread owns (tracks, sounds). A
// Registry lives on the audio thread and never allocates; a paired
// Controller lives on the caller's thread and communicates with it through
// lock-free rings.
package resource

import (
	"sync"

	"github.com/korangar/audio/engineerr"
	"github.com/korangar/audio/internal/ring"
)

// Key identifies a slot inside a Registry. Keys are recycled once their
// resource is retired, so a Key is only valid until the resource it
// referred to is removed.
type Key struct {
	index int
}

// pendingInsert pairs a reserved Key with the resource to install into it.
type pendingInsert[T any] struct {
	key      Key
	resource T
}

// Registry holds the fixed-capacity slot array. It is owned by the audio
// thread: every method except the ones used to construct it must be called
// from that single thread.
type Registry[T any] struct {
	slots       []*T
	pendingKeys *ring.Ring[pendingInsert[T]]
	freeKeys    *ring.Ring[Key]
}

// Controller is the caller-side handle for a Registry. It is safe to use
// concurrently from multiple goroutines (several goroutines adding
// sub-tracks to the same mixer, for example).
type Controller[T any] struct {
	mu          sync.Mutex
	pendingKeys *ring.Ring[pendingInsert[T]]
	freeKeys    *ring.Ring[Key]
}

// New creates a Registry of the given capacity and its paired Controller.
func New[T any](capacity int) (*Registry[T], *Controller[T]) {
	pendingKeys := ring.New[pendingInsert[T]](capacity)
	freeKeys := ring.New[Key](capacity)

	for i := 0; i < capacity; i++ {
		freeKeys.Push(Key{index: i})
	}

	return &Registry[T]{
			slots:       make([]*T, capacity),
			pendingKeys: pendingKeys,
			freeKeys:    freeKeys,
		}, &Controller[T]{
			pendingKeys: pendingKeys,
			freeKeys:    freeKeys,
		}
}

// RetireAndAdmit removes every resource for which remove reports true,
// recycling its key, then admits every resource inserted by the Controller
// since the last call. Retirement always happens before admission, so a
// key freed this block cannot be reused by an insert from the same block.
func (r *Registry[T]) RetireAndAdmit(remove func(*T) bool) {
	for index, slot := range r.slots {
		if slot == nil {
			continue
		}
		if remove(slot) {
			r.slots[index] = nil
			r.freeKeys.Push(Key{index: index})
		}
	}

	for {
		pending, ok := r.pendingKeys.Pop()
		if !ok {
			break
		}
		resource := pending.resource
		r.slots[pending.key.index] = &resource
	}
}

// Iter calls fn for every occupied slot in ascending key order.
func (r *Registry[T]) Iter(fn func(*T)) {
	for _, slot := range r.slots {
		if slot != nil {
			fn(slot)
		}
	}
}

// IsEmpty reports whether every slot is unoccupied.
func (r *Registry[T]) IsEmpty() bool {
	for _, slot := range r.slots {
		if slot != nil {
			return false
		}
	}
	return true
}

// TryReserve reserves a free Key without inserting a resource into it. It
// fails with ResourceLimitReached once capacity is exhausted.
func (c *Controller[T]) TryReserve() (Key, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tryReserveLocked()
}

func (c *Controller[T]) tryReserveLocked() (Key, error) {
	key, ok := c.freeKeys.Pop()
	if !ok {
		return Key{}, engineerr.ResourceLimitReached{}
	}
	return key, nil
}

// InsertWithKey schedules resource to be admitted into the Registry under
// a Key previously obtained from TryReserve.
func (c *Controller[T]) InsertWithKey(key Key, resource T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.insertWithKeyLocked(key, resource)
}

func (c *Controller[T]) insertWithKeyLocked(key Key, resource T) {
	if !c.pendingKeys.Push(pendingInsert[T]{key: key, resource: resource}) {
		panic("resource: pending insert ring is full")
	}
}

// Insert reserves a Key and schedules resource for admission in one step.
// The reserve and the schedule happen under a single lock acquisition, so
// concurrent Insert calls can never interleave as two producers pushing
// onto pendingKeys at once.
func (c *Controller[T]) Insert(resource T) (Key, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key, err := c.tryReserveLocked()
	if err != nil {
		return Key{}, err
	}
	c.insertWithKeyLocked(key, resource)
	return key, nil
}
