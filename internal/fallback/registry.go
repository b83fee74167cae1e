// Package fallback holds an in-process mirror of resource capacity used when
// Postgres is unreachable. The mirror is non-durable: it is seeded once at
// boot, updated on degraded-mode joins, and lost on restart. A join recorded
// here cannot be reconciled with the database later.
package fallback

import "sync"

// Decision is the outcome of a degraded-mode join.
type Decision struct {
	Admitted   bool
	Registered int
	Capacity   int
}

type resourceState struct {
	capacity   int
	registered int
}

// Registry mirrors per-resource capacity and registered counts.
type Registry struct {
	mu        sync.RWMutex
	resources map[uint]*resourceState
}

func NewRegistry() *Registry {
	return &Registry{
		resources: make(map[uint]*resourceState),
	}
}

// Seed installs or resets the mirror entry for a resource.
func (r *Registry) Seed(resourceID uint, capacity, registered int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.resources[resourceID] = &resourceState{
		capacity:   capacity,
		registered: registered,
	}
}

// Join decides admission against the mirrored counts and bumps the registered
// count when a slot is granted. The second return value is false when the
// resource was never seeded.
func (r *Registry) Join(resourceID uint) (Decision, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.resources[resourceID]
	if !ok {
		return Decision{}, false
	}

	if state.registered < state.capacity {
		state.registered++
		return Decision{Admitted: true, Registered: state.registered, Capacity: state.capacity}, true
	}

	return Decision{Admitted: false, Registered: state.registered, Capacity: state.capacity}, true
}

// Snapshot reads the mirrored counts without admitting anyone.
func (r *Registry) Snapshot(resourceID uint) (Decision, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.resources[resourceID]
	if !ok {
		return Decision{}, false
	}

	return Decision{
		Admitted:   state.registered < state.capacity,
		Registered: state.registered,
		Capacity:   state.capacity,
	}, true
}
