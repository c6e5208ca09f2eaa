// Package resolve provides a cancellable container for the result of an
// asynchronous derivation. A State holds exactly one of four variants
// (absent, pending, resolved, rejected) and guarantees that a reset always
// supersedes any in-flight resolution: completions carrying a ticket from a
// superseded lineage are discarded rather than applied.
package resolve

import "sync"

// Status represents the current variant of a State.
type Status int32

const (
	// StatusAbsent means no input has been supplied yet.
	// Distinct from pending: there is nothing to wait for.
	StatusAbsent Status = iota

	// StatusPending means a resolution is in flight.
	StatusPending

	// StatusResolved means the derivation completed with a value.
	StatusResolved

	// StatusRejected means the derivation completed with an error.
	StatusRejected
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusAbsent:
		return "absent"
	case StatusPending:
		return "pending"
	case StatusResolved:
		return "resolved"
	case StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Ticket identifies one resolution lineage. A ticket issued by Begin is
// invalidated by any later Reset or Begin on the same State; applying a
// result with an invalidated ticket is a no-op.
type Ticket struct {
	gen uint64
}

// State is a cancellable async-result holder for values of type T.
// It has no side effects beyond its own transitions; callers observe the
// result and react. All methods are safe for concurrent use.
type State[T any] struct {
	mu     sync.Mutex
	status Status
	value  T
	err    error
	gen    uint64
}

// NewState creates a State in the absent variant.
func NewState[T any]() *State[T] {
	return &State[T]{}
}

// Reset returns the State to the absent variant and invalidates every
// outstanding ticket. Reset always wins, even mid-resolution, and is
// idempotent.
func (s *State[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.status = StatusAbsent
	var zero T
	s.value = zero
	s.err = nil
}

// Begin moves the State to pending and returns the ticket for the new
// lineage. Any previously issued ticket is invalidated.
func (s *State[T]) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.status = StatusPending
	var zero T
	s.value = zero
	s.err = nil
	return Ticket{gen: s.gen}
}

// Resolve applies a successful result for the given lineage. It reports
// whether the result was applied; a stale ticket leaves the State untouched.
func (s *State[T]) Resolve(t Ticket, value T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.gen != s.gen {
		return false
	}
	s.status = StatusResolved
	s.value = value
	s.err = nil
	return true
}

// Reject applies a failed result for the given lineage. It reports whether
// the result was applied; a stale ticket leaves the State untouched.
func (s *State[T]) Reject(t Ticket, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.gen != s.gen {
		return false
	}
	s.status = StatusRejected
	var zero T
	s.value = zero
	s.err = err
	return true
}

// Current reports whether the ticket still identifies the active lineage.
// In-flight work can poll this to stop early after being superseded.
func (s *State[T]) Current(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.gen == s.gen
}

// Status returns the current variant.
func (s *State[T]) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Value returns the resolved value. The second return is false unless the
// State is in the resolved variant.
func (s *State[T]) Value() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusResolved {
		var zero T
		return zero, false
	}
	return s.value, true
}

// Err returns the rejection error, or nil if the State is not rejected.
func (s *State[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusRejected {
		return nil
	}
	return s.err
}
