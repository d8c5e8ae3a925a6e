package plans

import (
	"sync"

	"github.com/harborworks/receiving-go/internal/domain"
)

// Coordinator owns the long-lived concurrency state of the engine: one
// lock per plan id, and the set of assignment removals not yet
// confirmed by a fresh read. One Coordinator instance is shared by
// every per-request Service.
type Coordinator struct {
	mu      sync.Mutex
	locks   map[string]*planLock
	pending map[string]string // assignment id -> plan id
}

type planLock struct {
	mu   sync.Mutex
	refs int
}

func NewCoordinator() *Coordinator {
	return &Coordinator{
		locks:   make(map[string]*planLock),
		pending: make(map[string]string),
	}
}

// LockPlan serializes mutations for one plan. The returned release
// func must be called exactly once. Locks for different plans are
// independent; entries are dropped once the last holder releases.
func (c *Coordinator) LockPlan(planID string) (release func()) {
	c.mu.Lock()
	l := c.locks[planID]
	if l == nil {
		l = &planLock{}
		c.locks[planID] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, planID)
		}
		c.mu.Unlock()
	}
}

// MarkRemoved records an assignment whose removal has been sent to the
// store. Until a fresh read of the plan no longer contains it, the
// assignment counts as gone for the last-container check.
func (c *Coordinator) MarkRemoved(assignmentID, planID string) {
	c.mu.Lock()
	c.pending[assignmentID] = planID
	c.mu.Unlock()
}

// Forget rolls back a pending removal after a failed store mutation.
func (c *Coordinator) Forget(assignmentID string) {
	c.mu.Lock()
	delete(c.pending, assignmentID)
	c.mu.Unlock()
}

// Reconcile drops pending entries a fresh read has confirmed: the
// assignment is no longer active in the plan's container set.
func (c *Coordinator) Reconcile(plan domain.Plan) {
	active := make(map[string]struct{})
	for _, assignment := range plan.ActiveContainers() {
		active[assignment.ID] = struct{}{}
	}
	c.mu.Lock()
	for id, planID := range c.pending {
		if planID != plan.ID {
			continue
		}
		if _, stillThere := active[id]; !stillThere {
			delete(c.pending, id)
		}
	}
	c.mu.Unlock()
}

// PendingRemovals counts removals for a plan that a read may still
// reflect as present.
func (c *Coordinator) PendingRemovals(planID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, pid := range c.pending {
		if pid == planID {
			n++
		}
	}
	return n
}
