package dedup

import (
	"sync"

	"outreach_backend/internal/leads"

	"github.com/google/uuid"
)

// ApprovalQueue holds duplicates awaiting operator review. Duplicates are
// never silently re-sent; approval re-injects the lead into the fresh queue
// of its run, rejection leaves the input untouched.
type ApprovalQueue struct {
	mu      sync.Mutex
	pending map[uuid.UUID]Duplicate
}

// NewApprovalQueue creates an empty approval queue.
func NewApprovalQueue() *ApprovalQueue {
	return &ApprovalQueue{pending: make(map[uuid.UUID]Duplicate)}
}

// Add registers duplicates for review, keyed by the candidate lead's ID.
func (q *ApprovalQueue) Add(duplicates []Duplicate) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, dup := range duplicates {
		q.pending[dup.Lead.ID] = dup
	}
}

// Approve removes one duplicate from the queue and returns its lead for
// re-injection. The second return is false if the lead is not pending.
func (q *ApprovalQueue) Approve(leadID uuid.UUID) (leads.Lead, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	dup, ok := q.pending[leadID]
	if !ok {
		return leads.Lead{}, false
	}
	delete(q.pending, leadID)
	return dup.Lead, true
}

// ApproveAll drains the queue and returns every pending lead.
func (q *ApprovalQueue) ApproveAll() []leads.Lead {
	q.mu.Lock()
	defer q.mu.Unlock()

	approved := make([]leads.Lead, 0, len(q.pending))
	for _, dup := range q.pending {
		approved = append(approved, dup.Lead)
	}
	q.pending = make(map[uuid.UUID]Duplicate)
	return approved
}

// Pending returns a snapshot of the duplicates awaiting review.
func (q *ApprovalQueue) Pending() []Duplicate {
	q.mu.Lock()
	defer q.mu.Unlock()

	snapshot := make([]Duplicate, 0, len(q.pending))
	for _, dup := range q.pending {
		snapshot = append(snapshot, dup)
	}
	return snapshot
}
