package models

import (
	"sync/atomic"
	"time"
)

// Status is the lifecycle state of a pending approval request.
// The state machine is strictly one-way: pending → approved or pending → denied.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
)

// Terminal reports whether the status can never change again.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusDenied
}

// PendingRequest is one submission awaiting reviewer action.
// Status mutations go through the store's compare-and-set; fields other
// than Status and the cleanup flag are immutable after creation.
type PendingRequest struct {
	ID        string    `json:"request_id"`
	ImageKey  string    `json:"image_key"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`

	// cleanedUp guards the once-only deletion of the pending image.
	cleanedUp atomic.Bool
}

// ClaimCleanup returns true for exactly one caller. Whichever observer of a
// terminal status wins the claim deletes the pending image; everyone else
// performs no duplicate deletion.
func (r *PendingRequest) ClaimCleanup() bool {
	return r.cleanedUp.CompareAndSwap(false, true)
}
