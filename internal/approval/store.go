package approval

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/facegate/internal/models"
	"github.com/your-org/facegate/internal/observability"
)

// Store tracks in-flight approval requests by id. All status access goes
// through the store so the one-way state machine holds under concurrent
// reviewers and pollers. State is process-local; a restart forgets it.
type Store struct {
	mu       sync.RWMutex
	requests map[string]*models.PendingRequest
}

func NewStore() *Store {
	return &Store{requests: make(map[string]*models.PendingRequest)}
}

// Create allocates a new record in pending state referencing imageKey.
func (s *Store) Create(imageKey string) *models.PendingRequest {
	req := &models.PendingRequest{
		ID:        uuid.NewString(),
		ImageKey:  imageKey,
		Status:    models.StatusPending,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.requests[req.ID] = req
	s.mu.Unlock()

	observability.PendingRequests.Inc()
	return req
}

// Get returns the request for id. Fields other than Status are immutable;
// read Status through the Status method.
func (s *Store) Get(id string) (*models.PendingRequest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	return req, ok
}

// Status returns the current status of id.
func (s *Store) Status(id string) (models.Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return "", false
	}
	return req.Status, true
}

// Resolve transitions id out of pending if and only if it is still pending;
// a compare-and-set, not a blind write. Two concurrent calls leave exactly
// one winner (swapped=true); the loser sees the settled status without error,
// so repeated reviewer clicks and retried webhooks are harmless.
func (s *Store) Resolve(id string, outcome models.Status) (prev models.Status, swapped, found bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return "", false, false
	}

	prev = req.Status
	if prev != models.StatusPending {
		return prev, false, true
	}

	req.Status = outcome
	observability.PendingRequests.Dec()
	return prev, true, true
}

// Expired returns ids of requests that have been pending longer than ttl.
func (s *Store) Expired(ttl time.Duration) []string {
	cutoff := time.Now().Add(-ttl)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id, req := range s.requests {
		if req.Status == models.StatusPending && req.CreatedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}
