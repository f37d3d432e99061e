package claim

import (
	"context"
	"sync"
)

// Store is the single source of truth for all workflow operations. Insert
// assigns identifiers from a monotonic counter so an id is never reused, and
// Update applies its mutation as one atomic read-modify-write.
type Store interface {
	Insert(ctx context.Context, c Claim) (Claim, error)
	Get(ctx context.Context, id int64) (Claim, error)
	Update(ctx context.Context, id int64, apply func(*Claim) error) (Claim, error)
	List(ctx context.Context) ([]Claim, error)
	ListByStatus(ctx context.Context, status Status) ([]Claim, error)
}

// MemoryStore keeps claims in process memory behind a single mutex. It is the
// canonical store; the workflow does not require durability.
type MemoryStore struct {
	mu     sync.Mutex
	claims []Claim
	nextID int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

// Insert assigns the next identifier and appends the claim.
func (s *MemoryStore) Insert(ctx context.Context, c Claim) (Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = s.nextID
	s.nextID++
	s.claims = append(s.claims, c)
	return c, nil
}

// Get returns a copy of the claim with the given id.
func (s *MemoryStore) Get(ctx context.Context, id int64) (Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.claims {
		if s.claims[i].ID == id {
			return s.claims[i], nil
		}
	}
	return Claim{}, ErrNotFound
}

// Update applies the mutation to the claim under the store lock. When apply
// returns an error the stored claim is left untouched.
func (s *MemoryStore) Update(ctx context.Context, id int64, apply func(*Claim) error) (Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.claims {
		if s.claims[i].ID != id {
			continue
		}
		updated := s.claims[i]
		if err := apply(&updated); err != nil {
			return Claim{}, err
		}
		s.claims[i] = updated
		return updated, nil
	}
	return Claim{}, ErrNotFound
}

// List returns a snapshot of all claims in insertion order.
func (s *MemoryStore) List(ctx context.Context) ([]Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Claim, len(s.claims))
	copy(out, s.claims)
	return out, nil
}

// ListByStatus returns a snapshot of the claims currently in the given status.
func (s *MemoryStore) ListByStatus(ctx context.Context, status Status) ([]Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []Claim{}
	for i := range s.claims {
		if s.claims[i].Status == status {
			out = append(out, s.claims[i])
		}
	}
	return out, nil
}
