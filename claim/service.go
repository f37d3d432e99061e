package claim

import (
	"time"

	"claimflow/docstore"
)

// Service owns the claim workflow: intake validation, the decision state
// machine, the automated triage policies, and listing.
type Service struct {
	store  Store
	docs   docstore.Store
	limits Limits
	now    func() time.Time
}

// NewService wires the workflow service over a claim store and document store.
func NewService(store Store, docs docstore.Store, limits Limits) *Service {
	return &Service{
		store:  store,
		docs:   docs,
		limits: limits,
		now:    time.Now,
	}
}

// WithClock overrides the time source, primarily for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}
