package claim

import (
	"context"
	"fmt"
	"time"
)

// Approve moves the claim to Approved and records who decided.
func (s *Service) Approve(ctx context.Context, id int64, approver string) (Claim, error) {
	now := s.now().UTC()
	return s.store.Update(ctx, id, func(c *Claim) error {
		c.Status = StatusApproved
		c.VerifiedBy = &approver
		c.VerifiedDate = &now
		note := fmt.Sprintf("%s approved on %s", approver, now.Format("2006-01-02 15:04"))
		c.LastActionNote = &note
		return nil
	})
}

// Reject moves the claim to Rejected and stores the reason.
func (s *Service) Reject(ctx context.Context, id int64, reason, role string) (Claim, error) {
	now := s.now().UTC()
	return s.store.Update(ctx, id, func(c *Claim) error {
		c.Status = StatusRejected
		c.VerifiedBy = &role
		c.VerifiedDate = &now
		c.HODComments = &reason
		note := fmt.Sprintf("%s rejected on %s. Reason: %s", role, now.Format("2006-01-02 15:04"), reason)
		c.LastActionNote = &note
		return nil
	})
}

// Verify marks the claim as checked by the acting reviewer role.
func (s *Service) Verify(ctx context.Context, id int64, comments *string, role string) (Claim, error) {
	now := s.now().UTC()
	return s.store.Update(ctx, id, func(c *Claim) error {
		c.Status = StatusVerified
		c.VerifiedBy = &role
		c.VerifiedDate = &now
		c.HODComments = comments
		return nil
	})
}

// Return sends the claim back to the lecturer for correction.
func (s *Service) Return(ctx context.Context, id int64, comments *string, role string) (Claim, error) {
	now := s.now().UTC()
	return s.store.Update(ctx, id, func(c *Claim) error {
		c.Status = StatusReturned
		c.VerifiedBy = &role
		c.VerifiedDate = &now
		c.HODComments = comments
		return nil
	})
}

// AutoVerifyResult reports the outcome of one AutoVerify pass.
type AutoVerifyResult struct {
	Approved int
	Flagged  int
}

// AutoVerify runs the HOD triage policy over the pending claims: small claims
// are approved, extreme ones are flagged for manager review, everything else
// stays pending. The pending subset is snapshotted before any mutation so a
// claim transitioned by one rule is not re-evaluated in the same pass.
func (s *Service) AutoVerify(ctx context.Context) (AutoVerifyResult, error) {
	pending, err := s.store.ListByStatus(ctx, StatusPending)
	if err != nil {
		return AutoVerifyResult{}, fmt.Errorf("claim: list pending: %w", err)
	}

	var res AutoVerifyResult
	now := s.now().UTC()
	for _, c := range pending {
		switch {
		case c.HoursWorked.LessThanOrEqual(s.limits.AutoVerifyHours) && c.HourlyRate.LessThanOrEqual(s.limits.AutoVerifyRate):
			if _, err := s.store.Update(ctx, c.ID, approveBy(ActorAutoVerifier, now, "Auto-verified (small claim)")); err != nil {
				return res, err
			}
			res.Approved++
		case c.HoursWorked.GreaterThan(s.limits.FlagHours) || c.HourlyRate.GreaterThan(s.limits.FlagRate):
			if _, err := s.store.Update(ctx, c.ID, func(cl *Claim) error {
				cl.Status = StatusFlagged
				cl.EscalatedToManager = true
				comment := "Flagged by AutoVerify for manager review."
				cl.HODComments = &comment
				return nil
			}); err != nil {
				return res, err
			}
			res.Flagged++
		}
	}
	return res, nil
}

// CoordinatorResult reports the outcome of one CoordinatorAutoApprove pass.
type CoordinatorResult struct {
	Approved  int
	Escalated int
}

// CoordinatorAutoApprove runs the coordinator triage policy over the pending
// claims. Claims above the coordinator thresholds are all routed to the
// manager; the escalation flag and routing note differ depending on whether a
// supporting document is attached.
func (s *Service) CoordinatorAutoApprove(ctx context.Context) (CoordinatorResult, error) {
	pending, err := s.store.ListByStatus(ctx, StatusPending)
	if err != nil {
		return CoordinatorResult{}, fmt.Errorf("claim: list pending: %w", err)
	}

	var res CoordinatorResult
	now := s.now().UTC()
	for _, c := range pending {
		switch {
		case c.HoursWorked.LessThanOrEqual(s.limits.CoordinatorHours) && c.HourlyRate.LessThanOrEqual(s.limits.CoordinatorRate):
			if _, err := s.store.Update(ctx, c.ID, approveBy(ActorCoordinatorAuto, now, "Auto-approved by Coordinator policy")); err != nil {
				return res, err
			}
			res.Approved++
		case c.HasDocument():
			if _, err := s.store.Update(ctx, c.ID, func(cl *Claim) error {
				cl.Status = StatusFlagged
				cl.EscalatedToManager = true
				note := "Escalated to Manager (supporting doc present)"
				cl.LastActionNote = &note
				return nil
			}); err != nil {
				return res, err
			}
			res.Escalated++
		default:
			if _, err := s.store.Update(ctx, c.ID, func(cl *Claim) error {
				cl.Status = StatusFlagged
				note := "Flagged for Manager (no supporting doc)"
				cl.LastActionNote = &note
				return nil
			}); err != nil {
				return res, err
			}
			res.Escalated++
		}
	}
	return res, nil
}

// ManagerResult reports the outcome of one ManagerProcessFlagged pass.
type ManagerResult struct {
	Approved     int
	StillFlagged int
}

// ManagerProcessFlagged runs the manager triage policy over the flagged
// claims: documented claims are approved, undocumented ones stay flagged for
// manual review.
func (s *Service) ManagerProcessFlagged(ctx context.Context) (ManagerResult, error) {
	flagged, err := s.store.ListByStatus(ctx, StatusFlagged)
	if err != nil {
		return ManagerResult{}, fmt.Errorf("claim: list flagged: %w", err)
	}

	var res ManagerResult
	now := s.now().UTC()
	for _, c := range flagged {
		if !c.HasDocument() {
			res.StillFlagged++
			continue
		}
		if _, err := s.store.Update(ctx, c.ID, approveBy(ActorManagerAuto, now, "Manager auto-approved (supporting document present)")); err != nil {
			return res, err
		}
		res.Approved++
	}
	return res, nil
}

func approveBy(actor string, now time.Time, note string) func(*Claim) error {
	return func(c *Claim) error {
		c.Status = StatusApproved
		c.VerifiedBy = &actor
		c.VerifiedDate = &now
		c.LastActionNote = &note
		return nil
	}
}
