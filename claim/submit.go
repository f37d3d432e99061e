package claim

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"claimflow/docstore"
)

// Submit validates the draft, optionally persists the supporting document,
// and inserts the resulting claim into the store. Validation short-circuits
// on the first failure and either the claim with its document is saved or
// nothing is: any failure after the file write removes the file again and no
// store insertion happens.
func (s *Service) Submit(ctx context.Context, draft Draft, doc *docstore.Upload) (Claim, error) {
	if err := s.validateDraft(draft); err != nil {
		return Claim{}, err
	}

	c := Claim{
		LecturerName: strings.TrimSpace(draft.LecturerName),
		StartTime:    draft.StartTime,
		EndTime:      draft.EndTime,
		HoursWorked:  draft.HoursWorked,
		HourlyRate:   draft.HourlyRate,
		Notes:        draft.Notes,
	}

	// When a start/end pair is given the hours are derived from it. An
	// out-of-order pair falls back to zero hours rather than failing the
	// submission, but a derived value is held to the same upper bound as a
	// supplied one.
	if draft.StartTime != nil && draft.EndTime != nil {
		c.HoursWorked = elapsedHours(*draft.StartTime, *draft.EndTime)
		if c.HoursWorked.GreaterThan(s.limits.MaxHours) {
			return Claim{}, fieldErr("hours_worked", fmt.Sprintf("hours worked must be at most %s", s.limits.MaxHours))
		}
	}

	// The document write happens outside any store lock; the reference path
	// is only recorded after the write succeeded.
	var docPath string
	if doc != nil {
		path, err := s.docs.Save(ctx, *doc)
		if err != nil {
			return Claim{}, err
		}
		docPath = path
		c.SupportingDocumentPath = &docPath
	}

	exceedsHours := c.HoursWorked.GreaterThan(s.limits.DocRequiredHours)
	exceedsRate := c.HourlyRate.GreaterThan(s.limits.DocRequiredRate)
	if (exceedsHours || exceedsRate) && !c.HasDocument() {
		return Claim{}, ErrDocumentRequired
	}

	if c.HoursWorked.GreaterThan(s.limits.FlagHours) || c.HourlyRate.GreaterThan(s.limits.FlagRate) {
		c.Status = StatusFlagged
		c.EscalatedToManager = true
		comment := "Automatically flagged for manager review due to extreme values."
		c.HODComments = &comment
	} else {
		c.Status = StatusPending
	}

	c.DateSubmitted = s.now().UTC()

	inserted, err := s.store.Insert(ctx, c)
	if err != nil {
		if docPath != "" {
			_ = s.docs.Remove(docPath)
		}
		return Claim{}, fmt.Errorf("claim: insert: %w", err)
	}

	return inserted, nil
}

func (s *Service) validateDraft(draft Draft) error {
	name := strings.TrimSpace(draft.LecturerName)
	if name == "" {
		return fieldErr("lecturer_name", "lecturer name is required")
	}
	if len(name) > s.limits.MaxNameLen {
		return fieldErr("lecturer_name", fmt.Sprintf("lecturer name must be at most %d characters", s.limits.MaxNameLen))
	}

	// Hours are range-checked only when supplied directly; with a start/end
	// pair present the derived value governs.
	if draft.StartTime == nil || draft.EndTime == nil {
		if !draft.HoursWorked.IsPositive() {
			return fieldErr("hours_worked", "hours worked must be greater than 0")
		}
		if draft.HoursWorked.GreaterThan(s.limits.MaxHours) {
			return fieldErr("hours_worked", fmt.Sprintf("hours worked must be at most %s", s.limits.MaxHours))
		}
	}

	if !draft.HourlyRate.IsPositive() {
		return fieldErr("hourly_rate", "hourly rate must be greater than 0")
	}
	if draft.HourlyRate.GreaterThan(s.limits.MaxRate) {
		return fieldErr("hourly_rate", fmt.Sprintf("hourly rate must be at most %s", s.limits.MaxRate))
	}

	return nil
}

func elapsedHours(start, end time.Time) decimal.Decimal {
	if !end.After(start) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(end.Sub(start).Hours()).Round(2)
}
