package claim

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of a claim.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
	StatusFlagged  Status = "Flagged"
	StatusVerified Status = "Verified"
	StatusReturned Status = "Returned"
)

var validStatuses = map[Status]bool{
	StatusPending:  true,
	StatusApproved: true,
	StatusRejected: true,
	StatusFlagged:  true,
	StatusVerified: true,
	StatusReturned: true,
}

// IsValid returns true if the status is a known lifecycle state.
func (s Status) IsValid() bool {
	return validStatuses[s]
}

func (s Status) String() string {
	return string(s)
}

// Actor names recorded in VerifiedBy by the automated triage policies.
const (
	ActorAutoVerifier    = "AutoVerifier"
	ActorCoordinatorAuto = "CoordinatorAuto"
	ActorManagerAuto     = "ManagerAuto"
)

// Claim is the domain representation of a lecturer timesheet claim.
// It mirrors the claims table and should not include JSON annotations so it
// can be reused by different presentation layers.
type Claim struct {
	ID                     int64
	LecturerName           string
	StartTime              *time.Time
	EndTime                *time.Time
	HoursWorked            decimal.Decimal
	HourlyRate             decimal.Decimal
	SupportingDocumentPath *string
	Notes                  *string
	Status                 Status
	DateSubmitted          time.Time
	VerifiedBy             *string
	VerifiedDate           *time.Time
	HODComments            *string
	LastActionNote         *string
	EscalatedToManager     bool
}

// TotalAmount is derived from the current hours and rate on every call and is
// never cached on the record.
func (c Claim) TotalAmount() decimal.Decimal {
	return c.HoursWorked.Mul(c.HourlyRate).Round(2)
}

// HasDocument reports whether a supporting document reference is attached.
func (c Claim) HasDocument() bool {
	return c.SupportingDocumentPath != nil && *c.SupportingDocumentPath != ""
}

// Draft contains the submission fields supplied by the lecturer.
type Draft struct {
	LecturerName string
	StartTime    *time.Time
	EndTime      *time.Time
	HoursWorked  decimal.Decimal
	HourlyRate   decimal.Decimal
	Notes        *string
}
