package claim

import "github.com/shopspring/decimal"

// Limits collects the numeric bounds and automation thresholds of the
// workflow. The values vary between deployments, so they are configuration
// rather than constants.
type Limits struct {
	// MaxNameLen bounds the lecturer name length.
	MaxNameLen int

	// Hours worked must be positive and at most MaxHours; the hourly rate
	// must be positive and at most MaxRate.
	MaxHours decimal.Decimal
	MaxRate  decimal.Decimal

	// A supporting document is required above either threshold.
	DocRequiredHours decimal.Decimal
	DocRequiredRate  decimal.Decimal

	// Submissions above either value bypass Pending and enter Flagged
	// with a manager escalation.
	FlagHours decimal.Decimal
	FlagRate  decimal.Decimal

	// AutoVerify approves pending claims at or below both values.
	AutoVerifyHours decimal.Decimal
	AutoVerifyRate  decimal.Decimal

	// CoordinatorAutoApprove approves pending claims at or below both values.
	CoordinatorHours decimal.Decimal
	CoordinatorRate  decimal.Decimal
}

// DefaultLimits returns the canonical thresholds used by the workflow.
func DefaultLimits() Limits {
	return Limits{
		MaxNameLen:       100,
		MaxHours:         decimal.NewFromInt(10000),
		MaxRate:          decimal.NewFromInt(1000000),
		DocRequiredHours: decimal.NewFromInt(12),
		DocRequiredRate:  decimal.NewFromInt(2000),
		FlagHours:        decimal.NewFromInt(40),
		FlagRate:         decimal.NewFromInt(50000),
		AutoVerifyHours:  decimal.NewFromInt(8),
		AutoVerifyRate:   decimal.NewFromInt(1000),
		CoordinatorHours: decimal.NewFromInt(20),
		CoordinatorRate:  decimal.NewFromInt(5000),
	}
}
