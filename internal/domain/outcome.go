package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Names of the synthetic rules reported in outcomes
const (
	RuleFreeWindow      = "free cancellation window"
	RuleElapsed         = "appointment already elapsed"
	RuleNoShow          = "no-show policy"
	MessageElapsed      = "appointment already elapsed"
	MessageFreeWindow   = "free cancellation"
	MessageNoShowFormat = "no-show after %d minute grace period"
)

// CancellationOutcome is the evaluator's verdict for a booking at a point in time
type CancellationOutcome struct {
	CanCancel   bool
	Penalty     decimal.Decimal
	Refund      decimal.Decimal
	RuleMatched string
	Message     string
}

// NoShowOutcome is the evaluator's verdict for a no-show
type NoShowOutcome struct {
	Penalty decimal.Decimal
	Refund  decimal.Decimal
}

// Record converts an outcome into the write-once record stored on the booking
func (o CancellationOutcome) Record(kind CancellationKind, note *string, at time.Time) CancellationRecord {
	return CancellationRecord{
		Kind:        kind,
		RuleMatched: o.RuleMatched,
		Penalty:     o.Penalty,
		Refund:      o.Refund,
		Reason:      o.Message,
		Note:        note,
		OccurredAt:  at,
	}
}

// OutcomeFromRecord restores the outcome that produced a stored record
func OutcomeFromRecord(rec *CancellationRecord) CancellationOutcome {
	return CancellationOutcome{
		CanCancel:   true,
		Penalty:     rec.Penalty,
		Refund:      rec.Refund,
		RuleMatched: rec.RuleMatched,
		Message:     rec.Reason,
	}
}

// RefundStatus is what the refund gateway reports back
type RefundStatus string

const (
	RefundAcknowledged RefundStatus = "acknowledged"
	RefundQueued       RefundStatus = "queued"
)
