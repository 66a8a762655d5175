package domain

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// PenaltyType describes how a penalty amount is interpreted
type PenaltyType string

const (
	PenaltyNone        PenaltyType = "none"
	PenaltyPercentage  PenaltyType = "percentage"
	PenaltyFixedAmount PenaltyType = "fixed_amount"
	PenaltyFullCharge  PenaltyType = "full_charge"
)

// IsValid returns true for every known penalty type
func (p PenaltyType) IsValid() bool {
	switch p {
	case PenaltyNone, PenaltyPercentage, PenaltyFixedAmount, PenaltyFullCharge:
		return true
	}
	return false
}

// ErrInvalidPolicy is wrapped by every Validate failure
var ErrInvalidPolicy = errors.New("domain: invalid cancellation policy")

// CancellationRule is one lead-time tier of a policy
type CancellationRule struct {
	TimeBeforeAppointmentHours float64
	PenaltyType                PenaltyType
	PenaltyAmount              decimal.Decimal // percentage points or currency units depending on PenaltyType
	RefundPercentage           decimal.Decimal
}

// NoShowPolicy defines what happens when the client does not show up
type NoShowPolicy struct {
	Enabled            bool
	GracePeriodMinutes int
	PenaltyType        PenaltyType
	PenaltyAmount      decimal.Decimal
}

// ReschedulePolicy defines whether and how often a booking may be moved
type ReschedulePolicy struct {
	AllowRescheduling        bool
	MaxReschedulesPerBooking int
	MinNoticeHours           float64
}

// CancellationPolicy is owned by a provider and read-only to the engine
type CancellationPolicy struct {
	ID                          int64
	ProviderID                  int64
	PolicyName                  string
	FreeCancellationWindowHours float64
	Rules                       []CancellationRule
	NoShowPolicy                NoShowPolicy
	ReschedulePolicy            ReschedulePolicy
}

// SortedRules returns the rules ordered by descending threshold.
// The sort is stable, so duplicate thresholds keep their authored order.
func (p *CancellationPolicy) SortedRules() []CancellationRule {
	rules := make([]CancellationRule, len(p.Rules))
	copy(rules, p.Rules)
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].TimeBeforeAppointmentHours > rules[j].TimeBeforeAppointmentHours
	})
	return rules
}

var hundred = decimal.NewFromInt(100)

// Validate checks the structure the evaluator relies on
func (p *CancellationPolicy) Validate() error {
	if len(p.Rules) == 0 {
		return fmt.Errorf("%w: policy id=%d has no rules", ErrInvalidPolicy, p.ID)
	}
	if !validHours(p.FreeCancellationWindowHours) {
		return fmt.Errorf("%w: free cancellation window %v outside 0..%dh", ErrInvalidPolicy,
			p.FreeCancellationWindowHours, MaxPolicyHours)
	}

	catchAll := 0
	for i, rule := range p.Rules {
		if !validHours(rule.TimeBeforeAppointmentHours) {
			return fmt.Errorf("%w: rule #%d threshold %v outside 0..%dh", ErrInvalidPolicy,
				i, rule.TimeBeforeAppointmentHours, MaxPolicyHours)
		}
		if rule.TimeBeforeAppointmentHours == 0 {
			catchAll++
		}
		if err := validatePenalty(rule.PenaltyType, rule.PenaltyAmount); err != nil {
			return fmt.Errorf("%w: rule #%d: %v", ErrInvalidPolicy, i, err)
		}
		if rule.RefundPercentage.IsNegative() || rule.RefundPercentage.GreaterThan(hundred) {
			return fmt.Errorf("%w: rule #%d refund percentage out of range", ErrInvalidPolicy, i)
		}
	}
	if catchAll != 1 {
		return fmt.Errorf("%w: expected exactly one 0h rule, got %d", ErrInvalidPolicy, catchAll)
	}

	if p.NoShowPolicy.Enabled {
		if p.NoShowPolicy.GracePeriodMinutes < 0 {
			return fmt.Errorf("%w: negative no-show grace period", ErrInvalidPolicy)
		}
		if p.NoShowPolicy.PenaltyType == PenaltyNone {
			return fmt.Errorf("%w: no-show penalty type must not be none", ErrInvalidPolicy)
		}
		if err := validatePenalty(p.NoShowPolicy.PenaltyType, p.NoShowPolicy.PenaltyAmount); err != nil {
			return fmt.Errorf("%w: no-show: %v", ErrInvalidPolicy, err)
		}
	}

	if p.ReschedulePolicy.MaxReschedulesPerBooking < 0 || !validHours(p.ReschedulePolicy.MinNoticeHours) {
		return fmt.Errorf("%w: reschedule limits out of range", ErrInvalidPolicy)
	}

	return nil
}

// validHours принимает конечные значения в 0..MaxPolicyHours
func validHours(h float64) bool {
	return !math.IsNaN(h) && !math.IsInf(h, 0) && h >= 0 && h <= MaxPolicyHours
}

func validatePenalty(t PenaltyType, amount decimal.Decimal) error {
	if !t.IsValid() {
		return fmt.Errorf("unknown penalty type %q", t)
	}
	if amount.IsNegative() {
		return errors.New("negative penalty amount")
	}
	if t == PenaltyPercentage && amount.GreaterThan(hundred) {
		return errors.New("penalty percentage above 100")
	}
	return nil
}

// Clone returns a copy that shares no memory with p
func (p *CancellationPolicy) Clone() *CancellationPolicy {
	c := *p
	c.Rules = make([]CancellationRule, len(p.Rules))
	copy(c.Rules, p.Rules)
	return &c
}
