// Package evaluator maps a cancellation policy, a booking and a point in time
// to a cancellation outcome. Everything here is pure: no I/O, no clock, no state.
package evaluator

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-CancellationService/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// ErrNoMatchingRule возвращается для политики без 0h правила; Validate такую политику не пропускает
var ErrNoMatchingRule = errors.New("evaluator: no rule matches lead time")


// Evaluator applies cancellation and no-show rules.
// Currency amounts are rounded half-to-even to Precision decimal places,
// once, after the raw amount is computed.
type Evaluator struct {
	precision int32
}

// New creates an evaluator rounding to the given number of minor-unit digits
func New(precision int32) *Evaluator {
	return &Evaluator{precision: precision}
}

// Precision returns the number of decimal places used for currency amounts
func (e *Evaluator) Precision() int32 {
	return e.precision
}

// Evaluate decides whether the booking can be cancelled at now and at what cost.
// The only error is ErrNoMatchingRule, for a policy that would not pass Validate.
func (e *Evaluator) Evaluate(policy *domain.CancellationPolicy, booking *domain.Booking, now time.Time) (domain.CancellationOutcome, error) {
	amount := e.round(booking.Amount)
	lead := booking.ScheduledAt.Sub(now)

	if lead < 0 {
		return domain.CancellationOutcome{
			CanCancel:   false,
			Penalty:     decimal.Zero,
			Refund:      decimal.Zero,
			RuleMatched: domain.RuleElapsed,
			Message:     domain.MessageElapsed,
		}, nil
	}

	if lead >= hoursToDuration(policy.FreeCancellationWindowHours) {
		return domain.CancellationOutcome{
			CanCancel:   true,
			Penalty:     decimal.Zero,
			Refund:      amount,
			RuleMatched: domain.RuleFreeWindow,
			Message:     domain.MessageFreeWindow,
		}, nil
	}

	rule, ok := MatchRule(policy.SortedRules(), lead)
	if !ok {
		return domain.CancellationOutcome{}, fmt.Errorf("%w: policy id=%d, lead %s", ErrNoMatchingRule, policy.ID, lead)
	}

	penalty := e.round(penaltyFor(rule.PenaltyType, rule.PenaltyAmount, booking.Amount))
	refund := e.round(percentOf(booking.Amount, rule.RefundPercentage))
	if refund.GreaterThan(amount) {
		refund = amount
	}
	if refund.IsNegative() {
		refund = decimal.Zero
	}

	return domain.CancellationOutcome{
		CanCancel:   true,
		Penalty:     penalty,
		Refund:      refund,
		RuleMatched: TierName(rule.TimeBeforeAppointmentHours),
		Message: fmt.Sprintf("cancellation %.1fh before appointment: penalty %s, refund %s",
			lead.Hours(), penalty.StringFixed(e.precision), refund.StringFixed(e.precision)),
	}, nil
}

// EvaluateNoShow computes the penalty and refund for a booking the client did not attend.
// Grace period and the enabled flag are checked by the caller.
func (e *Evaluator) EvaluateNoShow(policy domain.NoShowPolicy, booking *domain.Booking) domain.NoShowOutcome {
	amount := e.round(booking.Amount)
	penalty := e.round(penaltyFor(policy.PenaltyType, policy.PenaltyAmount, booking.Amount))

	refund := decimal.Zero
	if policy.PenaltyType != domain.PenaltyFullCharge {
		refund = amount.Sub(penalty)
		if refund.IsNegative() {
			refund = decimal.Zero
		}
	}

	return domain.NoShowOutcome{Penalty: penalty, Refund: refund}
}

// MatchRule selects the rule with the largest threshold not above lead.
// rules must be sorted by descending threshold; on duplicate thresholds the first one wins.
func MatchRule(rules []domain.CancellationRule, lead time.Duration) (domain.CancellationRule, bool) {
	for _, rule := range rules {
		if hoursToDuration(rule.TimeBeforeAppointmentHours) <= lead {
			return rule, true
		}
	}
	return domain.CancellationRule{}, false
}

// TierName is the human-readable name of a rule
func TierName(hours float64) string {
	if hours == 0 {
		return "late cancellation (0h+)"
	}
	return strconv.FormatFloat(hours, 'f', -1, 64) + "h+ tier"
}

func (e *Evaluator) round(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(e.precision)
}

// penaltyFor возвращает неокруглённую сумму штрафа
func penaltyFor(t domain.PenaltyType, penaltyAmount, amount decimal.Decimal) decimal.Decimal {
	switch t {
	case domain.PenaltyPercentage:
		return percentOf(amount, penaltyAmount)
	case domain.PenaltyFixedAmount:
		return decimal.Min(penaltyAmount, amount)
	case domain.PenaltyFullCharge:
		return amount
	default:
		return decimal.Zero
	}
}

func percentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(hundred)
}

// hoursToDuration насыщается на границах time.Duration вместо переполнения
func hoursToDuration(hours float64) time.Duration {
	d := math.Round(hours * float64(time.Hour))
	switch {
	case math.IsNaN(d), d >= math.MaxInt64:
		return math.MaxInt64
	case d <= math.MinInt64:
		return math.MinInt64
	}
	return time.Duration(d)
}
