package evaluator_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-CancellationService/internal/domain"
	"github.com/m04kA/SMC-CancellationService/internal/evaluator"
)

var now = time.Date(2025, time.October, 14, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func examplePolicy() *domain.CancellationPolicy {
	return &domain.CancellationPolicy{
		ID:                          1,
		ProviderID:                  10,
		PolicyName:                  "standard",
		FreeCancellationWindowHours: 48,
		Rules: []domain.CancellationRule{
			{TimeBeforeAppointmentHours: 0, PenaltyType: domain.PenaltyFullCharge, RefundPercentage: dec("0")},
			{TimeBeforeAppointmentHours: 24, PenaltyType: domain.PenaltyPercentage, PenaltyAmount: dec("25"), RefundPercentage: dec("75")},
		},
		NoShowPolicy: domain.NoShowPolicy{
			Enabled:            true,
			GracePeriodMinutes: 15,
			PenaltyType:        domain.PenaltyPercentage,
			PenaltyAmount:      dec("50"),
		},
	}
}

func bookingIn(hours float64, amount string) *domain.Booking {
	return &domain.Booking{
		ID:          1,
		ProviderID:  10,
		Amount:      dec(amount),
		ScheduledAt: now.Add(time.Duration(hours * float64(time.Hour))),
		Status:      domain.StatusUpcoming,
	}
}

func evaluate(t *testing.T, ev *evaluator.Evaluator, policy *domain.CancellationPolicy, booking *domain.Booking, at time.Time) domain.CancellationOutcome {
	t.Helper()
	out, err := ev.Evaluate(policy, booking, at)
	require.NoError(t, err)
	return out
}

func assertMoney(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual), append([]interface{}{"expected %s, got %s", expected, actual.String()}, msgAndArgs...)...)
}

func TestEvaluate_ExampleTiers(t *testing.T) {
	ev := evaluator.New(2)
	policy := examplePolicy()
	require.NoError(t, policy.Validate())

	tests := []struct {
		name    string
		hours   float64
		penalty string
		refund  string
		rule    string
	}{
		{"inside free window", 50, "0", "100", domain.RuleFreeWindow},
		{"exactly at free window", 48, "0", "100", domain.RuleFreeWindow},
		{"24h tier", 30, "25", "75", "24h+ tier"},
		{"exactly at 24h threshold", 24, "25", "75", "24h+ tier"},
		{"too late", 2, "100", "0", "late cancellation (0h+)"},
		{"right at start", 0, "100", "0", "late cancellation (0h+)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := evaluate(t, ev, policy, bookingIn(tt.hours, "100"), now)
			assert.True(t, out.CanCancel)
			assertMoney(t, tt.penalty, out.Penalty)
			assertMoney(t, tt.refund, out.Refund)
			assert.Equal(t, tt.rule, out.RuleMatched)
			assert.NotEmpty(t, out.Message)
		})
	}
}

func TestEvaluate_Elapsed(t *testing.T) {
	ev := evaluator.New(2)

	out := evaluate(t, ev, examplePolicy(), bookingIn(-0.5, "100"), now)

	assert.False(t, out.CanCancel)
	assert.Equal(t, domain.RuleElapsed, out.RuleMatched)
	assert.True(t, out.Penalty.IsZero())
	assert.True(t, out.Refund.IsZero())
}

func TestEvaluate_FreeWindowAlwaysFree(t *testing.T) {
	ev := evaluator.New(2)
	policy := examplePolicy()

	for _, hours := range []float64{48, 48.01, 72, 240, 10000} {
		for _, amount := range []string{"0", "0.01", "19.99", "100", "12345.67"} {
			out := evaluate(t, ev, policy, bookingIn(hours, amount), now)
			assert.True(t, out.Penalty.IsZero(), "hours=%v amount=%s", hours, amount)
			assertMoney(t, amount, out.Refund, "hours=%v", hours)
		}
	}
}

func TestEvaluate_Monotonic(t *testing.T) {
	ev := evaluator.New(2)
	policy := &domain.CancellationPolicy{
		FreeCancellationWindowHours: 72,
		Rules: []domain.CancellationRule{
			{TimeBeforeAppointmentHours: 48, PenaltyType: domain.PenaltyFixedAmount, PenaltyAmount: dec("10"), RefundPercentage: dec("90")},
			{TimeBeforeAppointmentHours: 12, PenaltyType: domain.PenaltyPercentage, PenaltyAmount: dec("50"), RefundPercentage: dec("50")},
			{TimeBeforeAppointmentHours: 0, PenaltyType: domain.PenaltyFullCharge, RefundPercentage: dec("0")},
			{TimeBeforeAppointmentHours: 24, PenaltyType: domain.PenaltyPercentage, PenaltyAmount: dec("30"), RefundPercentage: dec("70")},
		},
	}
	require.NoError(t, policy.Validate())

	prevPenalty := decimal.NewFromInt(-1)
	prevRefund := decimal.NewFromInt(1 << 30)
	for minutes := 100 * 60; minutes >= 0; minutes -= 15 {
		out := evaluate(t, ev, policy, bookingIn(float64(minutes)/60, "200"), now)
		assert.True(t, out.Penalty.GreaterThanOrEqual(prevPenalty), "penalty decreased at %d minutes", minutes)
		assert.True(t, out.Refund.LessThanOrEqual(prevRefund), "refund increased at %d minutes", minutes)
		prevPenalty, prevRefund = out.Penalty, out.Refund
	}
}

func TestEvaluate_OrderIndependent(t *testing.T) {
	ev := evaluator.New(2)
	a := examplePolicy()
	b := examplePolicy()
	b.Rules[0], b.Rules[1] = b.Rules[1], b.Rules[0]

	for _, hours := range []float64{0, 1, 23.9, 24, 30, 47.9} {
		assert.Equal(t, evaluate(t, ev, a, bookingIn(hours, "100"), now), evaluate(t, ev, b, bookingIn(hours, "100"), now))
	}
}

func TestEvaluate_DuplicateThresholdsPreferFirstAuthored(t *testing.T) {
	ev := evaluator.New(2)
	policy := &domain.CancellationPolicy{
		FreeCancellationWindowHours: 48,
		Rules: []domain.CancellationRule{
			{TimeBeforeAppointmentHours: 0, PenaltyType: domain.PenaltyFullCharge, RefundPercentage: dec("0")},
			{TimeBeforeAppointmentHours: 24, PenaltyType: domain.PenaltyPercentage, PenaltyAmount: dec("10"), RefundPercentage: dec("90")},
			{TimeBeforeAppointmentHours: 24, PenaltyType: domain.PenaltyPercentage, PenaltyAmount: dec("40"), RefundPercentage: dec("60")},
		},
	}

	for i := 0; i < 20; i++ {
		out := evaluate(t, ev, policy, bookingIn(30, "100"), now)
		assertMoney(t, "10", out.Penalty)
		assertMoney(t, "90", out.Refund)
	}
}

func TestEvaluate_PenaltyTypes(t *testing.T) {
	ev := evaluator.New(2)

	tests := []struct {
		name    string
		rule    domain.CancellationRule
		amount  string
		penalty string
		refund  string
	}{
		{"none", domain.CancellationRule{PenaltyType: domain.PenaltyNone, PenaltyAmount: dec("99"), RefundPercentage: dec("100")}, "80", "0", "80"},
		{"fixed below charge", domain.CancellationRule{PenaltyType: domain.PenaltyFixedAmount, PenaltyAmount: dec("15"), RefundPercentage: dec("50")}, "80", "15", "40"},
		{"fixed capped at charge", domain.CancellationRule{PenaltyType: domain.PenaltyFixedAmount, PenaltyAmount: dec("150"), RefundPercentage: dec("0")}, "80", "80", "0"},
		{"full charge ignores amount", domain.CancellationRule{PenaltyType: domain.PenaltyFullCharge, PenaltyAmount: dec("5"), RefundPercentage: dec("10")}, "80", "80", "8"},
		{"penalty and refund independent", domain.CancellationRule{PenaltyType: domain.PenaltyPercentage, PenaltyAmount: dec("30"), RefundPercentage: dec("100")}, "80", "24", "80"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := &domain.CancellationPolicy{
				FreeCancellationWindowHours: 24,
				Rules:                       []domain.CancellationRule{tt.rule},
			}
			out := evaluate(t, ev, policy, bookingIn(1, tt.amount), now)
			assertMoney(t, tt.penalty, out.Penalty)
			assertMoney(t, tt.refund, out.Refund)
			assert.True(t, out.Refund.LessThanOrEqual(dec(tt.amount)))
		})
	}
}

func TestEvaluate_RoundsHalfToEven(t *testing.T) {
	ev := evaluator.New(2)
	policy := &domain.CancellationPolicy{
		FreeCancellationWindowHours: 24,
		Rules: []domain.CancellationRule{
			{TimeBeforeAppointmentHours: 0, PenaltyType: domain.PenaltyPercentage, PenaltyAmount: dec("50"), RefundPercentage: dec("50")},
		},
	}

	// 50% of 0.25 = 0.125 -> 0.12, 50% of 0.35 = 0.175 -> 0.18
	out := evaluate(t, ev, policy, bookingIn(1, "0.25"), now)
	assertMoney(t, "0.12", out.Penalty)
	assertMoney(t, "0.12", out.Refund)

	out = evaluate(t, ev, policy, bookingIn(1, "0.35"), now)
	assertMoney(t, "0.18", out.Penalty)
	assertMoney(t, "0.18", out.Refund)
}

func TestEvaluate_RoundsOnlyOnce(t *testing.T) {
	ev := evaluator.New(2)
	policy := &domain.CancellationPolicy{
		FreeCancellationWindowHours: 24,
		Rules: []domain.CancellationRule{
			{TimeBeforeAppointmentHours: 0, PenaltyType: domain.PenaltyPercentage, PenaltyAmount: dec("30"), RefundPercentage: dec("0")},
		},
	}

	// 30% of 0.417 = 0.1251; rounding through 0.125 first would land on 0.12
	out := evaluate(t, ev, policy, bookingIn(1, "0.417"), now)
	assertMoney(t, "0.13", out.Penalty)
	assert.Equal(t, int32(2), ev.Precision())
}

func TestEvaluateNoShow(t *testing.T) {
	ev := evaluator.New(2)

	tests := []struct {
		name    string
		policy  domain.NoShowPolicy
		amount  string
		penalty string
		refund  string
	}{
		{"half of 80", domain.NoShowPolicy{Enabled: true, GracePeriodMinutes: 15, PenaltyType: domain.PenaltyPercentage, PenaltyAmount: dec("50")}, "80", "40", "40"},
		{"fixed", domain.NoShowPolicy{Enabled: true, PenaltyType: domain.PenaltyFixedAmount, PenaltyAmount: dec("30")}, "80", "30", "50"},
		{"fixed capped", domain.NoShowPolicy{Enabled: true, PenaltyType: domain.PenaltyFixedAmount, PenaltyAmount: dec("300")}, "80", "80", "0"},
		{"full charge", domain.NoShowPolicy{Enabled: true, PenaltyType: domain.PenaltyFullCharge}, "80", "80", "0"},
		{"odd cents", domain.NoShowPolicy{Enabled: true, PenaltyType: domain.PenaltyPercentage, PenaltyAmount: dec("50")}, "0.05", "0.02", "0.03"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ev.EvaluateNoShow(tt.policy, bookingIn(-1, tt.amount))
			assertMoney(t, tt.penalty, out.Penalty)
			assertMoney(t, tt.refund, out.Refund)
		})
	}
}

func TestMatchRule(t *testing.T) {
	rules := examplePolicy().SortedRules()

	rule, ok := evaluator.MatchRule(rules, 30*time.Hour)
	require.True(t, ok)
	assert.Equal(t, 24.0, rule.TimeBeforeAppointmentHours)

	rule, ok = evaluator.MatchRule(rules, 23*time.Hour+59*time.Minute)
	require.True(t, ok)
	assert.Equal(t, 0.0, rule.TimeBeforeAppointmentHours)

	_, ok = evaluator.MatchRule(nil, time.Hour)
	assert.False(t, ok)
}

func TestEvaluate_HugeThresholdsDoNotOverflow(t *testing.T) {
	ev := evaluator.New(2)

	// "never free": the window is far beyond any real lead time
	policy := &domain.CancellationPolicy{
		FreeCancellationWindowHours: 1e7,
		Rules: []domain.CancellationRule{
			{TimeBeforeAppointmentHours: 0, PenaltyType: domain.PenaltyFullCharge, RefundPercentage: dec("0")},
		},
	}
	out := evaluate(t, ev, policy, bookingIn(2, "100"), now)
	assert.Equal(t, "late cancellation (0h+)", out.RuleMatched)
	assertMoney(t, "100", out.Penalty)
	assertMoney(t, "0", out.Refund)

	policy.Rules = append(policy.Rules, domain.CancellationRule{
		TimeBeforeAppointmentHours: 1e12, PenaltyType: domain.PenaltyNone, RefundPercentage: dec("100"),
	})
	out = evaluate(t, ev, policy, bookingIn(2, "100"), now)
	assert.Equal(t, "late cancellation (0h+)", out.RuleMatched)
	assertMoney(t, "100", out.Penalty)
}

func TestEvaluate_NoMatchingRule(t *testing.T) {
	ev := evaluator.New(2)
	policy := &domain.CancellationPolicy{
		ID:                          7,
		FreeCancellationWindowHours: 48,
		Rules: []domain.CancellationRule{
			{TimeBeforeAppointmentHours: 24, PenaltyType: domain.PenaltyNone, RefundPercentage: dec("100")},
		},
	}

	_, err := ev.Evaluate(policy, bookingIn(2, "100"), now)

	assert.ErrorIs(t, err, evaluator.ErrNoMatchingRule)
}
