package domain_test

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-CancellationService/internal/domain"
)

func validPolicy() *domain.CancellationPolicy {
	return &domain.CancellationPolicy{
		ID:                          1,
		ProviderID:                  10,
		PolicyName:                  "standard",
		FreeCancellationWindowHours: 48,
		Rules: []domain.CancellationRule{
			{TimeBeforeAppointmentHours: 24, PenaltyType: domain.PenaltyPercentage, PenaltyAmount: decimal.NewFromInt(25), RefundPercentage: decimal.NewFromInt(75)},
			{TimeBeforeAppointmentHours: 0, PenaltyType: domain.PenaltyFullCharge, RefundPercentage: decimal.Zero},
		},
		NoShowPolicy: domain.NoShowPolicy{
			Enabled:            true,
			GracePeriodMinutes: 15,
			PenaltyType:        domain.PenaltyPercentage,
			PenaltyAmount:      decimal.NewFromInt(50),
		},
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to domain.BookingStatus
		allowed  bool
	}{
		{domain.StatusPending, domain.StatusUpcoming, true},
		{domain.StatusPending, domain.StatusCancelled, false},
		{domain.StatusUpcoming, domain.StatusUpcoming, true},
		{domain.StatusUpcoming, domain.StatusCancelled, true},
		{domain.StatusUpcoming, domain.StatusNoShow, true},
		{domain.StatusUpcoming, domain.StatusCompleted, true},
		{domain.StatusUpcoming, domain.StatusPending, false},
		{domain.StatusCancelled, domain.StatusUpcoming, false},
		{domain.StatusNoShow, domain.StatusCancelled, false},
		{domain.StatusCompleted, domain.StatusNoShow, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, domain.CanTransition(tt.from, tt.to))
		})
	}
}

func TestBookingStatus_Terminal(t *testing.T) {
	for _, s := range domain.TerminalStatuses {
		assert.True(t, s.IsTerminal(), s)
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, domain.StatusPending.IsTerminal())
	assert.False(t, domain.StatusUpcoming.IsTerminal())
	assert.False(t, domain.BookingStatus("confirmed").IsValid())
}

func TestBooking_CloneIsDeep(t *testing.T) {
	note := "sick"
	b := &domain.Booking{
		ID:     1,
		Status: domain.StatusCancelled,
		Cancellation: &domain.CancellationRecord{
			Kind: domain.KindCancellation,
			Note: &note,
		},
	}

	c := b.Clone()
	*c.Cancellation.Note = "changed"
	c.Cancellation.RuleMatched = "x"

	assert.Equal(t, "sick", *b.Cancellation.Note)
	assert.Empty(t, b.Cancellation.RuleMatched)
}

func TestBooking_HoursUntil(t *testing.T) {
	now := time.Date(2025, time.October, 14, 12, 0, 0, 0, time.UTC)
	b := &domain.Booking{ScheduledAt: now.Add(90 * time.Minute)}

	assert.InDelta(t, 1.5, b.HoursUntil(now), 1e-9)
	assert.InDelta(t, -0.5, b.HoursUntil(now.Add(2*time.Hour)), 1e-9)
}

func TestCancellationPolicy_Validate(t *testing.T) {
	require.NoError(t, validPolicy().Validate())

	tests := []struct {
		name   string
		mutate func(p *domain.CancellationPolicy)
	}{
		{"no rules", func(p *domain.CancellationPolicy) { p.Rules = nil }},
		{"missing catch-all", func(p *domain.CancellationPolicy) { p.Rules = p.Rules[:1] }},
		{"two catch-all rules", func(p *domain.CancellationPolicy) {
			p.Rules = append(p.Rules, domain.CancellationRule{PenaltyType: domain.PenaltyNone, RefundPercentage: decimal.NewFromInt(100)})
		}},
		{"negative threshold", func(p *domain.CancellationPolicy) { p.Rules[0].TimeBeforeAppointmentHours = -1 }},
		{"refund above 100", func(p *domain.CancellationPolicy) { p.Rules[0].RefundPercentage = decimal.NewFromInt(101) }},
		{"unknown penalty type", func(p *domain.CancellationPolicy) { p.Rules[0].PenaltyType = "bogus" }},
		{"percentage above 100", func(p *domain.CancellationPolicy) { p.Rules[0].PenaltyAmount = decimal.NewFromInt(150) }},
		{"negative window", func(p *domain.CancellationPolicy) { p.FreeCancellationWindowHours = -2 }},
		{"window beyond limit", func(p *domain.CancellationPolicy) { p.FreeCancellationWindowHours = 1e7 }},
		{"NaN window", func(p *domain.CancellationPolicy) { p.FreeCancellationWindowHours = math.NaN() }},
		{"infinite threshold", func(p *domain.CancellationPolicy) { p.Rules[0].TimeBeforeAppointmentHours = math.Inf(1) }},
		{"threshold beyond limit", func(p *domain.CancellationPolicy) { p.Rules[0].TimeBeforeAppointmentHours = domain.MaxPolicyHours + 1 }},
		{"NaN min notice", func(p *domain.CancellationPolicy) { p.ReschedulePolicy.MinNoticeHours = math.NaN() }},
		{"no-show none penalty", func(p *domain.CancellationPolicy) { p.NoShowPolicy.PenaltyType = domain.PenaltyNone }},
		{"negative grace", func(p *domain.CancellationPolicy) { p.NoShowPolicy.GracePeriodMinutes = -1 }},
		{"negative reschedule limit", func(p *domain.CancellationPolicy) { p.ReschedulePolicy.MaxReschedulesPerBooking = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPolicy()
			tt.mutate(p)
			assert.ErrorIs(t, p.Validate(), domain.ErrInvalidPolicy)
		})
	}
}

func TestCancellationPolicy_ValidateAcceptsLimit(t *testing.T) {
	p := validPolicy()
	p.FreeCancellationWindowHours = domain.MaxPolicyHours

	assert.NoError(t, p.Validate())
}

func TestCancellationPolicy_DisabledNoShowIsNotChecked(t *testing.T) {
	p := validPolicy()
	p.NoShowPolicy = domain.NoShowPolicy{Enabled: false, PenaltyType: domain.PenaltyNone}

	assert.NoError(t, p.Validate())
}

func TestCancellationPolicy_SortedRulesIsStable(t *testing.T) {
	p := validPolicy()
	p.Rules = []domain.CancellationRule{
		{TimeBeforeAppointmentHours: 0, PenaltyType: domain.PenaltyFullCharge},
		{TimeBeforeAppointmentHours: 24, PenaltyType: domain.PenaltyPercentage, PenaltyAmount: decimal.NewFromInt(10)},
		{TimeBeforeAppointmentHours: 24, PenaltyType: domain.PenaltyPercentage, PenaltyAmount: decimal.NewFromInt(20)},
		{TimeBeforeAppointmentHours: 72, PenaltyType: domain.PenaltyNone},
	}

	sorted := p.SortedRules()

	require.Len(t, sorted, 4)
	assert.Equal(t, 72.0, sorted[0].TimeBeforeAppointmentHours)
	assert.True(t, sorted[1].PenaltyAmount.Equal(decimal.NewFromInt(10)))
	assert.True(t, sorted[2].PenaltyAmount.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, 0.0, sorted[3].TimeBeforeAppointmentHours)
	assert.Equal(t, 0.0, p.Rules[0].TimeBeforeAppointmentHours, "source order untouched")
}

func TestOutcome_RecordRoundTrip(t *testing.T) {
	at := time.Date(2025, time.October, 14, 12, 0, 0, 0, time.UTC)
	o := domain.CancellationOutcome{
		CanCancel:   true,
		Penalty:     decimal.NewFromInt(25),
		Refund:      decimal.NewFromInt(75),
		RuleMatched: "24h+",
		Message:     "25% penalty",
	}

	rec := o.Record(domain.KindCancellation, nil, at)

	assert.Equal(t, domain.KindCancellation, rec.Kind)
	assert.Equal(t, at, rec.OccurredAt)
	assert.Equal(t, o, domain.OutcomeFromRecord(&rec))
}
