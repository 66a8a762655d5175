package policy

import (
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-CancellationService/internal/domain"
)

// cachedPolicy JSON представление политики в Redis
type cachedPolicy struct {
	ID                          int64        `json:"id"`
	ProviderID                  int64        `json:"providerId"`
	PolicyName                  string       `json:"policyName"`
	FreeCancellationWindowHours float64      `json:"freeCancellationWindowHours"`
	Rules                       []cachedRule `json:"rules"`
	NoShow                      cachedNoShow `json:"noShow"`
	Reschedule                  cachedResch  `json:"reschedule"`
}

type cachedRule struct {
	TimeBeforeAppointmentHours float64         `json:"timeBeforeAppointmentHours"`
	PenaltyType                string          `json:"penaltyType"`
	PenaltyAmount              decimal.Decimal `json:"penaltyAmount"`
	RefundPercentage           decimal.Decimal `json:"refundPercentage"`
}

type cachedNoShow struct {
	Enabled            bool            `json:"enabled"`
	GracePeriodMinutes int             `json:"gracePeriodMinutes"`
	PenaltyType        string          `json:"penaltyType"`
	PenaltyAmount      decimal.Decimal `json:"penaltyAmount"`
}

type cachedResch struct {
	AllowRescheduling        bool    `json:"allowRescheduling"`
	MaxReschedulesPerBooking int     `json:"maxReschedulesPerBooking"`
	MinNoticeHours           float64 `json:"minNoticeHours"`
}

func fromDomain(p *domain.CancellationPolicy) cachedPolicy {
	rules := make([]cachedRule, 0, len(p.Rules))
	for _, r := range p.Rules {
		rules = append(rules, cachedRule{
			TimeBeforeAppointmentHours: r.TimeBeforeAppointmentHours,
			PenaltyType:                string(r.PenaltyType),
			PenaltyAmount:              r.PenaltyAmount,
			RefundPercentage:           r.RefundPercentage,
		})
	}

	return cachedPolicy{
		ID:                          p.ID,
		ProviderID:                  p.ProviderID,
		PolicyName:                  p.PolicyName,
		FreeCancellationWindowHours: p.FreeCancellationWindowHours,
		Rules:                       rules,
		NoShow: cachedNoShow{
			Enabled:            p.NoShowPolicy.Enabled,
			GracePeriodMinutes: p.NoShowPolicy.GracePeriodMinutes,
			PenaltyType:        string(p.NoShowPolicy.PenaltyType),
			PenaltyAmount:      p.NoShowPolicy.PenaltyAmount,
		},
		Reschedule: cachedResch{
			AllowRescheduling:        p.ReschedulePolicy.AllowRescheduling,
			MaxReschedulesPerBooking: p.ReschedulePolicy.MaxReschedulesPerBooking,
			MinNoticeHours:           p.ReschedulePolicy.MinNoticeHours,
		},
	}
}

func (c cachedPolicy) toDomain() *domain.CancellationPolicy {
	rules := make([]domain.CancellationRule, 0, len(c.Rules))
	for _, r := range c.Rules {
		rules = append(rules, domain.CancellationRule{
			TimeBeforeAppointmentHours: r.TimeBeforeAppointmentHours,
			PenaltyType:                domain.PenaltyType(r.PenaltyType),
			PenaltyAmount:              r.PenaltyAmount,
			RefundPercentage:           r.RefundPercentage,
		})
	}

	return &domain.CancellationPolicy{
		ID:                          c.ID,
		ProviderID:                  c.ProviderID,
		PolicyName:                  c.PolicyName,
		FreeCancellationWindowHours: c.FreeCancellationWindowHours,
		Rules:                       rules,
		NoShowPolicy: domain.NoShowPolicy{
			Enabled:            c.NoShow.Enabled,
			GracePeriodMinutes: c.NoShow.GracePeriodMinutes,
			PenaltyType:        domain.PenaltyType(c.NoShow.PenaltyType),
			PenaltyAmount:      c.NoShow.PenaltyAmount,
		},
		ReschedulePolicy: domain.ReschedulePolicy{
			AllowRescheduling:        c.Reschedule.AllowRescheduling,
			MaxReschedulesPerBooking: c.Reschedule.MaxReschedulesPerBooking,
			MinNoticeHours:           c.Reschedule.MinNoticeHours,
		},
	}
}
