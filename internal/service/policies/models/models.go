package models

import (
	"github.com/m04kA/SMC-CancellationService/internal/domain"
)

// Response модели

// RuleResponse один тир политики отмены
type RuleResponse struct {
	TimeBeforeAppointmentHours float64 `json:"timeBeforeAppointmentHours"`
	PenaltyType                string  `json:"penaltyType"`
	PenaltyAmount              string  `json:"penaltyAmount"`
	RefundPercentage           string  `json:"refundPercentage"`
}

// NoShowPolicyResponse политика неявки
type NoShowPolicyResponse struct {
	Enabled            bool   `json:"enabled"`
	GracePeriodMinutes int    `json:"gracePeriodMinutes"`
	PenaltyType        string `json:"penaltyType"`
	PenaltyAmount      string `json:"penaltyAmount"`
}

// ReschedulePolicyResponse политика переноса
type ReschedulePolicyResponse struct {
	AllowRescheduling        bool    `json:"allowRescheduling"`
	MaxReschedulesPerBooking int     `json:"maxReschedulesPerBooking"`
	MinNoticeHours           float64 `json:"minNoticeHours"`
}

// PolicyResponse ответ с политикой отмены провайдера
type PolicyResponse struct {
	ID                          int64                    `json:"id"`
	ProviderID                  int64                    `json:"providerId"`
	PolicyName                  string                   `json:"policyName"`
	FreeCancellationWindowHours float64                  `json:"freeCancellationWindowHours"`
	Rules                       []RuleResponse           `json:"rules"`
	NoShowPolicy                NoShowPolicyResponse     `json:"noShowPolicy"`
	ReschedulePolicy            ReschedulePolicyResponse `json:"reschedulePolicy"`
}

// Конвертеры

// FromDomainPolicy конвертирует domain.CancellationPolicy в PolicyResponse
func FromDomainPolicy(p *domain.CancellationPolicy) *PolicyResponse {
	sorted := p.SortedRules()
	rules := make([]RuleResponse, 0, len(sorted))
	for _, r := range sorted {
		rules = append(rules, RuleResponse{
			TimeBeforeAppointmentHours: r.TimeBeforeAppointmentHours,
			PenaltyType:                string(r.PenaltyType),
			PenaltyAmount:              r.PenaltyAmount.String(),
			RefundPercentage:           r.RefundPercentage.String(),
		})
	}

	return &PolicyResponse{
		ID:                          p.ID,
		ProviderID:                  p.ProviderID,
		PolicyName:                  p.PolicyName,
		FreeCancellationWindowHours: p.FreeCancellationWindowHours,
		Rules:                       rules,
		NoShowPolicy: NoShowPolicyResponse{
			Enabled:            p.NoShowPolicy.Enabled,
			GracePeriodMinutes: p.NoShowPolicy.GracePeriodMinutes,
			PenaltyType:        string(p.NoShowPolicy.PenaltyType),
			PenaltyAmount:      p.NoShowPolicy.PenaltyAmount.String(),
		},
		ReschedulePolicy: ReschedulePolicyResponse{
			AllowRescheduling:        p.ReschedulePolicy.AllowRescheduling,
			MaxReschedulesPerBooking: p.ReschedulePolicy.MaxReschedulesPerBooking,
			MinNoticeHours:           p.ReschedulePolicy.MinNoticeHours,
		},
	}
}
