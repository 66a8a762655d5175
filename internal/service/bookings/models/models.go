package models

import (
	"github.com/m04kA/SMC-CancellationService/internal/domain"
)

// Response модели

// OutcomeResponse результат оценки или фиксации отмены
type OutcomeResponse struct {
	CanCancel bool   `json:"canCancel"`
	Penalty   string `json:"penalty"`
	Refund    string `json:"refund"`
	Rule      string `json:"rule"`
	Message   string `json:"message"`
}

// CancellationResponse записанный результат отмены или no-show
type CancellationResponse struct {
	Kind       string  `json:"kind"`
	Rule       string  `json:"rule"`
	Penalty    string  `json:"penalty"`
	Refund     string  `json:"refund"`
	Message    string  `json:"message"`
	Reason     *string `json:"reason,omitempty"`
	OccurredAt string  `json:"occurredAt"`
}

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID              int64                 `json:"id"`
	ProviderID      int64                 `json:"providerId"`
	ClientID        int64                 `json:"clientId"`
	Amount          string                `json:"amount"`
	ScheduledAt     string                `json:"scheduledAt"`
	Status          string                `json:"status"`
	RescheduleCount int                   `json:"rescheduleCount"`
	Version         int64                 `json:"version"`
	Cancellation    *CancellationResponse `json:"cancellation,omitempty"`
	CreatedAt       string                `json:"createdAt,omitempty"`
	UpdatedAt       string                `json:"updatedAt,omitempty"`
}

// Конвертеры

// FromDomainOutcome конвертирует domain.CancellationOutcome в OutcomeResponse
func FromDomainOutcome(o domain.CancellationOutcome, precision int32) *OutcomeResponse {
	return &OutcomeResponse{
		CanCancel: o.CanCancel,
		Penalty:   o.Penalty.StringFixed(precision),
		Refund:    o.Refund.StringFixed(precision),
		Rule:      o.RuleMatched,
		Message:   o.Message,
	}
}

// FromDomainRecord конвертирует domain.CancellationRecord в CancellationResponse
func FromDomainRecord(rec *domain.CancellationRecord, precision int32) *CancellationResponse {
	if rec == nil {
		return nil
	}
	return &CancellationResponse{
		Kind:       string(rec.Kind),
		Rule:       rec.RuleMatched,
		Penalty:    rec.Penalty.StringFixed(precision),
		Refund:     rec.Refund.StringFixed(precision),
		Message:    rec.Reason,
		Reason:     rec.Note,
		OccurredAt: rec.OccurredAt.UTC().Format(domain.TimeFormat),
	}
}

// FromDomainBooking конвертирует domain.Booking в BookingResponse
func FromDomainBooking(b *domain.Booking, precision int32) *BookingResponse {
	resp := &BookingResponse{
		ID:              b.ID,
		ProviderID:      b.ProviderID,
		ClientID:        b.ClientID,
		Amount:          b.Amount.StringFixed(precision),
		ScheduledAt:     b.ScheduledAt.UTC().Format(domain.TimeFormat),
		Status:          string(b.Status),
		RescheduleCount: b.RescheduleCount,
		Version:         b.Version,
		Cancellation:    FromDomainRecord(b.Cancellation, precision),
	}
	if !b.CreatedAt.IsZero() {
		resp.CreatedAt = b.CreatedAt.UTC().Format(domain.TimeFormat)
	}
	if !b.UpdatedAt.IsZero() {
		resp.UpdatedAt = b.UpdatedAt.UTC().Format(domain.TimeFormat)
	}
	return resp
}
