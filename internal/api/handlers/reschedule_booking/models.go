package reschedule_booking

import (
	"time"

	"github.com/m04kA/SMC-CancellationService/internal/domain"
)

// RescheduleBookingRequest HTTP request model
type RescheduleBookingRequest struct {
	ScheduledAt string `json:"scheduledAt" validate:"required"` // RFC3339
}

// ParseScheduledAt разбирает новое время записи
func (r *RescheduleBookingRequest) ParseScheduledAt() (time.Time, error) {
	return time.Parse(domain.TimeFormat, r.ScheduledAt)
}

// RescheduleNotAllowedResponse 422 с конкретным невыполненным условием политики
type RescheduleNotAllowedResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Condition string `json:"condition"`
}
