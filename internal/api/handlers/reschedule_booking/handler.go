package reschedule_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-CancellationService/internal/api/handlers"
	"github.com/m04kA/SMC-CancellationService/internal/service/bookings"
)

const (
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidTime        = "некорректное время, ожидается RFC3339 в будущем"
	msgNotFound           = "бронирование не найдено"
	msgPolicyNotFound     = "политика отмены провайдера не найдена"
	msgCannotReschedule   = "бронирование нельзя перенести в текущем статусе"
	msgNotAllowed         = "перенос запрещён политикой"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/bookings/{bookingId}/reschedule
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	bookingID, err := handlers.PathID(r, "bookingId")
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id}/reschedule - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	var req RescheduleBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /bookings/{id}/reschedule - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	scheduledAt, err := req.ParseScheduledAt()
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id}/reschedule - Invalid scheduledAt %q: %v", req.ScheduledAt, err)
		handlers.RespondBadRequest(w, msgInvalidTime)
		return
	}

	booking, err := h.service.Reschedule(r.Context(), bookingID, scheduledAt)
	if err != nil {
		var notAllowed *bookings.RescheduleNotAllowedError
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			h.logger.Warn("PATCH /bookings/{id}/reschedule - Booking not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, bookings.ErrPolicyNotFound):
			h.logger.Warn("PATCH /bookings/{id}/reschedule - Policy not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgPolicyNotFound)

		case errors.As(err, &notAllowed):
			h.logger.Warn("PATCH /bookings/{id}/reschedule - Not allowed: booking_id=%d, condition=%s",
				bookingID, notAllowed.Condition)
			handlers.RespondJSON(w, http.StatusUnprocessableEntity, RescheduleNotAllowedResponse{
				Code:      http.StatusUnprocessableEntity,
				Message:   msgNotAllowed,
				Condition: string(notAllowed.Condition),
			})

		case errors.Is(err, bookings.ErrInvalidStateTransition):
			h.logger.Warn("PATCH /bookings/{id}/reschedule - Invalid transition: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondConflict(w, msgCannotReschedule)

		case errors.Is(err, bookings.ErrConcurrentModification):
			h.logger.Warn("PATCH /bookings/{id}/reschedule - Concurrent modification: booking_id=%d", bookingID)
			handlers.RespondConcurrentModification(w)

		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("PATCH /bookings/{id}/reschedule - Invalid input: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondBadRequest(w, msgInvalidTime)

		default:
			h.logger.Error("PATCH /bookings/{id}/reschedule - Failed to reschedule: booking_id=%d, error=%v",
				bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /bookings/{id}/reschedule - Booking rescheduled: booking_id=%d, scheduled_at=%s, count=%d",
		bookingID, booking.ScheduledAt, booking.RescheduleCount)
	handlers.RespondJSON(w, http.StatusOK, booking)
}
