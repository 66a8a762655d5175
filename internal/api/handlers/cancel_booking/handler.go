package cancel_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-CancellationService/internal/api/handlers"
	"github.com/m04kA/SMC-CancellationService/internal/service/bookings"
)

const (
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgNotFound           = "бронирование не найдено"
	msgPolicyNotFound     = "политика отмены провайдера не найдена"
	msgCannotCancel       = "бронирование не может быть отменено в текущем статусе"
	msgElapsed            = "время записи уже наступило, отмена невозможна"
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

// Handle PATCH /api/v1/bookings/{bookingId}/cancel
// Повторная отмена возвращает 200 с исходным результатом
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	bookingID, err := handlers.PathID(r, "bookingId")
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id}/cancel - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	var req CancelBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /bookings/{id}/cancel - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	outcome, err := h.service.Cancel(r.Context(), bookingID, req.ReasonOrEmpty())
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			h.logger.Warn("PATCH /bookings/{id}/cancel - Booking not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, bookings.ErrPolicyNotFound):
			h.logger.Warn("PATCH /bookings/{id}/cancel - Policy not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgPolicyNotFound)

		case errors.Is(err, bookings.ErrAlreadyFinalized):
			h.logger.Warn("PATCH /bookings/{id}/cancel - Already finalized: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondAlreadyFinalized(w, err, h.service.Precision())

		case errors.Is(err, bookings.ErrInvalidStateTransition):
			h.logger.Warn("PATCH /bookings/{id}/cancel - Invalid transition: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondConflict(w, msgCannotCancel)

		case errors.Is(err, bookings.ErrAppointmentElapsed):
			h.logger.Warn("PATCH /bookings/{id}/cancel - Appointment elapsed: booking_id=%d", bookingID)
			handlers.RespondConflict(w, msgElapsed)

		case errors.Is(err, bookings.ErrConcurrentModification):
			h.logger.Warn("PATCH /bookings/{id}/cancel - Concurrent modification: booking_id=%d", bookingID)
			handlers.RespondConcurrentModification(w)

		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("PATCH /bookings/{id}/cancel - Invalid input: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)

		default:
			h.logger.Error("PATCH /bookings/{id}/cancel - Failed to cancel booking: booking_id=%d, error=%v",
				bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /bookings/{id}/cancel - Booking cancelled: booking_id=%d, penalty=%s, refund=%s",
		bookingID, outcome.Penalty, outcome.Refund)
	handlers.RespondJSON(w, http.StatusOK, outcome)
}
