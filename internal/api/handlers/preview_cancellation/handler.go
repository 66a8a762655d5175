package preview_cancellation

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-CancellationService/internal/api/handlers"
	"github.com/m04kA/SMC-CancellationService/internal/service/bookings"
)

const (
	msgInvalidBookingID = "некорректный ID бронирования"
	msgNotFound         = "бронирование не найдено"
	msgPolicyNotFound   = "политика отмены провайдера не найдена"
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

// Handle GET /api/v1/bookings/{bookingId}/cancellation-preview
// Ничего не записывает, безопасно вызывать повторно
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	bookingID, err := handlers.PathID(r, "bookingId")
	if err != nil {
		h.logger.Warn("GET /bookings/{id}/cancellation-preview - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	outcome, err := h.service.Preview(r.Context(), bookingID)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			h.logger.Warn("GET /bookings/{id}/cancellation-preview - Booking not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, bookings.ErrPolicyNotFound):
			h.logger.Warn("GET /bookings/{id}/cancellation-preview - Policy not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgPolicyNotFound)

		default:
			h.logger.Error("GET /bookings/{id}/cancellation-preview - Failed to preview: booking_id=%d, error=%v",
				bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /bookings/{id}/cancellation-preview - Preview computed: booking_id=%d, rule=%q",
		bookingID, outcome.Rule)
	handlers.RespondJSON(w, http.StatusOK, outcome)
}
