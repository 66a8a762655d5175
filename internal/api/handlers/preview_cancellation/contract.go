package preview_cancellation

import (
	"context"

	"github.com/m04kA/SMC-CancellationService/internal/service/bookings/models"
)

type BookingService interface {
	Preview(ctx context.Context, bookingID int64) (*models.OutcomeResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
