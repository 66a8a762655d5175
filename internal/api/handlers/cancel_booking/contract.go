package cancel_booking

import (
	"context"

	"github.com/m04kA/SMC-CancellationService/internal/service/bookings/models"
)

type BookingService interface {
	Cancel(ctx context.Context, bookingID int64, reason string) (*models.OutcomeResponse, error)
	Precision() int32
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
