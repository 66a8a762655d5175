package noshow

import (
	"context"
	"time"

	"github.com/m04kA/SMC-CancellationService/internal/domain"
	"github.com/m04kA/SMC-CancellationService/internal/service/bookings/models"
)

// CandidateSource выдаёт upcoming бронирования с наступившим временем
type CandidateSource interface {
	ListNoShowCandidates(ctx context.Context, filter domain.NoShowCandidatesFilter) ([]*domain.Booking, error)
}

// BookingService переводит бронирование в NoShow через version-guarded запись
type BookingService interface {
	MarkNoShow(ctx context.Context, bookingID int64) (*models.OutcomeResponse, error)
}

// TimeProvider интерфейс для получения текущего времени
type TimeProvider interface {
	Now() time.Time
}

// Metrics интерфейс счётчиков sweeper'а
type Metrics interface {
	AddSweepResult(result string, n int)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
