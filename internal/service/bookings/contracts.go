package bookings

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-CancellationService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований.
// UpdateVersioned обязан вернуть booking.ErrVersionConflict, если версия в хранилище отличается от expectedVersion.
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	UpdateVersioned(ctx context.Context, booking *domain.Booking, expectedVersion int64) error
}

// PolicyStore интерфейс хранилища политик отмены
type PolicyStore interface {
	GetByProviderID(ctx context.Context, providerID int64) (*domain.CancellationPolicy, error)
}

// RefundGateway интерфейс платёжного шлюза для возвратов
type RefundGateway interface {
	Refund(ctx context.Context, bookingID int64, amount decimal.Decimal) (domain.RefundStatus, error)
}

// TimeProvider интерфейс для получения текущего времени
type TimeProvider interface {
	Now() time.Time
}

// Metrics интерфейс счётчиков state machine
type Metrics interface {
	ObserveTransition(operation, result string)
	IncVersionConflict(operation string)
	IncRefundDispatch(result string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
