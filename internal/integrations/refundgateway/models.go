package refundgateway

import (
	"time"

	"github.com/shopspring/decimal"
)

// RefundRequested событие, которое читает платёжный сервис
type RefundRequested struct {
	EventID     string          `json:"eventId"`
	BookingID   int64           `json:"bookingId"`
	Amount      decimal.Decimal `json:"amount"`
	RequestedAt time.Time       `json:"requestedAt"`
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
