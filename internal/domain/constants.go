package domain

// Engine defaults
const (
	DefaultMaxCASRetries     = 3
	DefaultCurrencyPrecision = 2
	DefaultSweepBatchSize    = 100
)

// Business validation constants
const (
	MaxCancellationReasonLength = 500
	MaxCurrencyPrecision        = 4
	MaxPolicyHours              = 10 * 365 * 24 // порог политики не дальше 10 лет
)

// TimeFormat is used for every timestamp crossing the HTTP boundary
const TimeFormat = "2006-01-02T15:04:05Z07:00"

// TerminalStatuses список финальных статусов
var TerminalStatuses = []BookingStatus{
	StatusCompleted,
	StatusCancelled,
	StatusNoShow,
}
