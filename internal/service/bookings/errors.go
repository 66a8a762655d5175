package bookings

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-CancellationService/internal/domain"
)

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking not found")

	// ErrPolicyNotFound возвращается, когда у провайдера нет политики отмены
	ErrPolicyNotFound = errors.New("cancellation policy not found")

	// ErrMalformedPolicy возвращается, когда политика провайдера нарушает инварианты
	ErrMalformedPolicy = errors.New("cancellation policy is malformed")

	// ErrAlreadyFinalized возвращается, когда бронирование уже в терминальном статусе
	ErrAlreadyFinalized = errors.New("booking already finalized")

	// ErrInvalidStateTransition возвращается, когда переход не разрешён state machine
	ErrInvalidStateTransition = errors.New("invalid booking state transition")

	// ErrConcurrentModification возвращается, когда исчерпаны повторы после конфликтов версий
	ErrConcurrentModification = errors.New("booking was modified concurrently")

	// ErrRescheduleNotAllowed возвращается, когда политика запрещает перенос
	ErrRescheduleNotAllowed = errors.New("reschedule not allowed")

	// ErrAppointmentElapsed возвращается при попытке отменить уже начавшуюся запись
	ErrAppointmentElapsed = errors.New("appointment already elapsed")

	// ErrNoShowDisabled возвращается, когда no-show политика провайдера выключена
	ErrNoShowDisabled = errors.New("no-show policy disabled")

	// ErrGracePeriodNotElapsed возвращается, когда грейс-период no-show ещё не истёк
	ErrGracePeriodNotElapsed = errors.New("no-show grace period not elapsed")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)

// AlreadyFinalizedError carries the terminal status and, if one was written, the original record
type AlreadyFinalizedError struct {
	Status domain.BookingStatus
	Record *domain.CancellationRecord
}

func (e *AlreadyFinalizedError) Error() string {
	return fmt.Sprintf("%s: status=%s", ErrAlreadyFinalized, e.Status)
}

func (e *AlreadyFinalizedError) Unwrap() error {
	return ErrAlreadyFinalized
}

// RescheduleCondition names the reschedule policy gate that failed
type RescheduleCondition string

const (
	ConditionDisabled           RescheduleCondition = "disabled"
	ConditionCountExceeded      RescheduleCondition = "count_exceeded"
	ConditionInsufficientNotice RescheduleCondition = "insufficient_notice"
)

// RescheduleNotAllowedError always names the exact unmet condition
type RescheduleNotAllowedError struct {
	Condition RescheduleCondition
	Detail    string
}

func (e *RescheduleNotAllowedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", ErrRescheduleNotAllowed, e.Condition)
	}
	return fmt.Sprintf("%s: %s (%s)", ErrRescheduleNotAllowed, e.Condition, e.Detail)
}

func (e *RescheduleNotAllowedError) Unwrap() error {
	return ErrRescheduleNotAllowed
}
