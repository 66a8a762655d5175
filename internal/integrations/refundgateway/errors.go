package refundgateway

import "errors"

var (
	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("refundgateway: internal error")

	// ErrInvalidAmount возвращается при попытке вернуть неположительную сумму
	ErrInvalidAmount = errors.New("refundgateway: refund amount must be positive")

	// ErrClosed возвращается после вызова Close
	ErrClosed = errors.New("refundgateway: publisher closed")
)
