package policies

import "errors"

var (
	// ErrPolicyNotFound возвращается, когда у провайдера нет политики отмены
	ErrPolicyNotFound = errors.New("cancellation policy not found")

	// ErrMalformedPolicy возвращается, когда политика провайдера нарушает инварианты
	ErrMalformedPolicy = errors.New("cancellation policy is malformed")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
