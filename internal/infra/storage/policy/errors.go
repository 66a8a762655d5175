package policy

import "errors"

var (
	// ErrPolicyNotFound возвращается, когда у провайдера нет политики отмены
	ErrPolicyNotFound = errors.New("policy.repository: policy not found")

	// ErrMalformedPolicy возвращается, когда политика в БД нарушает инварианты (например, нет 0h правила)
	ErrMalformedPolicy = errors.New("policy.repository: malformed policy")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("policy.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("policy.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("policy.repository: failed to scan row")
)
