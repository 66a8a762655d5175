package policies

import (
	"context"

	"github.com/m04kA/SMC-CancellationService/internal/domain"
)

// PolicyStore интерфейс хранилища политик отмены
type PolicyStore interface {
	GetByProviderID(ctx context.Context, providerID int64) (*domain.CancellationPolicy, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
