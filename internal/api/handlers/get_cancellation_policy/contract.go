package get_cancellation_policy

import (
	"context"

	"github.com/m04kA/SMC-CancellationService/internal/service/policies/models"
)

type PolicyService interface {
	GetByProviderID(ctx context.Context, providerID int64) (*models.PolicyResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
