package policies

import (
	"context"
	"errors"
	"fmt"

	policyRepo "github.com/m04kA/SMC-CancellationService/internal/infra/storage/policy"
	"github.com/m04kA/SMC-CancellationService/internal/service/policies/models"
)

// Service сервис чтения политик отмены. Редактирование политик живёт в сервисе провайдеров.
type Service struct {
	policyStore PolicyStore
	logger      Logger
}

// NewService создает новый экземпляр сервиса политик
func NewService(policyStore PolicyStore, logger Logger) *Service {
	return &Service{
		policyStore: policyStore,
		logger:      logger,
	}
}

// GetByProviderID возвращает политику провайдера, правила отсортированы по убыванию порога
func (s *Service) GetByProviderID(ctx context.Context, providerID int64) (*models.PolicyResponse, error) {
	s.logger.Info("GetByProviderID: fetching policy for provider=%d", providerID)

	if providerID <= 0 {
		return nil, fmt.Errorf("%w: provider id must be positive", ErrInvalidInput)
	}

	policy, err := s.policyStore.GetByProviderID(ctx, providerID)
	if err != nil {
		switch {
		case errors.Is(err, policyRepo.ErrPolicyNotFound):
			s.logger.Warn("GetByProviderID: policy for provider=%d not found", providerID)
			return nil, ErrPolicyNotFound
		case errors.Is(err, policyRepo.ErrMalformedPolicy):
			s.logger.Error("GetByProviderID: malformed policy for provider=%d: %v", providerID, err)
			return nil, fmt.Errorf("%w: %v", ErrMalformedPolicy, err)
		}
		s.logger.Error("GetByProviderID: policy store error for provider=%d: %v", providerID, err)
		return nil, fmt.Errorf("%w: GetByProviderID - policy store error: %v", ErrInternal, err)
	}

	s.logger.Info("GetByProviderID: successfully fetched policy id=%d for provider=%d", policy.ID, providerID)
	return models.FromDomainPolicy(policy), nil
}
