package get_cancellation_policy

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-CancellationService/internal/api/handlers"
	"github.com/m04kA/SMC-CancellationService/internal/service/policies"
)

const (
	msgInvalidProviderID = "некорректный ID провайдера"
	msgNotFound          = "политика отмены не найдена"
)

type Handler struct {
	service PolicyService
	logger  Logger
}

func NewHandler(service PolicyService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/providers/{providerId}/cancellation-policy
// Правила в ответе отсортированы по убыванию порога
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	providerID, err := handlers.PathID(r, "providerId")
	if err != nil {
		h.logger.Warn("GET /providers/{id}/cancellation-policy - Invalid provider ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProviderID)
		return
	}

	policy, err := h.service.GetByProviderID(r.Context(), providerID)
	if err != nil {
		switch {
		case errors.Is(err, policies.ErrPolicyNotFound):
			h.logger.Warn("GET /providers/{id}/cancellation-policy - Policy not found: provider_id=%d", providerID)
			handlers.RespondNotFound(w, msgNotFound)

		default:
			h.logger.Error("GET /providers/{id}/cancellation-policy - Failed to get policy: provider_id=%d, error=%v",
				providerID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /providers/{id}/cancellation-policy - Policy retrieved: provider_id=%d, policy_id=%d",
		providerID, policy.ID)
	handlers.RespondJSON(w, http.StatusOK, policy)
}
