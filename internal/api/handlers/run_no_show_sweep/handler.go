package run_no_show_sweep

import (
	"net/http"

	"github.com/m04kA/SMC-CancellationService/internal/api/handlers"
)

type Handler struct {
	sweeper Sweeper
	logger  Logger
}

func NewHandler(sweeper Sweeper, logger Logger) *Handler {
	return &Handler{
		sweeper: sweeper,
		logger:  logger,
	}
}

// Handle POST /api/v1/internal/no-show-sweeps
// Запускает проход sweeper'а синхронно и возвращает его итог
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	result := h.sweeper.RunOnce(r.Context())

	h.logger.Info("POST /internal/no-show-sweeps - Sweep finished: scanned=%d, marked=%d, skipped=%d, failed=%d",
		result.Scanned, result.Marked, result.Skipped, result.Failed)
	handlers.RespondJSON(w, http.StatusOK, result)
}
