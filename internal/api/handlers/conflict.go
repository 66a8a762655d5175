package handlers

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-CancellationService/internal/service/bookings"
	"github.com/m04kA/SMC-CancellationService/internal/service/bookings/models"
)

const (
	msgAlreadyFinalized       = "бронирование уже завершено"
	msgConcurrentModification = "бронирование изменено параллельно, повторите запрос"
)

// AlreadyFinalizedResponse 409 с терминальным статусом и исходным результатом отмены, если он записан
type AlreadyFinalizedResponse struct {
	Code         int                          `json:"code"`
	Message      string                       `json:"message"`
	Status       string                       `json:"status"`
	Cancellation *models.CancellationResponse `json:"cancellation,omitempty"`
}

// RetryableConflictResponse 409, после которого клиент может повторить запрос
type RetryableConflictResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// RespondAlreadyFinalized отправляет 409 с данными из *bookings.AlreadyFinalizedError.
// Для других ошибок с ErrAlreadyFinalized отправляет 409 без деталей.
func RespondAlreadyFinalized(w http.ResponseWriter, err error, precision int32) {
	var finalized *bookings.AlreadyFinalizedError
	if !errors.As(err, &finalized) {
		RespondConflict(w, msgAlreadyFinalized)
		return
	}
	RespondJSON(w, http.StatusConflict, AlreadyFinalizedResponse{
		Code:         http.StatusConflict,
		Message:      msgAlreadyFinalized,
		Status:       string(finalized.Status),
		Cancellation: models.FromDomainRecord(finalized.Record, precision),
	})
}

// RespondConcurrentModification отправляет 409 с retryable=true
func RespondConcurrentModification(w http.ResponseWriter) {
	RespondJSON(w, http.StatusConflict, RetryableConflictResponse{
		Code:      http.StatusConflict,
		Message:   msgConcurrentModification,
		Retryable: true,
	})
}
