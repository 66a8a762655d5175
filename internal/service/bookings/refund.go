package bookings

import (
	"context"

	"github.com/m04kA/SMC-CancellationService/internal/domain"
)

// dispatchRefund отправляет возврат в фоне. Вызывается только после успешной записи.
// Ошибка шлюза логируется: отмена является бизнес-фактом и не откатывается.
func (s *Service) dispatchRefund(bookingID int64, outcome domain.CancellationOutcome) {
	if !outcome.Refund.IsPositive() {
		return
	}

	amount := outcome.Refund
	s.refunds.Add(1)
	go func() {
		defer s.refunds.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.refundTimeout)
		defer cancel()

		status, err := s.refundGateway.Refund(ctx, bookingID, amount)
		if err != nil {
			s.metrics.IncRefundDispatch(resultError)
			s.logger.Error("Refund: failed to dispatch refund for booking id=%d amount=%s: %v", bookingID, amount, err)
			return
		}

		s.metrics.IncRefundDispatch(string(status))
		s.logger.Info("Refund: booking id=%d amount=%s status=%s", bookingID, amount, status)
	}()
}
