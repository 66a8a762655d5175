package refundgateway

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-CancellationService/internal/domain"
)

// LogGateway только логирует возвраты, используется локально без Kafka
type LogGateway struct {
	log Logger
}

func NewLogGateway(log Logger) *LogGateway {
	return &LogGateway{log: log}
}

func (g *LogGateway) Refund(_ context.Context, bookingID int64, amount decimal.Decimal) (domain.RefundStatus, error) {
	if !amount.IsPositive() {
		return "", ErrInvalidAmount
	}
	g.log.Warn("RefundGateway: log driver, refund not executed booking_id=%d amount=%s", bookingID, amount.String())
	return domain.RefundAcknowledged, nil
}

func (g *LogGateway) Close() error {
	return nil
}
