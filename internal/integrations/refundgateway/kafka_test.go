package refundgateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-CancellationService/internal/domain"
	"github.com/m04kA/SMC-CancellationService/pkg/logger"
)

func TestKafkaPublisher_Refund(t *testing.T) {
	producer := mocks.NewAsyncProducer(t, mocks.NewTestConfig())
	producer.ExpectInputWithCheckerFunctionAndSucceed(func(val []byte) error {
		var event RefundRequested
		if err := json.Unmarshal(val, &event); err != nil {
			return err
		}
		if event.BookingID != 42 {
			return fmt.Errorf("unexpected booking id %d", event.BookingID)
		}
		if !event.Amount.Equal(decimal.RequireFromString("75.50")) {
			return fmt.Errorf("unexpected amount %s", event.Amount)
		}
		if event.EventID == "" {
			return errors.New("missing event id")
		}
		return nil
	})

	p := NewPublisher(producer, "refunds", logger.NewNop())

	status, err := p.Refund(context.Background(), 42, decimal.RequireFromString("75.50"))
	require.NoError(t, err)
	assert.Equal(t, domain.RefundQueued, status)

	require.NoError(t, p.Close())
}

func TestKafkaPublisher_DeliveryFailureIsLoggedNotReturned(t *testing.T) {
	producer := mocks.NewAsyncProducer(t, mocks.NewTestConfig())
	producer.ExpectInputAndFail(sarama.ErrOutOfBrokers)

	p := NewPublisher(producer, "refunds", logger.NewNop())

	status, err := p.Refund(context.Background(), 7, decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.Equal(t, domain.RefundQueued, status)

	// Close drains the errors channel
	_ = p.Close()
}

func TestKafkaPublisher_RejectsNonPositiveAmount(t *testing.T) {
	producer := mocks.NewAsyncProducer(t, mocks.NewTestConfig())
	p := NewPublisher(producer, "refunds", logger.NewNop())

	_, err := p.Refund(context.Background(), 1, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	require.NoError(t, p.Close())
}

func TestKafkaPublisher_AfterClose(t *testing.T) {
	producer := mocks.NewAsyncProducer(t, mocks.NewTestConfig())
	p := NewPublisher(producer, "refunds", logger.NewNop())
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	_, err := p.Refund(context.Background(), 1, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNewSaramaConfig_IsValid(t *testing.T) {
	cfg := NewSaramaConfig(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "refunds", ClientID: "cancellation-service"})
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Producer.Idempotent)
	assert.Equal(t, sarama.WaitForAll, cfg.Producer.RequiredAcks)
}

func TestLogGateway(t *testing.T) {
	g := NewLogGateway(logger.NewNop())

	status, err := g.Refund(context.Background(), 1, decimal.NewFromInt(5))
	require.NoError(t, err)
	assert.Equal(t, domain.RefundAcknowledged, status)

	_, err = g.Refund(context.Background(), 1, decimal.NewFromInt(-5))
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.NoError(t, g.Close())
}
