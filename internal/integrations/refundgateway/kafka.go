package refundgateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-CancellationService/internal/domain"
)

// KafkaConfig конфигурация Kafka producer
type KafkaConfig struct {
	Brokers  []string
	Topic    string
	ClientID string
	RetryMax int
}

// NewSaramaConfig возвращает конфигурацию async producer с идемпотентной записью
func NewSaramaConfig(cfg KafkaConfig) *sarama.Config {
	sc := sarama.NewConfig()
	sc.ClientID = cfg.ClientID
	sc.Producer.RequiredAcks = sarama.WaitForAll
	if cfg.RetryMax > 0 {
		sc.Producer.Retry.Max = cfg.RetryMax
	}
	sc.Producer.Return.Successes = false
	sc.Producer.Return.Errors = true
	sc.Producer.Partitioner = sarama.NewHashPartitioner
	sc.Producer.Idempotent = true
	sc.Net.MaxOpenRequests = 1
	sc.Version = sarama.V2_8_0_0
	return sc
}

// KafkaPublisher ставит возвраты в очередь Kafka. Отправка не блокирует вызывающего:
// сообщение передаётся в буфер async producer, доставку и повторы обеспечивает брокер.
type KafkaPublisher struct {
	producer sarama.AsyncProducer
	topic    string
	log      Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewKafkaPublisher подключается к брокерам и создает publisher
func NewKafkaPublisher(cfg KafkaConfig, log Logger) (*KafkaPublisher, error) {
	producer, err := sarama.NewAsyncProducer(cfg.Brokers, NewSaramaConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create kafka producer: %v", ErrInternal, err)
	}
	return NewPublisher(producer, cfg.Topic, log), nil
}

// NewPublisher оборачивает готовый producer (используется в тестах с sarama/mocks)
func NewPublisher(producer sarama.AsyncProducer, topic string, log Logger) *KafkaPublisher {
	p := &KafkaPublisher{
		producer: producer,
		topic:    topic,
		log:      log,
	}

	p.wg.Add(1)
	go p.drainErrors()

	return p
}

// Refund публикует RefundRequested с ключом booking id, чтобы события одной брони шли в одну партицию
func (p *KafkaPublisher) Refund(ctx context.Context, bookingID int64, amount decimal.Decimal) (domain.RefundStatus, error) {
	if !amount.IsPositive() {
		return "", ErrInvalidAmount
	}

	event := RefundRequested{
		EventID:     uuid.NewString(),
		BookingID:   bookingID,
		Amount:      amount,
		RequestedAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("%w: failed to marshal refund event: %v", ErrInternal, err)
	}

	msg := &sarama.ProducerMessage{
		Topic:    p.topic,
		Key:      sarama.StringEncoder(strconv.FormatInt(bookingID, 10)),
		Value:    sarama.ByteEncoder(payload),
		Metadata: event.EventID,
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return "", ErrClosed
	}

	select {
	case p.producer.Input() <- msg:
		p.log.Info("RefundGateway: queued refund booking_id=%d amount=%s event_id=%s",
			bookingID, amount.String(), event.EventID)
		return domain.RefundQueued, nil
	case <-ctx.Done():
		return "", fmt.Errorf("%w: enqueue refund: %v", ErrInternal, ctx.Err())
	}
}

// Close дожидается отправки буфера и останавливает producer
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	err := p.producer.Close()
	p.wg.Wait()
	return err
}

func (p *KafkaPublisher) drainErrors() {
	defer p.wg.Done()
	for perr := range p.producer.Errors() {
		eventID, _ := perr.Msg.Metadata.(string)
		p.log.Error("RefundGateway: delivery failed event_id=%s topic=%s: %v", eventID, perr.Msg.Topic, perr.Err)
	}
}
