// Package noshow периодически переводит неявившиеся бронирования в NoShow.
//
// Выборка кандидатов грубая (время записи уже наступило), грейс-период и
// включённость no-show политики проверяет state machine. Каждая запись идёт
// через тот же version-guarded путь, что и пользовательские операции.
package noshow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/m04kA/SMC-CancellationService/internal/domain"
	"github.com/m04kA/SMC-CancellationService/internal/service/bookings"
)

// SweepResult итог одного прохода
type SweepResult struct {
	Scanned int `json:"scanned"`
	Marked  int `json:"marked"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Sweeper фоновый обработчик no-show
type Sweeper struct {
	source       CandidateSource
	service      BookingService
	timeProvider TimeProvider
	metrics      Metrics
	logger       Logger

	interval  time.Duration
	batchSize int

	runMu sync.Mutex // один проход за раз: тикер и ручной запуск не пересекаются

	mu   sync.Mutex
	done chan struct{}
	wg   sync.WaitGroup
}

// NewSweeper создает sweeper. interval и batchSize <= 0 заменяются значениями по умолчанию.
func NewSweeper(
	source CandidateSource,
	service BookingService,
	timeProvider TimeProvider,
	metrics Metrics,
	logger Logger,
	interval time.Duration,
	batchSize int,
) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if batchSize <= 0 {
		batchSize = domain.DefaultSweepBatchSize
	}
	return &Sweeper{
		source:       source,
		service:      service,
		timeProvider: timeProvider,
		metrics:      metrics,
		logger:       logger,
		interval:     interval,
		batchSize:    batchSize,
	}
}

// Start запускает периодические проходы. Повторный Start без Stop ничего не делает.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return
	}
	s.done = make(chan struct{})

	s.wg.Add(1)
	go s.run(ctx, s.done)

	s.logger.Info("NoShowSweeper: started with interval=%s batch=%d", s.interval, s.batchSize)
}

// Stop останавливает sweeper и ждёт завершения текущего прохода
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done == nil {
		return
	}
	close(s.done)
	s.wg.Wait()
	s.done = nil

	s.logger.Info("NoShowSweeper: stopped")
}

func (s *Sweeper) run(ctx context.Context, done <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce обходит все кандидаты страницами по batchSize
func (s *Sweeper) RunOnce(ctx context.Context) SweepResult {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	var result SweepResult
	filter := domain.NoShowCandidatesFilter{
		ScheduledBefore: s.timeProvider.Now(),
		Limit:           s.batchSize,
	}

	for {
		if ctx.Err() != nil {
			s.logger.Warn("NoShowSweeper: sweep interrupted: %v", ctx.Err())
			break
		}

		candidates, err := s.source.ListNoShowCandidates(ctx, filter)
		if err != nil {
			s.logger.Error("NoShowSweeper: failed to list candidates: %v", err)
			break
		}

		for _, b := range candidates {
			result.Scanned++
			s.process(ctx, b.ID, &result)
		}

		if len(candidates) < s.batchSize {
			break
		}
		last := candidates[len(candidates)-1]
		filter.After = &domain.NoShowCursor{ScheduledAt: last.ScheduledAt, ID: last.ID}
	}

	s.metrics.AddSweepResult("marked", result.Marked)
	s.metrics.AddSweepResult("skipped", result.Skipped)
	s.metrics.AddSweepResult("failed", result.Failed)

	if result.Scanned > 0 {
		s.logger.Info("NoShowSweeper: scanned=%d marked=%d skipped=%d failed=%d",
			result.Scanned, result.Marked, result.Skipped, result.Failed)
	}
	return result
}

func (s *Sweeper) process(ctx context.Context, bookingID int64, result *SweepResult) {
	_, err := s.service.MarkNoShow(ctx, bookingID)
	switch {
	case err == nil:
		result.Marked++
	case isSkippable(err):
		result.Skipped++
	default:
		result.Failed++
		s.logger.Error("NoShowSweeper: failed to mark booking id=%d: %v", bookingID, err)
	}
}

// isSkippable ошибки, при которых бронирование остаётся как есть до следующего прохода или ручного разбора
func isSkippable(err error) bool {
	return errors.Is(err, bookings.ErrGracePeriodNotElapsed) ||
		errors.Is(err, bookings.ErrNoShowDisabled) ||
		errors.Is(err, bookings.ErrAlreadyFinalized) ||
		errors.Is(err, bookings.ErrInvalidStateTransition) ||
		errors.Is(err, bookings.ErrConcurrentModification)
}
