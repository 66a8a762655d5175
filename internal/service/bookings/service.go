package bookings

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/m04kA/SMC-CancellationService/internal/domain"
	"github.com/m04kA/SMC-CancellationService/internal/evaluator"
	bookingRepo "github.com/m04kA/SMC-CancellationService/internal/infra/storage/booking"
	policyRepo "github.com/m04kA/SMC-CancellationService/internal/infra/storage/policy"
	"github.com/m04kA/SMC-CancellationService/internal/service/bookings/models"
)

const (
	opCancel     = "cancel"
	opNoShow     = "no_show"
	opReschedule = "reschedule"
	opConfirm    = "confirm"
	opComplete   = "complete"

	resultSuccess    = "success"
	resultIdempotent = "idempotent"
	resultRejected   = "rejected"
	resultConflict   = "conflict"
	resultError      = "error"
)

// Service state machine бронирований: все переходы идут через version-guarded запись
type Service struct {
	bookingRepo   BookingRepository
	policyStore   PolicyStore
	refundGateway RefundGateway
	evaluator     *evaluator.Evaluator
	timeProvider  TimeProvider
	metrics       Metrics
	logger        Logger

	maxRetries    int
	refundTimeout time.Duration
	refunds       sync.WaitGroup
}

// NewService создает новый экземпляр сервиса бронирований.
// maxRetries ограничивает число повторов цикла read-evaluate-write после конфликта версий.
func NewService(
	bookingRepo BookingRepository,
	policyStore PolicyStore,
	refundGateway RefundGateway,
	evaluator *evaluator.Evaluator,
	timeProvider TimeProvider,
	metrics Metrics,
	logger Logger,
	maxRetries int,
) *Service {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Service{
		bookingRepo:   bookingRepo,
		policyStore:   policyStore,
		refundGateway: refundGateway,
		evaluator:     evaluator,
		timeProvider:  timeProvider,
		metrics:       metrics,
		logger:        logger,
		maxRetries:    maxRetries,
		refundTimeout: 10 * time.Second,
	}
}

// Precision число знаков после запятой в денежных суммах ответов
func (s *Service) Precision() int32 {
	return s.evaluator.Precision()
}

// GetByID получает бронирование по ID
func (s *Service) GetByID(ctx context.Context, id int64) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%d", id)

	booking, err := s.loadBooking(ctx, "GetByID", id)
	if err != nil {
		return nil, err
	}

	return models.FromDomainBooking(booking, s.evaluator.Precision()), nil
}

// Preview оценивает отмену на текущий момент без записи.
// Для терминальных бронирований возвращает canCancel=false и, если есть, записанный результат.
func (s *Service) Preview(ctx context.Context, bookingID int64) (*models.OutcomeResponse, error) {
	s.logger.Info("Preview: evaluating booking id=%d", bookingID)

	booking, err := s.loadBooking(ctx, "Preview", bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status.IsTerminal() {
		outcome := domain.CancellationOutcome{Message: "booking is " + string(booking.Status)}
		if rec := booking.Cancellation; rec != nil {
			outcome.Penalty = rec.Penalty
			outcome.Refund = rec.Refund
			outcome.RuleMatched = rec.RuleMatched
		}
		return models.FromDomainOutcome(outcome, s.evaluator.Precision()), nil
	}

	policy, err := s.loadPolicy(ctx, "Preview", booking.ProviderID)
	if err != nil {
		return nil, err
	}

	outcome, err := s.evaluate("Preview", policy, booking, s.timeProvider.Now())
	if err != nil {
		return nil, err
	}
	return models.FromDomainOutcome(outcome, s.evaluator.Precision()), nil
}

// Cancel отменяет бронирование клиентом.
// Повторный вызов для уже отменённого бронирования возвращает исходный записанный результат.
// Возврат средств отправляется после успешной записи и не откатывает отмену при ошибке.
func (s *Service) Cancel(ctx context.Context, bookingID int64, reason string) (*models.OutcomeResponse, error) {
	s.logger.Info("Cancel: cancelling booking id=%d", bookingID)

	if len(reason) > domain.MaxCancellationReasonLength {
		return nil, fmt.Errorf("%w: reason longer than %d characters", ErrInvalidInput, domain.MaxCancellationReasonLength)
	}
	var note *string
	if reason != "" {
		note = &reason
	}

	var outcome domain.CancellationOutcome
	committed, err := s.transition(ctx, opCancel, bookingID, func(current *domain.Booking, now time.Time) (*domain.Booking, error) {
		if current.Status == domain.StatusCancelled && current.Cancellation != nil {
			outcome = domain.OutcomeFromRecord(current.Cancellation)
			return nil, nil
		}
		if current.Status.IsTerminal() {
			return nil, &AlreadyFinalizedError{Status: current.Status, Record: current.Cancellation}
		}
		if !domain.CanTransition(current.Status, domain.StatusCancelled) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, current.Status, domain.StatusCancelled)
		}

		policy, err := s.loadPolicy(ctx, "Cancel", current.ProviderID)
		if err != nil {
			return nil, err
		}

		outcome, err = s.evaluate("Cancel", policy, current, now)
		if err != nil {
			return nil, err
		}
		if !outcome.CanCancel {
			return nil, fmt.Errorf("%w: booking id=%d scheduled at %s", ErrAppointmentElapsed,
				current.ID, current.ScheduledAt.UTC().Format(domain.TimeFormat))
		}

		next := current.Clone()
		next.Status = domain.StatusCancelled
		rec := outcome.Record(domain.KindCancellation, note, now)
		next.Cancellation = &rec
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	if committed != nil {
		s.logger.Info("Cancel: booking id=%d cancelled, rule=%q penalty=%s refund=%s",
			bookingID, outcome.RuleMatched, outcome.Penalty, outcome.Refund)
		s.dispatchRefund(bookingID, outcome)
	} else {
		s.logger.Info("Cancel: booking id=%d already cancelled, returning stored outcome", bookingID)
	}

	return models.FromDomainOutcome(outcome, s.evaluator.Precision()), nil
}

// MarkNoShow переводит бронирование в NoShow. Вызывается sweeper'ом.
// Требует включённой no-show политики и истёкшего грейс-периода.
func (s *Service) MarkNoShow(ctx context.Context, bookingID int64) (*models.OutcomeResponse, error) {
	s.logger.Info("MarkNoShow: processing booking id=%d", bookingID)

	var outcome domain.CancellationOutcome
	_, err := s.transition(ctx, opNoShow, bookingID, func(current *domain.Booking, now time.Time) (*domain.Booking, error) {
		if current.Status.IsTerminal() {
			return nil, &AlreadyFinalizedError{Status: current.Status, Record: current.Cancellation}
		}
		if !domain.CanTransition(current.Status, domain.StatusNoShow) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, current.Status, domain.StatusNoShow)
		}

		policy, err := s.loadPolicy(ctx, "MarkNoShow", current.ProviderID)
		if err != nil {
			return nil, err
		}

		noShow := policy.NoShowPolicy
		if !noShow.Enabled {
			return nil, fmt.Errorf("%w: provider id=%d", ErrNoShowDisabled, current.ProviderID)
		}
		deadline := current.ScheduledAt.Add(time.Duration(noShow.GracePeriodMinutes) * time.Minute)
		if now.Before(deadline) {
			return nil, fmt.Errorf("%w: booking id=%d until %s", ErrGracePeriodNotElapsed,
				current.ID, deadline.UTC().Format(domain.TimeFormat))
		}

		verdict := s.evaluator.EvaluateNoShow(noShow, current)
		outcome = domain.CancellationOutcome{
			CanCancel:   false,
			Penalty:     verdict.Penalty,
			Refund:      verdict.Refund,
			RuleMatched: domain.RuleNoShow,
			Message:     fmt.Sprintf(domain.MessageNoShowFormat, noShow.GracePeriodMinutes),
		}

		next := current.Clone()
		next.Status = domain.StatusNoShow
		rec := outcome.Record(domain.KindNoShow, nil, now)
		next.Cancellation = &rec
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("MarkNoShow: booking id=%d marked no-show, penalty=%s refund=%s",
		bookingID, outcome.Penalty, outcome.Refund)
	s.dispatchRefund(bookingID, outcome)

	return models.FromDomainOutcome(outcome, s.evaluator.Precision()), nil
}

// Reschedule переносит бронирование на newScheduledAt.
// Условия политики проверяются по порядку: разрешён ли перенос, лимит переносов, минимальное уведомление.
func (s *Service) Reschedule(ctx context.Context, bookingID int64, newScheduledAt time.Time) (*models.BookingResponse, error) {
	s.logger.Info("Reschedule: moving booking id=%d to %s", bookingID, newScheduledAt.UTC().Format(domain.TimeFormat))

	if newScheduledAt.IsZero() {
		return nil, fmt.Errorf("%w: new scheduled time is required", ErrInvalidInput)
	}

	committed, err := s.transition(ctx, opReschedule, bookingID, func(current *domain.Booking, now time.Time) (*domain.Booking, error) {
		if !newScheduledAt.After(now) {
			return nil, fmt.Errorf("%w: new scheduled time must be in the future", ErrInvalidInput)
		}
		if !current.IsUpcoming() {
			return nil, fmt.Errorf("%w: cannot reschedule booking in status %s", ErrInvalidStateTransition, current.Status)
		}

		policy, err := s.loadPolicy(ctx, "Reschedule", current.ProviderID)
		if err != nil {
			return nil, err
		}

		if err := checkReschedule(policy.ReschedulePolicy, current, now); err != nil {
			return nil, err
		}

		next := current.Clone()
		next.ScheduledAt = newScheduledAt.UTC()
		next.RescheduleCount++
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Reschedule: booking id=%d rescheduled, count=%d", bookingID, committed.RescheduleCount)
	return models.FromDomainBooking(committed, s.evaluator.Precision()), nil
}

// Confirm переводит бронирование из Pending в Upcoming
func (s *Service) Confirm(ctx context.Context, bookingID int64) (*models.BookingResponse, error) {
	return s.simpleTransition(ctx, opConfirm, "Confirm", bookingID, domain.StatusUpcoming)
}

// Complete переводит бронирование из Upcoming в Completed
func (s *Service) Complete(ctx context.Context, bookingID int64) (*models.BookingResponse, error) {
	return s.simpleTransition(ctx, opComplete, "Complete", bookingID, domain.StatusCompleted)
}

// WaitRefunds ждёт завершения всех отправленных возвратов. Вызывается при остановке сервиса.
func (s *Service) WaitRefunds() {
	s.refunds.Wait()
}

func (s *Service) simpleTransition(ctx context.Context, op, logOp string, bookingID int64, to domain.BookingStatus) (*models.BookingResponse, error) {
	s.logger.Info("%s: booking id=%d -> %s", logOp, bookingID, to)

	committed, err := s.transition(ctx, op, bookingID, func(current *domain.Booking, _ time.Time) (*domain.Booking, error) {
		// Upcoming -> Upcoming разрешён только как перенос
		if current.Status == to || !domain.CanTransition(current.Status, to) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, current.Status, to)
		}
		next := current.Clone()
		next.Status = to
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("%s: booking id=%d is now %s", logOp, bookingID, committed.Status)
	return models.FromDomainBooking(committed, s.evaluator.Precision()), nil
}

// transitionFunc готовит следующее состояние бронирования.
// (nil, nil) означает, что запись не нужна и текущее состояние уже является результатом.
type transitionFunc func(current *domain.Booking, now time.Time) (*domain.Booking, error)

// transition выполняет цикл read-evaluate-write.
// При конфликте версий цикл повторяется не более maxRetries раз, затем ErrConcurrentModification.
// Возвращает записанное бронирование; nil означает, что запись не понадобилась.
func (s *Service) transition(ctx context.Context, op string, bookingID int64, fn transitionFunc) (*domain.Booking, error) {
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		current, err := s.loadBooking(ctx, op, bookingID)
		if err != nil {
			s.observe(op, err)
			return nil, err
		}

		next, err := fn(current, s.timeProvider.Now())
		if err != nil {
			s.logger.Warn("%s: booking id=%d rejected: %v", op, bookingID, err)
			s.observe(op, err)
			return nil, err
		}
		if next == nil {
			s.metrics.ObserveTransition(op, resultIdempotent)
			return nil, nil
		}

		err = s.bookingRepo.UpdateVersioned(ctx, next, current.Version)
		if err == nil {
			s.metrics.ObserveTransition(op, resultSuccess)
			return next, nil
		}
		if !errors.Is(err, bookingRepo.ErrVersionConflict) {
			s.logger.Error("%s: repository error for booking id=%d: %v", op, bookingID, err)
			s.metrics.ObserveTransition(op, resultError)
			return nil, fmt.Errorf("%w: %s - update booking: %v", ErrInternal, op, err)
		}

		s.metrics.IncVersionConflict(op)
		s.logger.Warn("%s: version conflict for booking id=%d at version=%d, attempt=%d",
			op, bookingID, current.Version, attempt+1)
	}

	s.metrics.ObserveTransition(op, resultConflict)
	s.logger.Error("%s: booking id=%d still conflicting after %d retries", op, bookingID, s.maxRetries)
	return nil, fmt.Errorf("%w: booking id=%d", ErrConcurrentModification, bookingID)
}

func (s *Service) observe(op string, err error) {
	if errors.Is(err, ErrInternal) {
		s.metrics.ObserveTransition(op, resultError)
		return
	}
	s.metrics.ObserveTransition(op, resultRejected)
}

func (s *Service) loadBooking(ctx context.Context, op string, id int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("%s: booking id=%d not found", op, id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("%s: repository error for booking id=%d: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
	return booking, nil
}

func (s *Service) loadPolicy(ctx context.Context, op string, providerID int64) (*domain.CancellationPolicy, error) {
	policy, err := s.policyStore.GetByProviderID(ctx, providerID)
	if err != nil {
		switch {
		case errors.Is(err, policyRepo.ErrPolicyNotFound):
			s.logger.Warn("%s: policy for provider=%d not found", op, providerID)
			return nil, fmt.Errorf("%w: provider id=%d", ErrPolicyNotFound, providerID)
		case errors.Is(err, policyRepo.ErrMalformedPolicy):
			s.logger.Error("%s: malformed policy for provider=%d: %v", op, providerID, err)
			return nil, fmt.Errorf("%w: provider id=%d: %v", ErrMalformedPolicy, providerID, err)
		}
		s.logger.Error("%s: policy store error for provider=%d: %v", op, providerID, err)
		return nil, fmt.Errorf("%w: %s - policy store error: %v", ErrInternal, op, err)
	}
	return policy, nil
}

// evaluate переводит ошибку evaluator'а в ErrMalformedPolicy: штраф по умолчанию не подставляется
func (s *Service) evaluate(op string, policy *domain.CancellationPolicy, booking *domain.Booking, now time.Time) (domain.CancellationOutcome, error) {
	outcome, err := s.evaluator.Evaluate(policy, booking, now)
	if err != nil {
		s.logger.Error("%s: cannot evaluate booking id=%d: %v", op, booking.ID, err)
		return domain.CancellationOutcome{}, fmt.Errorf("%w: provider id=%d: %v", ErrMalformedPolicy, policy.ProviderID, err)
	}
	return outcome, nil
}

func checkReschedule(policy domain.ReschedulePolicy, booking *domain.Booking, now time.Time) error {
	if !policy.AllowRescheduling {
		return &RescheduleNotAllowedError{Condition: ConditionDisabled}
	}
	if booking.RescheduleCount >= policy.MaxReschedulesPerBooking {
		return &RescheduleNotAllowedError{
			Condition: ConditionCountExceeded,
			Detail:    fmt.Sprintf("%d of %d reschedules used", booking.RescheduleCount, policy.MaxReschedulesPerBooking),
		}
	}
	if lead := booking.HoursUntil(now); lead < policy.MinNoticeHours {
		return &RescheduleNotAllowedError{
			Condition: ConditionInsufficientNotice,
			Detail:    fmt.Sprintf("%.1fh notice, %.1fh required", lead, policy.MinNoticeHours),
		}
	}
	return nil
}
