/*
Package memory provides an in-memory implementation of the booking and policy storage.

It honours the same contract as the Postgres repositories: the same sentinel
errors, the same version compare-and-swap on UpdateVersioned, and policies are
validated on read. Values are copied on the way in and out, so callers never
share memory with the store.

Used by tests and by the `memory` storage driver for local runs.
*/
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/m04kA/SMC-CancellationService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-CancellationService/internal/infra/storage/booking"
	policyRepo "github.com/m04kA/SMC-CancellationService/internal/infra/storage/policy"
)

// Store хранит бронирования и политики в памяти под одним RWMutex
type Store struct {
	mu       sync.RWMutex
	bookings map[int64]*domain.Booking
	policies map[int64]*domain.CancellationPolicy
	nextID   int64
}

// NewStore создает пустое хранилище
func NewStore() *Store {
	return &Store{
		bookings: make(map[int64]*domain.Booking),
		policies: make(map[int64]*domain.CancellationPolicy),
	}
}

// PutBooking inserts or replaces a booking as-is. A zero ID gets the next free one.
// This is the seeding path; state machine writes go through UpdateVersioned.
func (s *Store) PutBooking(b *domain.Booking) *domain.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := b.Clone()
	if stored.ID == 0 {
		s.nextID++
		stored.ID = s.nextID
	} else if stored.ID > s.nextID {
		s.nextID = stored.ID
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
		stored.UpdatedAt = stored.CreatedAt
	}
	s.bookings[stored.ID] = stored
	return stored.Clone()
}

// PutPolicy stores a provider's policy without validating it, so malformed data can be seeded
func (s *Store) PutPolicy(p *domain.CancellationPolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[p.ProviderID] = p.Clone()
}

// GetByID возвращает копию бронирования или ErrBookingNotFound
func (s *Store) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return b.Clone(), nil
}

// UpdateVersioned записывает бронирование, только если сохранённая версия равна expectedVersion.
// При успехе version увеличивается на единицу, иначе ErrVersionConflict.
func (s *Store) UpdateVersioned(_ context.Context, booking *domain.Booking, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.bookings[booking.ID]
	if !ok || current.Version != expectedVersion {
		return bookingRepo.ErrVersionConflict
	}

	next := booking.Clone()
	next.Version = expectedVersion + 1
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	s.bookings[next.ID] = next

	booking.Version = next.Version
	booking.UpdatedAt = next.UpdatedAt
	return nil
}

// ListNoShowCandidates возвращает upcoming бронирования с scheduled_at <= ScheduledBefore
// в порядке (scheduled_at, id), начиная после курсора
func (s *Store) ListNoShowCandidates(_ context.Context, filter domain.NoShowCandidatesFilter) ([]*domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Booking, 0)
	for _, b := range s.bookings {
		if b.Status != domain.StatusUpcoming || b.ScheduledAt.After(filter.ScheduledBefore) {
			continue
		}
		if c := filter.After; c != nil && !afterCursor(b, c) {
			continue
		}
		result = append(result, b.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].ScheduledAt.Equal(result[j].ScheduledAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].ScheduledAt.Before(result[j].ScheduledAt)
	})

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// GetByProviderID возвращает копию политики провайдера; невалидная политика даёт ErrMalformedPolicy
func (s *Store) GetByProviderID(_ context.Context, providerID int64) (*domain.CancellationPolicy, error) {
	s.mu.RLock()
	p, ok := s.policies[providerID]
	s.mu.RUnlock()

	if !ok {
		return nil, policyRepo.ErrPolicyNotFound
	}

	policy := p.Clone()
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("%w: provider_id=%d: %v", policyRepo.ErrMalformedPolicy, providerID, err)
	}
	return policy, nil
}

func afterCursor(b *domain.Booking, c *domain.NoShowCursor) bool {
	if b.ScheduledAt.Equal(c.ScheduledAt) {
		return b.ID > c.ID
	}
	return b.ScheduledAt.After(c.ScheduledAt)
}
