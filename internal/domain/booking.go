package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// BookingStatus represents the lifecycle state of a booking
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusUpcoming  BookingStatus = "upcoming"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
	StatusNoShow    BookingStatus = "no_show"
)

// IsValid returns true for every known status
func (s BookingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusUpcoming, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status
func (s BookingStatus) IsTerminal() bool {
	return slices.Contains(TerminalStatuses, s)
}

// transitions перечисляет допустимые переходы state machine.
// Upcoming -> Upcoming это перенос (reschedule).
var transitions = map[BookingStatus][]BookingStatus{
	StatusPending:  {StatusUpcoming},
	StatusUpcoming: {StatusUpcoming, StatusCompleted, StatusCancelled, StatusNoShow},
}

// CanTransition reports whether the state machine allows moving from one status to another
func CanTransition(from, to BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CancellationKind distinguishes a client cancellation from a no-show
type CancellationKind string

const (
	KindCancellation CancellationKind = "cancellation"
	KindNoShow       CancellationKind = "no_show"
)

// CancellationRecord is written exactly once, when a booking reaches Cancelled or NoShow
type CancellationRecord struct {
	Kind        CancellationKind
	RuleMatched string
	Penalty     decimal.Decimal
	Refund      decimal.Decimal
	Reason      string  // human-readable outcome message
	Note        *string // reason supplied by the client, if any
	OccurredAt  time.Time
}

// Booking is the mutable entity guarded by the state machine
type Booking struct {
	ID              int64
	ProviderID      int64
	ClientID        int64
	Amount          decimal.Decimal
	ScheduledAt     time.Time
	Status          BookingStatus
	RescheduleCount int
	Version         int64

	Cancellation *CancellationRecord

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy so callers can prepare a transition without touching the loaded value
func (b *Booking) Clone() *Booking {
	c := *b
	if b.Cancellation != nil {
		rec := *b.Cancellation
		if b.Cancellation.Note != nil {
			note := *b.Cancellation.Note
			rec.Note = &note
		}
		c.Cancellation = &rec
	}
	return &c
}

// IsUpcoming returns true if the booking accepts cancel, no-show and reschedule operations
func (b *Booking) IsUpcoming() bool {
	return b.Status == StatusUpcoming
}

// HoursUntil returns the lead time between now and the scheduled start, in hours.
// Negative when the appointment has already started.
func (b *Booking) HoursUntil(now time.Time) float64 {
	return b.ScheduledAt.Sub(now).Hours()
}

// NoShowCandidatesFilter фильтр для выборки бронирований, которые могли стать no-show
type NoShowCandidatesFilter struct {
	ScheduledBefore time.Time // scheduled_at <= ScheduledBefore
	After           *NoShowCursor
	Limit           int
}

// NoShowCursor позиция keyset-пагинации: строки строго после (ScheduledAt, ID)
type NoShowCursor struct {
	ScheduledAt time.Time
	ID          int64
}
