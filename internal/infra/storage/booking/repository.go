package booking

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-CancellationService/internal/domain"
	"github.com/m04kA/SMC-CancellationService/pkg/psqlbuilder"
)

const tableBookings = "bookings"

var bookingColumns = []string{
	"id",
	"provider_id",
	"client_id",
	"amount",
	"scheduled_at",
	"status",
	"reschedule_count",
	"version",
	"cancellation_kind",
	"cancellation_rule",
	"cancellation_penalty",
	"cancellation_refund",
	"cancellation_reason",
	"cancellation_note",
	"cancelled_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает бронирование по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	query, args, err := psqlbuilder.Select(bookingColumns...).
		From(tableBookings).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	booking, err := scanBooking(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %v", ErrScanRow, err)
	}

	return booking, nil
}

// UpdateVersioned записывает новое состояние бронирования, только если версия в БД
// всё ещё равна expectedVersion. Version увеличивается на стороне БД.
// Ноль затронутых строк означает, что другой переход успел раньше: ErrVersionConflict.
func (r *Repository) UpdateVersioned(ctx context.Context, booking *domain.Booking, expectedVersion int64) error {
	builder := psqlbuilder.Update(tableBookings).
		Set("status", booking.Status).
		Set("scheduled_at", booking.ScheduledAt).
		Set("reschedule_count", booking.RescheduleCount).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()"))

	if rec := booking.Cancellation; rec != nil {
		builder = builder.
			Set("cancellation_kind", rec.Kind).
			Set("cancellation_rule", rec.RuleMatched).
			Set("cancellation_penalty", rec.Penalty).
			Set("cancellation_refund", rec.Refund).
			Set("cancellation_reason", rec.Reason).
			Set("cancellation_note", rec.Note).
			Set("cancelled_at", rec.OccurredAt)
	}

	query, args, err := builder.
		Where(squirrel.Eq{"id": booking.ID, "version": expectedVersion}).
		Suffix("RETURNING version, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateVersioned - build update query: %v", ErrBuildQuery, err)
	}

	var updatedAt sql.NullTime
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&booking.Version, &updatedAt)
	if err == sql.ErrNoRows {
		return ErrVersionConflict
	}
	if err != nil {
		return fmt.Errorf("%w: UpdateVersioned - execute update: %v", ErrExecQuery, err)
	}

	booking.UpdatedAt = updatedAt.Time
	return nil
}

// ListNoShowCandidates возвращает upcoming бронирования, время которых уже наступило.
// Грейс-период зависит от политики провайдера и проверяется в state machine.
func (r *Repository) ListNoShowCandidates(ctx context.Context, filter domain.NoShowCandidatesFilter) ([]*domain.Booking, error) {
	builder := psqlbuilder.Select(bookingColumns...).
		From(tableBookings).
		Where(squirrel.Eq{"status": domain.StatusUpcoming}).
		Where(squirrel.LtOrEq{"scheduled_at": filter.ScheduledBefore}).
		OrderBy("scheduled_at ASC", "id ASC")

	if c := filter.After; c != nil {
		builder = builder.Where(squirrel.Expr("(scheduled_at, id) > (?, ?)", c.ScheduledAt, c.ID))
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListNoShowCandidates - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListNoShowCandidates - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	bookings := make([]*domain.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListNoShowCandidates - scan row: %v", ErrScanRow, err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListNoShowCandidates - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanBooking сканирует строку в бронирование, порядок полей совпадает с bookingColumns
func scanBooking(row rowScanner) (*domain.Booking, error) {
	var (
		booking     domain.Booking
		kind        sql.NullString
		rule        sql.NullString
		penalty     decimal.NullDecimal
		refund      decimal.NullDecimal
		reason      sql.NullString
		note        sql.NullString
		cancelledAt sql.NullTime
		createdAt   sql.NullTime
		updatedAt   sql.NullTime
	)

	err := row.Scan(
		&booking.ID,
		&booking.ProviderID,
		&booking.ClientID,
		&booking.Amount,
		&booking.ScheduledAt,
		&booking.Status,
		&booking.RescheduleCount,
		&booking.Version,
		&kind,
		&rule,
		&penalty,
		&refund,
		&reason,
		&note,
		&cancelledAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if kind.Valid {
		rec := &domain.CancellationRecord{
			Kind:        domain.CancellationKind(kind.String),
			RuleMatched: rule.String,
			Penalty:     penalty.Decimal,
			Refund:      refund.Decimal,
			Reason:      reason.String,
			OccurredAt:  cancelledAt.Time,
		}
		if note.Valid {
			rec.Note = &note.String
		}
		booking.Cancellation = rec
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return &booking, nil
}
