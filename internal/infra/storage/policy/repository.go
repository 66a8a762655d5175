package policy

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-CancellationService/internal/domain"
	"github.com/m04kA/SMC-CancellationService/pkg/psqlbuilder"
)

// DBExecutor общий интерфейс для *sql.DB и *sql.Tx
type DBExecutor interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Repository репозиторий политик отмены (только чтение, авторинг вне сервиса)
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория политик
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByProviderID получает действующую политику провайдера вместе с правилами.
// Политика валидируется при чтении: невалидная политика возвращается как ErrMalformedPolicy,
// значения по умолчанию не подставляются.
func (r *Repository) GetByProviderID(ctx context.Context, providerID int64) (*domain.CancellationPolicy, error) {
	query, args, err := psqlbuilder.Select(
		"id",
		"provider_id",
		"policy_name",
		"free_cancellation_window_hours",
		"no_show_enabled",
		"no_show_grace_period_minutes",
		"no_show_penalty_type",
		"no_show_penalty_amount",
		"allow_rescheduling",
		"max_reschedules_per_booking",
		"min_notice_hours",
	).
		From("cancellation_policies").
		Where(squirrel.Eq{"provider_id": providerID}).
		OrderBy("version DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByProviderID - build select query: %v", ErrBuildQuery, err)
	}

	var policy domain.CancellationPolicy
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&policy.ID,
		&policy.ProviderID,
		&policy.PolicyName,
		&policy.FreeCancellationWindowHours,
		&policy.NoShowPolicy.Enabled,
		&policy.NoShowPolicy.GracePeriodMinutes,
		&policy.NoShowPolicy.PenaltyType,
		&policy.NoShowPolicy.PenaltyAmount,
		&policy.ReschedulePolicy.AllowRescheduling,
		&policy.ReschedulePolicy.MaxReschedulesPerBooking,
		&policy.ReschedulePolicy.MinNoticeHours,
	)
	if err == sql.ErrNoRows {
		return nil, ErrPolicyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByProviderID - scan policy: %v", ErrScanRow, err)
	}

	rules, err := r.getRules(ctx, policy.ID)
	if err != nil {
		return nil, err
	}
	policy.Rules = rules

	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("%w: provider_id=%d: %v", ErrMalformedPolicy, providerID, err)
	}

	return &policy, nil
}

// getRules получает правила политики в порядке, в котором их задал провайдер
func (r *Repository) getRules(ctx context.Context, policyID int64) ([]domain.CancellationRule, error) {
	query, args, err := psqlbuilder.Select(
		"time_before_appointment_hours",
		"penalty_type",
		"penalty_amount",
		"refund_percentage",
	).
		From("cancellation_rules").
		Where(squirrel.Eq{"policy_id": policyID}).
		OrderBy("position ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: getRules - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: getRules - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	rules := make([]domain.CancellationRule, 0)
	for rows.Next() {
		var rule domain.CancellationRule
		if err := rows.Scan(
			&rule.TimeBeforeAppointmentHours,
			&rule.PenaltyType,
			&rule.PenaltyAmount,
			&rule.RefundPercentage,
		); err != nil {
			return nil, fmt.Errorf("%w: getRules - scan rule: %v", ErrScanRow, err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: getRules - rows error: %v", ErrScanRow, err)
	}

	return rules, nil
}
