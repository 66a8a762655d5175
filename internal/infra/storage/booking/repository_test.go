package booking

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-CancellationService/internal/domain"
)

// scriptedDB отвечает на каждый запрос заранее заданными строками и запоминает запрос
type scriptedDB struct {
	mu      sync.Mutex
	columns []string
	rows    [][]driver.Value
	err     error

	query string
	args  []driver.Value
}

func (s *scriptedDB) Connect(context.Context) (driver.Conn, error) { return &scriptedConn{db: s}, nil }
func (s *scriptedDB) Driver() driver.Driver                         { return scriptedDriver{db: s} }

func (s *scriptedDB) record(query string, args []driver.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = query
	s.args = append([]driver.Value(nil), args...)
}

type scriptedDriver struct{ db *scriptedDB }

func (d scriptedDriver) Open(string) (driver.Conn, error) { return &scriptedConn{db: d.db}, nil }

type scriptedConn struct{ db *scriptedDB }

func (c *scriptedConn) Prepare(query string) (driver.Stmt, error) {
	return &scriptedStmt{db: c.db, query: query}, nil
}
func (c *scriptedConn) Close() error              { return nil }
func (c *scriptedConn) Begin() (driver.Tx, error) { return nil, errors.New("not supported") }

type scriptedStmt struct {
	db    *scriptedDB
	query string
}

func (s *scriptedStmt) Close() error  { return nil }
func (s *scriptedStmt) NumInput() int { return -1 }

func (s *scriptedStmt) Exec(args []driver.Value) (driver.Result, error) {
	s.db.record(s.query, args)
	if s.db.err != nil {
		return nil, s.db.err
	}
	return driver.RowsAffected(len(s.db.rows)), nil
}

func (s *scriptedStmt) Query(args []driver.Value) (driver.Rows, error) {
	s.db.record(s.query, args)
	if s.db.err != nil {
		return nil, s.db.err
	}
	return &scriptedRows{columns: s.db.columns, rows: s.db.rows}, nil
}

type scriptedRows struct {
	columns []string
	rows    [][]driver.Value
	pos     int
}

func (r *scriptedRows) Columns() []string { return r.columns }
func (r *scriptedRows) Close() error      { return nil }

func (r *scriptedRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.pos])
	r.pos++
	return nil
}

func newScriptedRepo(t *testing.T, script *scriptedDB) *Repository {
	t.Helper()
	db := sql.OpenDB(script)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db)
}

func cancelledBooking() *domain.Booking {
	note := "plans changed"
	return &domain.Booking{
		ID:          42,
		ProviderID:  7,
		ClientID:    3,
		Amount:      decimal.NewFromInt(100),
		ScheduledAt: time.Date(2025, time.October, 20, 10, 0, 0, 0, time.UTC),
		Status:      domain.StatusCancelled,
		Version:     4,
		Cancellation: &domain.CancellationRecord{
			Kind:        domain.KindCancellation,
			RuleMatched: "24h+ tier",
			Penalty:     decimal.NewFromInt(25),
			Refund:      decimal.NewFromInt(75),
			Reason:      "25% penalty",
			Note:        &note,
			OccurredAt:  time.Date(2025, time.October, 18, 9, 0, 0, 0, time.UTC),
		},
	}
}

func TestRepository_UpdateVersioned(t *testing.T) {
	updatedAt := time.Date(2025, time.October, 18, 9, 0, 1, 0, time.UTC)
	script := &scriptedDB{
		columns: []string{"version", "updated_at"},
		rows:    [][]driver.Value{{int64(5), updatedAt}},
	}
	repo := newScriptedRepo(t, script)
	b := cancelledBooking()

	err := repo.UpdateVersioned(context.Background(), b, 4)

	require.NoError(t, err)
	assert.Equal(t, int64(5), b.Version)
	assert.Equal(t, updatedAt, b.UpdatedAt)

	assert.Contains(t, script.query, "UPDATE bookings SET")
	assert.Contains(t, script.query, "version = version + 1")
	assert.Contains(t, script.query, "WHERE id = $")
	assert.Contains(t, script.query, "AND version = $")
	assert.Contains(t, script.query, "RETURNING version, updated_at")
	require.GreaterOrEqual(t, len(script.args), 2)
	// условие WHERE идёт последним: id, затем ожидаемая версия
	assert.Equal(t, int64(42), script.args[len(script.args)-2])
	assert.Equal(t, int64(4), script.args[len(script.args)-1])
}

func TestRepository_UpdateVersioned_NoRowsIsConflict(t *testing.T) {
	script := &scriptedDB{columns: []string{"version", "updated_at"}}
	repo := newScriptedRepo(t, script)
	b := cancelledBooking()

	err := repo.UpdateVersioned(context.Background(), b, 3)

	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.Equal(t, int64(4), b.Version, "booking must not change on conflict")
}

func TestRepository_UpdateVersioned_QueryError(t *testing.T) {
	script := &scriptedDB{err: errors.New("connection reset")}
	repo := newScriptedRepo(t, script)

	err := repo.UpdateVersioned(context.Background(), cancelledBooking(), 4)

	assert.ErrorIs(t, err, ErrExecQuery)
	assert.NotErrorIs(t, err, ErrVersionConflict)
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	script := &scriptedDB{columns: bookingColumns}
	repo := newScriptedRepo(t, script)

	_, err := repo.GetByID(context.Background(), 99)

	assert.ErrorIs(t, err, ErrBookingNotFound)
	assert.Contains(t, script.query, "FROM bookings WHERE id = $1")
	assert.Equal(t, []driver.Value{int64(99)}, script.args)
}
