// Package dbmetrics оборачивает *sql.DB и пишет длительность запросов и состояние пула в метрики.
package dbmetrics

import (
	"context"
	"database/sql"
	"time"
)

// DefaultStatsInterval период сбора статистики пула в WrapWithDefault
const DefaultStatsInterval = 15 * time.Second

// Collector принимает измерения
type Collector interface {
	ObserveDBQuery(method string, duration time.Duration, err error)
	SetDBStats(stats sql.DBStats)
}

// DB реализует тот же набор методов, что репозитории ждут от *sql.DB
type DB struct {
	*sql.DB
	collector Collector
}

// Wrap оборачивает db без фонового сбора статистики пула
func Wrap(db *sql.DB, collector Collector) *DB {
	return &DB{DB: db, collector: collector}
}

// WrapWithDefault оборачивает db и публикует статистику пула каждые DefaultStatsInterval, пока не закрыт stop
func WrapWithDefault(db *sql.DB, collector Collector, stop <-chan struct{}) *DB {
	d := Wrap(db, collector)
	go d.CollectStats(DefaultStatsInterval, stop)
	return d
}

// CollectStats блокируется до закрытия stop
func (d *DB) CollectStats(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.collector.SetDBStats(d.DB.Stats())
	for {
		select {
		case <-ticker.C:
			d.collector.SetDBStats(d.DB.Stats())
		case <-stop:
			return
		}
	}
}

func (d *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	res, err := d.DB.ExecContext(ctx, query, args...)
	d.collector.ObserveDBQuery("ExecContext", time.Since(start), err)
	return res, err
}

func (d *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := d.DB.QueryContext(ctx, query, args...)
	d.collector.ObserveDBQuery("QueryContext", time.Since(start), err)
	return rows, err
}

// QueryRowContext ошибку выполнения видно только через Row.Err, её и записываем
func (d *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	start := time.Now()
	row := d.DB.QueryRowContext(ctx, query, args...)
	d.collector.ObserveDBQuery("QueryRowContext", time.Since(start), row.Err())
	return row
}
