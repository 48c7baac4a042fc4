package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"marketadmin/internal/adapters/http/perf"
)

// SQLDB is the database interface used by all stores.
// Both *sql.DB and *TimedDB satisfy it.
type SQLDB interface {
	Querier
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

var _ SQLDB = (*sql.DB)(nil)

// DefaultSlowQueryMs is the slow-statement threshold when
// MARKETADMIN_SLOW_QUERY_MS is unset or invalid.
const DefaultSlowQueryMs = 50

var slowQueryThreshold = sync.OnceValue(func() time.Duration {
	ms, err := strconv.Atoi(os.Getenv("MARKETADMIN_SLOW_QUERY_MS"))
	if err != nil || ms <= 0 {
		ms = DefaultSlowQueryMs
	}
	return time.Duration(ms) * time.Millisecond
})

// TimedDB is the SQLDB handed to stores by the server. Each statement run
// outside a transaction is labelled, logged at WARN when slow and recorded
// in the dashboard collector.
type TimedDB struct {
	db   *sql.DB
	sink *perf.Collector
	slow time.Duration
}

var _ SQLDB = (*TimedDB)(nil)

// NewTimedDB wraps db. A nil sink only logs.
func NewTimedDB(db *sql.DB, sink *perf.Collector) *TimedDB {
	return &TimedDB{db: db, sink: sink, slow: slowQueryThreshold()}
}

// labelKeyword names the token that precedes the table for each verb.
var labelKeyword = map[string]string{
	"SELECT": "FROM",
	"DELETE": "FROM",
	"WITH":   "FROM",
	"INSERT": "INTO",
	"UPDATE": "UPDATE",
}

// statementLabel reduces a query to "VERB table", so one statement shape
// aggregates under one label whatever its arguments.
func statementLabel(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "EMPTY"
	}
	verb := strings.ToUpper(fields[0])
	kw, ok := labelKeyword[verb]
	if !ok {
		return verb
	}
	i := slices.IndexFunc(fields, func(f string) bool { return strings.EqualFold(f, kw) })
	if i < 0 || i+1 >= len(fields) {
		return verb
	}
	return verb + " " + strings.Trim(fields[i+1], "(),")
}

// track starts the clock for query; the returned func stops it.
func (t *TimedDB) track(query string) func(error) {
	start := time.Now()
	return func(err error) {
		took := time.Since(start)
		label := statementLabel(query)
		ms := float64(took.Microseconds()) / 1000
		if took >= t.slow {
			slog.Warn("slow_query", "statement", label, "duration_ms", ms, "error", err)
		} else {
			slog.Debug("query", "statement", label, "duration_ms", ms)
		}
		if t.sink == nil {
			return
		}
		t.sink.Record(perf.Entry{
			Kind:       perf.KindQuery,
			Path:       label,
			DurationMs: ms,
			Failed:     err != nil && !errors.Is(err, sql.ErrNoRows),
			Timestamp:  start,
		})
	}
}

func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	done := t.track(query)
	res, err := t.db.ExecContext(ctx, query, args...)
	done(err)
	return res, err
}

func (t *TimedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	done := t.track(query)
	rows, err := t.db.QueryContext(ctx, query, args...)
	done(err)
	return rows, err
}

// QueryRowContext records row.Err(), which is set only for errors raised
// before Scan.
func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	done := t.track(query)
	row := t.db.QueryRowContext(ctx, query, args...)
	done(row.Err())
	return row
}

// BeginTx records only the BEGIN. Statements on the transaction go straight
// to the driver.
func (t *TimedDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	done := t.track("BEGIN")
	tx, err := t.db.BeginTx(ctx, opts)
	done(err)
	return tx, err
}
