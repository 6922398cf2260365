package sql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/malweka/GoliathData-sub002/dialect"
)

// QueryStats holds query execution statistics.
type QueryStats struct {
	// TotalQueries is the total number of queries executed.
	TotalQueries atomic.Int64
	// TotalExecs is the total number of exec statements executed.
	TotalExecs atomic.Int64
	// TotalDuration is the total time spent executing queries.
	TotalDuration atomic.Int64 // nanoseconds
	// SlowQueries is the count of queries exceeding the slow threshold.
	SlowQueries atomic.Int64
	// Errors is the count of query errors.
	Errors atomic.Int64
}

// Stats returns a snapshot of the current statistics.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalQueries:  s.TotalQueries.Load(),
		TotalExecs:    s.TotalExecs.Load(),
		TotalDuration: time.Duration(s.TotalDuration.Load()),
		SlowQueries:   s.SlowQueries.Load(),
		Errors:        s.Errors.Load(),
	}
}

// Reset resets all statistics to zero.
func (s *QueryStats) Reset() {
	s.TotalQueries.Store(0)
	s.TotalExecs.Store(0)
	s.TotalDuration.Store(0)
	s.SlowQueries.Store(0)
	s.Errors.Store(0)
}

// StatsSnapshot is a point-in-time snapshot of query statistics.
type StatsSnapshot struct {
	TotalQueries  int64
	TotalExecs    int64
	TotalDuration time.Duration
	SlowQueries   int64
	Errors        int64
}

// AvgQueryDuration returns the average query duration.
func (s StatsSnapshot) AvgQueryDuration() time.Duration {
	total := s.TotalQueries + s.TotalExecs
	if total == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(total)
}

// String returns a human-readable summary of the statistics.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"queries=%d execs=%d duration=%s avg=%s slow=%d errors=%d",
		s.TotalQueries, s.TotalExecs, s.TotalDuration, s.AvgQueryDuration(),
		s.SlowQueries, s.Errors,
	)
}

// SlowQueryHook is a function called when a slow statement is detected.
type SlowQueryHook func(ctx context.Context, query string, args []any, duration time.Duration)

// StatsConn wraps an ExecQuerier with statement statistics collection.
type StatsConn struct {
	ExecQuerier
	stats         *QueryStats
	slowThreshold time.Duration
	slowHook      SlowQueryHook
	mu            sync.RWMutex
}

// StatsOption configures the StatsConn.
type StatsOption func(*StatsConn)

// WithSlowThreshold sets the threshold for slow statement detection.
// Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsConn) {
		s.slowThreshold = d
	}
}

// WithSlowQueryHook sets a callback invoked whenever a statement exceeds
// the slow threshold.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsConn) {
		s.slowHook = hook
	}
}

// WithSlowQueryLog logs slow statements to l.
func WithSlowQueryLog(l *slog.Logger) StatsOption {
	return WithSlowQueryHook(func(ctx context.Context, query string, args []any, duration time.Duration) {
		l.WarnContext(ctx, "slow query detected", "duration", duration, "query", query, "args", len(args))
	})
}

// NewStatsConn wraps conn with statistics collection.
//
//	conn := sql.NewStatsConn(db, sql.WithSlowThreshold(200*time.Millisecond))
//	exec := sql.NewExecutor(d, conn)
//	...
//	fmt.Println(conn.QueryStats().Stats())
func NewStatsConn(conn ExecQuerier, opts ...StatsOption) *StatsConn {
	s := &StatsConn{
		ExecQuerier:   conn,
		stats:         &QueryStats{},
		slowThreshold: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the underlying QueryStats for reading statistics.
func (c *StatsConn) QueryStats() *QueryStats {
	return c.stats
}

// SlowThreshold returns the current slow statement threshold.
func (c *StatsConn) SlowThreshold() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.slowThreshold
}

// SetSlowThreshold updates the slow statement threshold.
func (c *StatsConn) SetSlowThreshold(threshold time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slowThreshold = threshold
}

// QueryContext runs a query and records statistics.
func (c *StatsConn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := c.ExecQuerier.QueryContext(ctx, query, args...)
	c.record(ctx, query, args, start, err, true)
	return rows, err
}

// ExecContext runs a statement and records statistics.
func (c *StatsConn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := c.ExecQuerier.ExecContext(ctx, query, args...)
	c.record(ctx, query, args, start, err, false)
	return res, err
}

func (c *StatsConn) record(ctx context.Context, query string, args []any, start time.Time, err error, isQuery bool) {
	duration := time.Since(start)
	if isQuery {
		c.stats.TotalQueries.Add(1)
	} else {
		c.stats.TotalExecs.Add(1)
	}
	c.stats.TotalDuration.Add(int64(duration))
	if err != nil {
		c.stats.Errors.Add(1)
	}

	c.mu.RLock()
	threshold := c.slowThreshold
	hook := c.slowHook
	c.mu.RUnlock()

	if duration > threshold {
		c.stats.SlowQueries.Add(1)
		if hook != nil {
			hook(ctx, query, args, duration)
		}
	}
}

// DebugConn wraps an ExecQuerier with logging of every statement and its
// arguments. Arguments may hold sensitive values; use it in development.
type DebugConn struct {
	ExecQuerier
	logger *slog.Logger
}

// NewDebugConn wraps conn with debug logging to l.
func NewDebugConn(conn ExecQuerier, l *slog.Logger) *DebugConn {
	return &DebugConn{ExecQuerier: conn, logger: l}
}

// QueryContext logs and runs a query.
func (c *DebugConn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	c.logger.InfoContext(ctx, fmt.Sprintf("query: %s args: %v", query, args))
	return c.ExecQuerier.QueryContext(ctx, query, args...)
}

// ExecContext logs and runs a statement.
func (c *DebugConn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	c.logger.InfoContext(ctx, fmt.Sprintf("exec: %s args: %v", query, args))
	return c.ExecQuerier.ExecContext(ctx, query, args...)
}

// rewrap returns tx wrapped the way conn is, so statements of a
// transaction keep being counted and logged.
func rewrap(conn, tx ExecQuerier) ExecQuerier {
	switch c := conn.(type) {
	case *StatsConn:
		c.mu.RLock()
		defer c.mu.RUnlock()
		return &StatsConn{ExecQuerier: rewrap(c.ExecQuerier, tx), stats: c.stats, slowThreshold: c.slowThreshold, slowHook: c.slowHook}
	case *DebugConn:
		return &DebugConn{ExecQuerier: rewrap(c.ExecQuerier, tx), logger: c.logger}
	}
	return tx
}

var (
	_ ExecQuerier = (*StatsConn)(nil)
	_ ExecQuerier = (*DebugConn)(nil)
)

// OpenWithStats opens a database with statistics collection enabled.
//
//	drv, stats, err := sql.OpenWithStats(dialect.Postgres, "postgres", dsn,
//	    sql.WithSlowThreshold(100*time.Millisecond),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	go func() {
//	    for range time.Tick(time.Minute) {
//	        log.Printf("query stats: %s", stats.Stats())
//	    }
//	}()
func OpenWithStats(dialectName, driverName, source string, opts ...StatsOption) (*Driver, *QueryStats, error) {
	d, err := dialect.Get(dialectName)
	if err != nil {
		return nil, nil, err
	}
	db, err := sql.Open(driverName, source)
	if err != nil {
		return nil, nil, fmt.Errorf("dialect/sql: open %s: %w", driverName, err)
	}
	conn := NewStatsConn(db, opts...)
	return &Driver{Executor: NewExecutor(d, conn), db: db}, conn.QueryStats(), nil
}
