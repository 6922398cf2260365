package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	goliath "github.com/malweka/GoliathData-sub002"
	"github.com/malweka/GoliathData-sub002/dialect"
	"github.com/malweka/GoliathData-sub002/query"
	"github.com/malweka/GoliathData-sub002/statement"
)

// ExecQuerier wraps the standard Exec and Query methods. *sql.DB, *sql.Tx
// and *sql.Conn implement it.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger receiving debug records of executed statements.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = l
	}
}

// Executor runs rendered statements on a connection, a pool or a
// transaction supplied by the caller. It binds parameters in the style of
// its dialect and never retries: the first failing statement ends a Run.
type Executor struct {
	dialect *dialect.Dialect
	conn    ExecQuerier
	logger  *slog.Logger
}

// NewExecutor returns an executor of statements rendered by d on conn.
func NewExecutor(d *dialect.Dialect, conn ExecQuerier, opts ...Option) *Executor {
	e := &Executor{dialect: d, conn: conn, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dialect returns the dialect of the executor.
func (e *Executor) Dialect() *dialect.Dialect { return e.dialect }

// Conn returns the underlying connection.
func (e *Executor) Conn() ExecQuerier { return e.conn }

// ExecuteNonQuery runs a statement returning no rows and reports the number
// of affected rows.
func (e *Executor) ExecuteNonQuery(ctx context.Context, query string, params []dialect.Parameter) (int64, error) {
	res, err := e.exec(ctx, query, params)
	if err != nil {
		return 0, goliath.NewExecutionError("", query, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, goliath.NewExecutionError("", query, err)
	}
	return n, nil
}

// ExecuteReader runs a query. The caller must close the returned rows.
func (e *Executor) ExecuteReader(ctx context.Context, query string, params []dialect.Parameter) (*Rows, error) {
	rows, err := e.query(ctx, query, params)
	if err != nil {
		return nil, goliath.NewExecutionError("", query, err)
	}
	return &Rows{rows}, nil
}

// ExecuteScalar runs a query and returns the first column of its first
// row. A query without rows returns nil.
func (e *Executor) ExecuteScalar(ctx context.Context, query string, params []dialect.Parameter) (any, error) {
	v, err := e.scalar(ctx, query, params)
	if err != nil {
		return nil, goliath.NewExecutionError("", query, err)
	}
	return v, nil
}

// Run executes the operations of list in order. Keys generated by inserts
// are read back and assigned before the next operation runs, so deferred
// parameters see them. Run stops at the first failure; undoing the
// operations already run is left to the transaction of the caller.
func (e *Executor) Run(ctx context.Context, list *statement.OperationList) error {
	for _, op := range list.Flatten() {
		if err := e.run(ctx, op); err != nil {
			return goliath.NewExecutionError(op.TableName(), op.SQL(), err)
		}
	}
	return nil
}

func (e *Executor) run(ctx context.Context, op statement.Operation) error {
	ins, ok := op.(*statement.InsertInfo)
	if !ok || ins.KeyRetrieval == nil {
		_, err := e.exec(ctx, op.SQL(), op.Parameters())
		return err
	}
	var key any
	switch ins.KeyRetrieval.Mode {
	case dialect.KeyLastInsertID:
		res, err := e.exec(ctx, ins.Body(), ins.Parameters())
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		key = id
	default:
		v, err := e.scalar(ctx, ins.SQL(), ins.Parameters())
		if err != nil {
			return err
		}
		if v == nil {
			return errors.New("no key returned")
		}
		key = v
	}
	if ins.SetKey == nil {
		return nil
	}
	return ins.SetKey(key)
}

// Select runs a query statement and returns its rows keyed by label.
func (e *Executor) Select(ctx context.Context, s *query.Statement) ([]query.Row, error) {
	rows, err := e.query(ctx, s.SQL, s.Parameters)
	if err != nil {
		return nil, goliath.NewExecutionError("", s.SQL, err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, goliath.NewExecutionError("", s.SQL, err)
	}
	var out []query.Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, goliath.NewExecutionError("", s.SQL, err)
		}
		row := make(query.Row, len(cols))
		for i, c := range cols {
			row[c] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, goliath.NewExecutionError("", s.SQL, err)
	}
	return out, nil
}

// Count runs a count statement.
func (e *Executor) Count(ctx context.Context, s *query.Statement) (int64, error) {
	var n sql.NullInt64
	v, err := e.ExecuteScalar(ctx, s.SQL, s.Parameters)
	if err != nil {
		return 0, err
	}
	if err := n.Scan(v); err != nil {
		return 0, goliath.NewExecutionError("", s.SQL, err)
	}
	return n.Int64, nil
}

func (e *Executor) exec(ctx context.Context, query string, params []dialect.Parameter) (sql.Result, error) {
	q, args, err := Bind(e.dialect, query, params)
	if err != nil {
		return nil, err
	}
	e.debug(ctx, "exec", q, args)
	return e.conn.ExecContext(ctx, q, args...)
}

func (e *Executor) query(ctx context.Context, query string, params []dialect.Parameter) (*sql.Rows, error) {
	q, args, err := Bind(e.dialect, query, params)
	if err != nil {
		return nil, err
	}
	e.debug(ctx, "query", q, args)
	return e.conn.QueryContext(ctx, q, args...)
}

func (e *Executor) scalar(ctx context.Context, query string, params []dialect.Parameter) (v any, rerr error) {
	rows, err := e.query(ctx, query, params)
	if err != nil {
		return nil, err
	}
	defer func() { rerr = errors.Join(rerr, rows.Close()) }()
	if !rows.Next() {
		return nil, rows.Err()
	}
	if err := rows.Scan(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func (e *Executor) debug(ctx context.Context, msg, query string, args []any) {
	if !e.logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	e.logger.DebugContext(ctx, "dialect/sql: "+msg,
		slog.String("dialect", e.dialect.Name()),
		slog.String("sql", query),
		slog.Int("args", len(args)),
	)
}

// Driver is an Executor owning its *sql.DB.
type Driver struct {
	*Executor
	db *sql.DB
}

// Open opens a database with the given database/sql driver and wraps it
// with the named dialect.
func Open(dialectName, driverName, source string, opts ...Option) (*Driver, error) {
	d, err := dialect.Get(dialectName)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driverName, source)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: open %s: %w", driverName, err)
	}
	return OpenDB(d, db, opts...), nil
}

// OpenDB wraps the given database/sql.DB with a Driver.
func OpenDB(d *dialect.Dialect, db *sql.DB, opts ...Option) *Driver {
	return &Driver{Executor: NewExecutor(d, db, opts...), db: db}
}

// DB returns the underlying *sql.DB instance.
func (d *Driver) DB() *sql.DB { return d.db }

// BeginTx starts a transaction with options.
func (d *Driver) BeginTx(ctx context.Context, opts *TxOptions) (*Tx, error) {
	tx, err := d.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: begin: %w", err)
	}
	e := *d.Executor
	e.conn = rewrap(d.conn, tx)
	return &Tx{Executor: &e, Tx: tx}, nil
}

// InTx runs fn in a transaction committed when fn succeeds and rolled back
// otherwise.
func (d *Driver) InTx(ctx context.Context, fn func(*Tx) error) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = errors.Join(err, fmt.Errorf("dialect/sql: rollback: %w", rerr))
		}
		return err
	}
	return tx.Commit()
}

// Close closes the underlying connection.
func (d *Driver) Close() error { return d.db.Close() }

// Tx is an Executor running in a transaction.
type Tx struct {
	*Executor
	*sql.Tx
}

type (
	// Rows wraps the sql.Rows to avoid locks copy.
	Rows struct{ ColumnScanner }
	// Result is an alias to sql.Result.
	Result = sql.Result
	// TxOptions holds the transaction options to be used in DB.BeginTx.
	TxOptions = sql.TxOptions
)

// ColumnScanner is the interface that wraps the standard
// sql.Rows methods used for scanning database rows.
type ColumnScanner interface {
	Close() error
	ColumnTypes() ([]*sql.ColumnType, error)
	Columns() ([]string, error)
	Err() error
	Next() bool
	NextResultSet() bool
	Scan(dest ...any) error
}
