package sql

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malweka/GoliathData-sub002/dialect"
)

func TestStatsConn(t *testing.T) {
	db, mock := mockDB(t)
	var slow atomic.Int64
	conn := NewStatsConn(db,
		WithSlowThreshold(-1),
		WithSlowQueryHook(func(context.Context, string, []any, time.Duration) { slow.Add(1) }),
	)
	assert.Equal(t, time.Duration(-1), conn.SlowThreshold())
	exec := NewExecutor(dialect.NewPostgres(), conn)
	ctx := context.Background()

	mock.ExpectExec(`DELETE FROM "zoos"`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(`SELECT COUNT(*) FROM "zoos"`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`DELETE FROM "animals"`).WillReturnError(errors.New("locked"))

	_, err := exec.ExecuteNonQuery(ctx, `DELETE FROM "zoos"`, nil)
	require.NoError(t, err)
	_, err = exec.ExecuteScalar(ctx, `SELECT COUNT(*) FROM "zoos"`, nil)
	require.NoError(t, err)
	_, err = exec.ExecuteNonQuery(ctx, `DELETE FROM "animals"`, nil)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	s := conn.QueryStats().Stats()
	assert.Equal(t, int64(1), s.TotalQueries)
	assert.Equal(t, int64(2), s.TotalExecs)
	assert.Equal(t, int64(1), s.Errors)
	assert.Equal(t, int64(3), s.SlowQueries)
	assert.Equal(t, int64(3), slow.Load())
	assert.Contains(t, s.String(), "queries=1 execs=2")

	conn.SetSlowThreshold(time.Hour)
	assert.Equal(t, time.Hour, conn.SlowThreshold())
	conn.QueryStats().Reset()
	assert.Zero(t, conn.QueryStats().Stats())
	assert.Zero(t, conn.QueryStats().Stats().AvgQueryDuration())
}

func TestStatsConn_Transaction(t *testing.T) {
	db, mock := mockDB(t)
	conn := NewStatsConn(db)
	drv := &Driver{Executor: NewExecutor(dialect.NewPostgres(), conn), db: db}
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "zoos"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, drv.InTx(ctx, func(tx *Tx) error {
		_, err := tx.ExecuteNonQuery(ctx, `DELETE FROM "zoos"`, nil)
		return err
	}))
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, int64(1), conn.QueryStats().Stats().TotalExecs)
}

func TestDebugConn(t *testing.T) {
	db, mock := mockDB(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	exec := NewExecutor(dialect.NewMySQL(), NewDebugConn(db, logger))

	mock.ExpectExec("DELETE FROM `zoos` WHERE `Id` = ?").WithArgs(9).WillReturnResult(sqlmock.NewResult(0, 1))
	_, err := exec.ExecuteNonQuery(context.Background(), "DELETE FROM `zoos` WHERE `Id` = @qPm0",
		[]dialect.Parameter{{Name: "qPm0", Value: 9}})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Contains(t, buf.String(), "exec: DELETE FROM `zoos` WHERE `Id` = ? args: [9]")
}

func TestWithSlowQueryLog(t *testing.T) {
	db, mock := mockDB(t)
	var buf bytes.Buffer
	conn := NewStatsConn(db, WithSlowThreshold(-1), WithSlowQueryLog(slog.New(slog.NewTextHandler(&buf, nil))))

	mock.ExpectExec(`VACUUM`).WillReturnResult(sqlmock.NewResult(0, 0))
	_, err := conn.ExecContext(context.Background(), `VACUUM`)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "slow query detected")
	assert.Contains(t, buf.String(), "query=VACUUM")
}
