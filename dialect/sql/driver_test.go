package sql

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goliath "github.com/malweka/GoliathData-sub002"
	"github.com/malweka/GoliathData-sub002/dialect"
	"github.com/malweka/GoliathData-sub002/internal/zoo"
	"github.com/malweka/GoliathData-sub002/query"
	"github.com/malweka/GoliathData-sub002/statement"
)

func mockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestRun_ReturningKey(t *testing.T) {
	db, mock := mockDB(t)
	d := dialect.NewPostgres()
	m := &zoo.Monkey{Animal: zoo.Animal{Name: "George"}, Family: zoo.Ptr("Cebidae"), CanDoTricks: true}
	cfg := zoo.MustConfig()
	e, err := cfg.Entity("Monkey")
	require.NoError(t, err)
	list, err := statement.NewInsert(d, e, m).Build()
	require.NoError(t, err)

	mock.ExpectQuery(`INSERT INTO "animals" ("Name", "Age", "Location", "ReceivedOn", "ZooId") VALUES ($1, $2, $3, $4, $5) RETURNING "Id"`).
		WithArgs("George", nil, nil, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"Id"}).AddRow(7))
	mock.ExpectExec(`INSERT INTO "monkeys" ("Id", "Family", "CanDoTricks") VALUES ($1, $2, $3)`).
		WithArgs(7, "Cebidae", true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewExecutor(d, db).Run(context.Background(), list))
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 7, m.Id)
}

func TestRun_ScalarKey(t *testing.T) {
	db, mock := mockDB(t)
	d := dialect.NewSQLServer()
	z := &zoo.Zoo{Name: "SD Zoo"}
	e, err := zoo.MustConfig().Entity("Zoo")
	require.NoError(t, err)
	list, err := statement.NewInsert(d, e, z).Build()
	require.NoError(t, err)

	mock.ExpectQuery(list.Operations[0].SQL()).
		WillReturnRows(sqlmock.NewRows([]string{""}).AddRow([]byte("12")))
	require.NoError(t, NewExecutor(d, db).Run(context.Background(), list))
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 12, z.Id)
}

func TestRun_LastInsertID(t *testing.T) {
	db, mock := mockDB(t)
	d := dialect.NewMySQL()
	z := &zoo.Zoo{Name: "SD Zoo"}
	e, err := zoo.MustConfig().Entity("Zoo")
	require.NoError(t, err)
	list, err := statement.NewInsert(d, e, z).Build()
	require.NoError(t, err)

	// The key fragment is not sent: the driver reports the key.
	mock.ExpectExec("INSERT INTO `zoos` (`Name`, `City`, `AcceptNewAnimals`) VALUES (?, ?, ?)").
		WithArgs("SD Zoo", nil, false).
		WillReturnResult(sqlmock.NewResult(4, 1))
	require.NoError(t, NewExecutor(d, db).Run(context.Background(), list))
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 4, z.Id)
}

func TestRun_AbortsOnFailure(t *testing.T) {
	db, mock := mockDB(t)
	d := dialect.NewPostgres()
	m := &zoo.Monkey{Animal: zoo.Animal{Id: 1}}
	e, err := zoo.MustConfig().Entity("Monkey")
	require.NoError(t, err)
	list, err := statement.NewDelete(d, e, m).Build()
	require.NoError(t, err)

	boom := errors.New("connection reset")
	mock.ExpectExec(`DELETE FROM "monkeys" WHERE "Id" = $1`).WithArgs(1).WillReturnError(boom)
	err = NewExecutor(d, db).Run(context.Background(), list)
	require.Error(t, err)
	assert.True(t, goliath.IsExecutionError(err))
	assert.ErrorIs(t, err, boom)
	var ee *goliath.ExecutionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "monkeys", ee.Table)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_NoKeyReturned(t *testing.T) {
	db, mock := mockDB(t)
	d := dialect.NewPostgres()
	e, err := zoo.MustConfig().Entity("Zoo")
	require.NoError(t, err)
	list, err := statement.NewInsert(d, e, &zoo.Zoo{Name: "SD Zoo"}).Build()
	require.NoError(t, err)

	mock.ExpectQuery(`INSERT INTO "zoos" ("Name", "City", "AcceptNewAnimals") VALUES ($1, $2, $3) RETURNING "Id"`).
		WillReturnRows(sqlmock.NewRows([]string{"Id"}))
	err = NewExecutor(d, db).Run(context.Background(), list)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no key returned")
}

func TestExecute(t *testing.T) {
	db, mock := mockDB(t)
	exec := NewExecutor(dialect.NewPostgres(), db)
	ctx := context.Background()
	params := []dialect.Parameter{{Name: "qPm0", Value: "SD Zoo"}}

	mock.ExpectExec(`UPDATE "zoos" SET "City" = NULL WHERE "Name" = $1`).
		WithArgs("SD Zoo").
		WillReturnResult(sqlmock.NewResult(0, 3))
	n, err := exec.ExecuteNonQuery(ctx, `UPDATE "zoos" SET "City" = NULL WHERE "Name" = @qPm0`, params)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	mock.ExpectQuery(`SELECT "Id" FROM "zoos" WHERE "Name" = $1`).
		WithArgs("SD Zoo").
		WillReturnRows(sqlmock.NewRows([]string{"Id"}).AddRow(1).AddRow(2))
	rows, err := exec.ExecuteReader(ctx, `SELECT "Id" FROM "zoos" WHERE "Name" = @qPm0`, params)
	require.NoError(t, err)
	var ids []int
	for rows.Next() {
		var id int
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Close())
	assert.Equal(t, []int{1, 2}, ids)

	mock.ExpectQuery(`SELECT COUNT(*) FROM "zoos"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(2)))
	v, err := exec.ExecuteScalar(ctx, `SELECT COUNT(*) FROM "zoos"`, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	mock.ExpectQuery(`SELECT "Id" FROM "zoos" WHERE "Name" = $1`).
		WithArgs("none").
		WillReturnRows(sqlmock.NewRows([]string{"Id"}))
	v, err = exec.ExecuteScalar(ctx, `SELECT "Id" FROM "zoos" WHERE "Name" = @qPm0`,
		[]dialect.Parameter{{Name: "qPm0", Value: "none"}})
	require.NoError(t, err)
	assert.Nil(t, v)

	mock.ExpectExec(`DELETE FROM "zoos"`).WillReturnError(errors.New("denied"))
	_, err = exec.ExecuteNonQuery(ctx, `DELETE FROM "zoos"`, nil)
	assert.True(t, goliath.IsExecutionError(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSelect(t *testing.T) {
	db, mock := mockDB(t)
	d := dialect.NewPostgres()
	e, err := zoo.MustConfig().Entity("Zoo")
	require.NoError(t, err)
	s, err := query.New(d, e).ByKey(3)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT z0."Id" AS "z0_Id", z0."Name" AS "z0_Name", z0."City" AS "z0_City", z0."AcceptNewAnimals" AS "z0_AcceptNewAnimals" FROM "zoos" z0 WHERE z0."Id" = $1`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"z0_Id", "z0_Name", "z0_City", "z0_AcceptNewAnimals"}).
			AddRow(int64(3), "SD Zoo", nil, true))
	rows, err := NewExecutor(d, db).Select(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	z := &zoo.Zoo{}
	require.NoError(t, s.Assign(z, rows[0]))
	assert.Equal(t, 3, z.Id)
	assert.Equal(t, "SD Zoo", z.Name)
	assert.Nil(t, z.City)
	assert.True(t, z.AcceptNewAnimals)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCount(t *testing.T) {
	db, mock := mockDB(t)
	d := dialect.NewPostgres()
	e, err := zoo.MustConfig().Entity("Zoo")
	require.NoError(t, err)
	b := query.New(d, e)
	b.Where("City").EqualTo("San Diego")
	s, err := b.Count()
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT COUNT(*) FROM "zoos" z0 WHERE z0."City" = $1`).
		WithArgs("San Diego").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(4)))
	n, err := NewExecutor(d, db).Count(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDriverTransaction(t *testing.T) {
	db, mock := mockDB(t)
	drv := OpenDB(dialect.NewPostgres(), db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "zoos" WHERE "Id" = $1`).WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	err := drv.InTx(ctx, func(tx *Tx) error {
		_, err := tx.ExecuteNonQuery(ctx, `DELETE FROM "zoos" WHERE "Id" = @qPm0`, []dialect.Parameter{{Name: "qPm0", Value: 1}})
		return err
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectRollback()
	boom := errors.New("boom")
	err = drv.InTx(ctx, func(*Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Same(t, db, drv.DB())
}

func TestOpen(t *testing.T) {
	_, err := Open("oracle", "oracle", "")
	require.Error(t, err)
	assert.True(t, goliath.IsLookupError(err))

	drv, err := Open(dialect.SQLite, "sqlite", ":memory:")
	require.NoError(t, err)
	assert.Equal(t, dialect.SQLite, drv.Dialect().Name())
	require.NoError(t, drv.Close())
}
