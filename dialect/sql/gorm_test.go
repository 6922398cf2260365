package sql

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/malweka/GoliathData-sub002/dialect"
)

func TestFromGorm(t *testing.T) {
	db, mock := mockDB(t)
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)

	ctx := context.Background()
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "zoos" WHERE "Id" = $1`).WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	err = gdb.Transaction(func(tx *gorm.DB) error {
		exec, err := FromGorm(tx, nil)
		if err != nil {
			return err
		}
		assert.Equal(t, dialect.Postgres, exec.Dialect().Name())
		_, err = exec.ExecuteNonQuery(ctx, `DELETE FROM "zoos" WHERE "Id" = @qPm0`, []dialect.Parameter{{Name: "qPm0", Value: 1}})
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	exec, err := FromGorm(gdb, dialect.NewSQLite())
	require.NoError(t, err)
	assert.Equal(t, dialect.SQLite, exec.Dialect().Name())
}
