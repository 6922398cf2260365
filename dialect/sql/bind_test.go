package sql

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malweka/GoliathData-sub002/dialect"
)

func TestBind(t *testing.T) {
	params := []dialect.Parameter{
		{Name: "Name", Value: "George"},
		{Name: "qPm0", Value: 3},
	}
	tests := []struct {
		name    string
		dialect *dialect.Dialect
		query   string
		want    string
		args    []any
	}{
		{
			name:    "Dollar",
			dialect: dialect.NewPostgres(),
			query:   `UPDATE "animals" SET "Name" = @Name WHERE "Id" = @qPm0 OR "Age" = @qPm0`,
			want:    `UPDATE "animals" SET "Name" = $1 WHERE "Id" = $2 OR "Age" = $2`,
			args:    []any{"George", 3},
		},
		{
			name:    "Question",
			dialect: dialect.NewMySQL(),
			query:   "UPDATE `animals` SET `Name` = @Name WHERE `Id` = @qPm0 OR `Age` = @qPm0",
			want:    "UPDATE `animals` SET `Name` = ? WHERE `Id` = ? OR `Age` = ?",
			args:    []any{"George", 3, 3},
		},
		{
			name:    "Quoted",
			dialect: dialect.NewPostgres(),
			query:   `SELECT '@Name', "@qPm0" FROM "animals" WHERE "Name" = @Name`,
			want:    `SELECT '@Name', "@qPm0" FROM "animals" WHERE "Name" = $1`,
			args:    []any{"George"},
		},
		{
			name:    "Unknown",
			dialect: dialect.NewMySQL(),
			query:   "SELECT @@IDENTITY, @other, @ FROM `animals` WHERE `Id` = @qPm0",
			want:    "SELECT @@IDENTITY, @other, @ FROM `animals` WHERE `Id` = ?",
			args:    []any{3},
		},
		{
			name:    "Prefix",
			dialect: dialect.NewPostgres(),
			query:   `SELECT "Id" FROM "animals" WHERE "Name" = @NameX`,
			want:    `SELECT "Id" FROM "animals" WHERE "Name" = @NameX`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, args, err := Bind(tt.dialect, tt.query, params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, q)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestBind_Named(t *testing.T) {
	for _, d := range []*dialect.Dialect{dialect.NewSQLServer(), dialect.NewSQLite()} {
		query := "DELETE FROM [zoos] WHERE [Id] = @qPm0"
		q, args, err := Bind(d, query, []dialect.Parameter{{Name: "qPm0", Value: 1}})
		require.NoError(t, err)
		assert.Equal(t, query, q)
		assert.Equal(t, []any{sql.Named("qPm0", 1)}, args)
	}
}

func TestBind_Deferred(t *testing.T) {
	key := 0
	params := []dialect.Parameter{{Name: "Id", Value: dialect.Deferred(func() (any, error) { return key, nil })}}
	key = 42
	_, args, err := Bind(dialect.NewPostgres(), `SELECT @Id`, params)
	require.NoError(t, err)
	assert.Equal(t, []any{42}, args)

	boom := errors.New("not saved")
	params[0].Value = dialect.Deferred(func() (any, error) { return nil, boom })
	_, _, err = Bind(dialect.NewPostgres(), `SELECT @Id`, params)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "resolve parameter Id")
}
