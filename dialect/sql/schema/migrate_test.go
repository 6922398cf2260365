package schema

import (
	"context"
	stdsql "database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	goliath "github.com/malweka/GoliathData-sub002"
	"github.com/malweka/GoliathData-sub002/dialect"
	"github.com/malweka/GoliathData-sub002/dialect/sql"
	"github.com/malweka/GoliathData-sub002/internal/zoo"
	"github.com/malweka/GoliathData-sub002/mapping"
	"github.com/malweka/GoliathData-sub002/statement"
)

func sqliteDriver(t *testing.T) *sql.Driver {
	t.Helper()
	db, err := stdsql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return sql.OpenDB(dialect.NewSQLite(), db)
}

func TestMigrate_Create(t *testing.T) {
	drv := sqliteDriver(t)
	ctx := context.Background()
	cfg := zoo.MustConfig()
	m := NewMigrate(drv)

	stmts, err := m.Plan(ctx, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, stmts)
	assert.True(t, strings.HasPrefix(stmts[0], "CREATE TABLE `zoos`"), stmts[0])
	require.NoError(t, m.Create(ctx, cfg))

	// The created tables accept the statements of the builders.
	e, err := cfg.Entity("Zoo")
	require.NoError(t, err)
	z := &zoo.Zoo{Name: "SD Zoo"}
	list, err := statement.NewInsert(drv.Dialect(), e, z).Build()
	require.NoError(t, err)
	require.NoError(t, drv.Run(ctx, list))
	assert.Equal(t, 1, z.Id)

	v, err := drv.ExecuteScalar(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'animals_employees'", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestMigrate_Unsupported(t *testing.T) {
	db, err := stdsql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	m := NewMigrate(sql.OpenDB(dialect.NewSQLServer(), db))
	_, err = m.Plan(context.Background(), zoo.MustConfig())
	require.Error(t, err)
	assert.True(t, goliath.IsUnsupported(err))
}

func TestMigrate_InvalidSchema(t *testing.T) {
	cfg, err := mapping.Parse([]byte(`
entities:
  - name: Document
    properties:
      - {name: Id, dbType: Int32, primaryKey: true}
      - {name: Body, dbType: Xml}
`))
	require.NoError(t, err)
	_, err = NewMigrate(sqliteDriver(t), WithSchemaName("main")).Schema(cfg)
	assert.True(t, goliath.IsUnsupported(err))
}
