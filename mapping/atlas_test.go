package mapping_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"ariga.io/atlas/sql/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	goliath "github.com/malweka/GoliathData-sub002"
	"github.com/malweka/GoliathData-sub002/dialect"
	"github.com/malweka/GoliathData-sub002/internal/zoo"
	"github.com/malweka/GoliathData-sub002/mapping"
)

func TestToAtlas(t *testing.T) {
	t.Parallel()

	cfg := zoo.MustConfig()
	s, err := cfg.ToAtlas(dialect.NewPostgres(), "public")
	require.NoError(t, err)

	monkeys, ok := s.Table("monkeys")
	require.True(t, ok)
	require.NotNil(t, monkeys.PrimaryKey)
	require.Len(t, monkeys.ForeignKeys, 1)
	assert.Equal(t, "animals", monkeys.ForeignKeys[0].RefTable.Name)

	animals, ok := s.Table("animals")
	require.True(t, ok)
	zooID, ok := animals.Column("ZooId")
	require.True(t, ok)
	assert.True(t, zooID.Type.Null)
	require.Len(t, animals.ForeignKeys, 1)
	assert.Equal(t, "zoos", animals.ForeignKeys[0].RefTable.Name)

	zoos, ok := s.Table("zoos")
	require.True(t, ok)
	name, ok := zoos.Column("Name")
	require.True(t, ok)
	assert.Equal(t, &schema.StringType{T: "character varying", Size: 50}, name.Type.Type)

	junction, ok := s.Table("animals_employees")
	require.True(t, ok)
	assert.Len(t, junction.Columns, 2)
	assert.Len(t, junction.ForeignKeys, 2)
	assert.Len(t, junction.PrimaryKey.Parts, 2)

	tags, ok := s.Table("tags")
	require.True(t, ok)
	require.Len(t, tags.Indexes, 1)
	assert.True(t, tags.Indexes[0].Unique)
}

func TestToAtlas_UnsupportedType(t *testing.T) {
	t.Parallel()

	cfg, err := mapping.Parse([]byte(`
entities:
  - name: Document
    properties:
      - {name: Id, dbType: Int32, primaryKey: true}
      - {name: Body, dbType: Xml}
`))
	require.NoError(t, err)
	_, err = cfg.ToAtlas(dialect.NewSQLite(), "main")
	require.Error(t, err)
	assert.True(t, goliath.IsUnsupported(err))
}

func TestPlanCreate(t *testing.T) {
	t.Parallel()

	db, err := sql.Open("sqlite", "file:plan?mode=memory&cache=shared")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	drv, err := mapping.OpenPlanner(dialect.SQLite, db)
	require.NoError(t, err)
	s, err := zoo.MustConfig().ToAtlas(dialect.NewSQLite(), "main")
	require.NoError(t, err)
	stmts, err := mapping.PlanCreate(ctx, drv, s)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(stmts), 6)
	assert.True(t, strings.HasPrefix(stmts[0], "CREATE TABLE `zoos`"), stmts[0])
	for _, stmt := range stmts {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err, stmt)
	}

	_, err = mapping.OpenPlanner(dialect.SQLServer, db)
	assert.True(t, goliath.IsUnsupported(err))
}

func TestToAtlas_GuidKey(t *testing.T) {
	t.Parallel()

	cfg, err := mapping.Parse([]byte(`
entities:
  - name: Tag
    table: tags
    properties:
      - {name: Id, dbType: Guid, primaryKey: true}
      - {name: Label, dbType: String, length: 30}
`))
	require.NoError(t, err)
	for _, d := range []*dialect.Dialect{dialect.NewSQLite(), dialect.NewPostgres(), dialect.NewMySQL(), dialect.NewSQLServer()} {
		s, err := cfg.ToAtlas(d, "main")
		require.NoError(t, err, d.Name())
		tags, ok := s.Table("tags")
		require.True(t, ok)
		id, ok := tags.Column("Id")
		require.True(t, ok)
		assert.IsType(t, &schema.UUIDType{}, id.Type.Type, d.Name())
	}

	db, err := sql.Open("sqlite", "file:guid?mode=memory&cache=shared")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()
	drv, err := mapping.OpenPlanner(dialect.SQLite, db)
	require.NoError(t, err)
	s, err := cfg.ToAtlas(dialect.NewSQLite(), "main")
	require.NoError(t, err)
	stmts, err := mapping.PlanCreate(ctx, drv, s)
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "`Id` uuid NOT NULL")
	_, err = db.ExecContext(ctx, stmts[0])
	require.NoError(t, err)
}
