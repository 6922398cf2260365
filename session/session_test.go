package session_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	goliath "github.com/malweka/GoliathData-sub002"
	"github.com/malweka/GoliathData-sub002/dialect"
	gsql "github.com/malweka/GoliathData-sub002/dialect/sql"
	"github.com/malweka/GoliathData-sub002/dialect/sql/schema"
	"github.com/malweka/GoliathData-sub002/filter"
	"github.com/malweka/GoliathData-sub002/internal/zoo"
	"github.com/malweka/GoliathData-sub002/lazy"
	"github.com/malweka/GoliathData-sub002/session"
	"github.com/malweka/GoliathData-sub002/tracking"
)

func open(t *testing.T) *session.Session {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	drv := gsql.OpenDB(dialect.NewSQLite(), db)
	cfg := zoo.MustConfig()
	require.NoError(t, schema.NewMigrate(drv).Create(context.Background(), cfg))
	s, err := session.New(cfg, drv)
	require.NoError(t, err)
	return s
}

func count(t *testing.T, s *session.Session, table string) int64 {
	t.Helper()
	v, err := s.Executor().ExecuteScalar(context.Background(), "SELECT COUNT(*) FROM "+table, nil)
	require.NoError(t, err)
	return v.(int64)
}

func TestSession_InsertAndGet(t *testing.T) {
	s := open(t)
	ctx := context.Background()

	z := &zoo.Zoo{Name: "SD Zoo", City: zoo.Ptr("San Diego"), AcceptNewAnimals: true}
	m := &zoo.Monkey{Animal: zoo.Animal{Name: "George", Zoo: z}, Family: zoo.Ptr("Cebidae"), CanDoTricks: true}
	require.NoError(t, s.Insert(ctx, m))
	require.Positive(t, z.Id)
	require.Positive(t, m.Id)
	assert.True(t, tracking.Of(m).IsTracking())
	assert.False(t, tracking.Of(m).HasChanges())

	got, err := session.Get[zoo.Monkey](ctx, s, m.Id)
	require.NoError(t, err)
	assert.Equal(t, "George", got.Name)
	assert.Equal(t, "Cebidae", *got.Family)
	assert.True(t, got.CanDoTricks)
	assert.True(t, tracking.Of(got).IsTracking())

	_, err = session.Get[zoo.Monkey](ctx, s, 404)
	assert.True(t, goliath.IsLookupError(err))

	_, err = session.Get[struct{ Id int }](ctx, s, 1)
	assert.True(t, goliath.IsMappingError(err))
}

func TestSession_UpdateTracked(t *testing.T) {
	s := open(t)
	ctx := context.Background()

	z := &zoo.Zoo{Name: "SD Zoo"}
	require.NoError(t, s.Insert(ctx, z))
	z.SetCity("San Diego")
	z.Name = "San Diego Zoo"
	require.True(t, tracking.Of(z).HasChanges())
	require.NoError(t, s.Update(ctx, z))
	assert.False(t, tracking.Of(z).HasChanges())

	got, err := session.Get[zoo.Zoo](ctx, s, z.Id)
	require.NoError(t, err)
	assert.Equal(t, "San Diego Zoo", got.Name)
	assert.Equal(t, "San Diego", *got.City)

	// Nothing changed: no statement runs.
	require.NoError(t, s.Update(ctx, got))
}

func TestSession_ManyToMany(t *testing.T) {
	s := open(t)
	ctx := context.Background()

	e := &zoo.Employee{
		Name: "Jane",
		AssignedAnimals: []*zoo.Animal{
			{Name: "Dumbo"},
			{Name: "Leo"},
		},
	}
	require.NoError(t, s.Insert(ctx, e))
	assert.Equal(t, int64(2), count(t, s, "animals"))
	assert.Equal(t, int64(2), count(t, s, "animals_employees"))

	e.AssignedAnimals = e.AssignedAnimals[:1]
	require.NoError(t, s.Update(ctx, e))
	assert.Equal(t, int64(1), count(t, s, "animals_employees"))
	assert.Equal(t, int64(2), count(t, s, "animals"))

	require.NoError(t, s.Delete(ctx, e))
	assert.Equal(t, int64(0), count(t, s, "animals_employees"))
	assert.Equal(t, int64(0), count(t, s, "employees"))
	assert.False(t, tracking.Of(e).IsTracking())
}

func TestSession_FindAndLoad(t *testing.T) {
	s := open(t)
	ctx := context.Background()

	z := &zoo.Zoo{Name: "SD Zoo"}
	require.NoError(t, s.Insert(ctx, z))
	for _, name := range []string{"Dumbo", "Leo", "Kaa"} {
		require.NoError(t, s.Insert(ctx, &zoo.Animal{Name: name, Zoo: z}))
	}
	require.NoError(t, s.Insert(ctx, &zoo.Animal{Name: "Stray"}))

	b, err := s.Query("Animal")
	require.NoError(t, err)
	b.Where("Zoo.Name").EqualTo("SD Zoo")
	b.OrderBy("Name", false)
	animals, err := session.Find[zoo.Animal](ctx, s, b)
	require.NoError(t, err)
	require.Len(t, animals, 3)
	assert.Equal(t, []string{"Dumbo", "Kaa", "Leo"}, []string{animals[0].Name, animals[1].Name, animals[2].Name})
	n, err := s.Count(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	loaded := &zoo.Zoo{Id: z.Id}
	require.NoError(t, s.LoadMany(ctx, loaded, "Animals"))
	require.Len(t, loaded.Animals, 3)
	for _, a := range loaded.Animals {
		assert.Same(t, loaded, a.Zoo)
	}
	assert.True(t, goliath.IsMappingError(s.LoadMany(ctx, loaded, "Name")))

	keys := []any{animals[2].Id, 404, animals[0].Id}
	many, errs := session.GetMany[zoo.Animal](ctx, s, keys)
	require.Len(t, many, 3)
	assert.Equal(t, "Leo", many[0].Name)
	assert.Nil(t, many[1])
	assert.True(t, goliath.IsLookupError(errs[1]))
	assert.Equal(t, "Dumbo", many[2].Name)
	assert.NoError(t, errs[0])

	f := filter.New()
	f.Where("Name").EqualTo("Stray")
	require.NoError(t, s.DeleteWhere(ctx, "Animal", f))
	assert.Equal(t, int64(3), count(t, s, "animals"))
}

func TestSession_Lazy(t *testing.T) {
	s := open(t)
	ctx := context.Background()

	z := &zoo.Zoo{Name: "SD Zoo", AcceptNewAnimals: true}
	require.NoError(t, s.Insert(ctx, z))

	ref, err := session.Lazy(s, &zoo.Zoo{Id: z.Id})
	require.NoError(t, err)
	assert.Equal(t, lazy.NotLoaded, ref.State())
	got, err := ref.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, lazy.Loaded, ref.State())
	assert.Equal(t, "SD Zoo", got.Name)
	assert.True(t, got.AcceptNewAnimals)

	missing, err := session.Lazy(s, &zoo.Zoo{Id: 404})
	require.NoError(t, err)
	_, err = missing.Get(ctx)
	assert.True(t, goliath.IsLookupError(err))
	assert.Equal(t, lazy.NotLoaded, missing.State())

	err = s.Hydrate(ctx, &zoo.Zoo{}, "Zoo")
	assert.True(t, goliath.IsPrecondition(err))
}

func TestSession_Tx(t *testing.T) {
	s := open(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.Tx(ctx, func(tx *session.Session) error {
		if err := tx.Insert(ctx, &zoo.Zoo{Name: "SD Zoo"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int64(0), count(t, s, "zoos"))

	require.NoError(t, s.Tx(ctx, func(tx *session.Session) error {
		return tx.Insert(ctx, &zoo.Zoo{Name: "SD Zoo"})
	}))
	assert.Equal(t, int64(1), count(t, s, "zoos"))

	exec := gsql.NewExecutor(s.Dialect(), s.Executor().Conn())
	plain, err := session.NewWithExecutor(s.Config(), exec)
	require.NoError(t, err)
	assert.Error(t, plain.Tx(ctx, func(*session.Session) error { return nil }))
}
