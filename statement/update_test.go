package statement_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goliath "github.com/malweka/GoliathData-sub002"
	"github.com/malweka/GoliathData-sub002/dialect"
	"github.com/malweka/GoliathData-sub002/filter"
	"github.com/malweka/GoliathData-sub002/internal/zoo"
	"github.com/malweka/GoliathData-sub002/statement"
)

func TestUpdate_RequiresFilter(t *testing.T) {
	t.Parallel()

	z := &zoo.Zoo{Id: 1, Name: "SD Zoo"}
	_, err := statement.NewUpdate(dialect.NewSQLServer(), entity(t, "Zoo"), z).Build()
	require.Error(t, err)
	assert.True(t, goliath.IsPrecondition(err))
	assert.Contains(t, err.Error(), "zoos")

	// WhereKey needs an assigned key.
	_, err = statement.NewUpdate(dialect.NewSQLServer(), entity(t, "Zoo"), &zoo.Zoo{}).WhereKey().Build()
	require.Error(t, err)
	assert.True(t, goliath.IsPrecondition(err))
}

func TestUpdate_Untracked(t *testing.T) {
	t.Parallel()

	z := &zoo.Zoo{Id: 1, Name: "SD Zoo", AcceptNewAnimals: true}
	b := statement.NewUpdate(dialect.NewSQLServer(), entity(t, "Zoo"), z)
	b.Where("Id").EqualTo(1)
	list, err := b.Build()
	require.NoError(t, err)
	require.Equal(t, 1, list.Len())
	up := list.Operations[0].(*statement.UpdateInfo)
	assert.Equal(t,
		"UPDATE [zoos] SET [Name] = @Name, [City] = @City, [AcceptNewAnimals] = @AcceptNewAnimals WHERE [Id] = @qPm0",
		up.SQL())
	params := up.Parameters()
	require.Len(t, params, 4)
	assert.Equal(t, "qPm0", params[3].Name)
	assert.Equal(t, 1, params[3].Value)
	assert.Equal(t, true, params[2].Value)
}

func TestUpdate_Tracked(t *testing.T) {
	t.Parallel()

	z := &zoo.Zoo{Id: 1, Name: "SD Zoo"}
	tr := z.ChangeTracker()
	tr.Init(map[string]any{"Name": z.Name, "City": z.City, "AcceptNewAnimals": false}, "Name", "City", "AcceptNewAnimals")
	tr.Start()

	z.SetName("LA Zoo")
	z.SetName("SD Zoo")
	z.SetCity("San Diego")

	list, err := statement.NewUpdate(dialect.NewSQLServer(), entity(t, "Zoo"), z).WhereKey().Build()
	require.NoError(t, err)
	require.Equal(t, 1, list.Len())
	up := list.Operations[0].(*statement.UpdateInfo)
	assert.Equal(t, "UPDATE [zoos] SET [City] = @City WHERE [Id] = @qPm0", up.SQL())
	assert.Equal(t, []string{"City"}, columns(up.Bindings))
	assert.Equal(t, "San Diego", *up.Bindings[0].Parameter.Value.(*string))
	require.Len(t, up.WhereParameters, 1)
	assert.Equal(t, dialect.TypeInt32, up.WhereParameters[0].DbType)

	// Fields assigned without the setters are picked up too.
	z.AcceptNewAnimals = true
	list, err = statement.NewUpdate(dialect.NewSQLServer(), entity(t, "Zoo"), z).WhereKey().Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"City", "AcceptNewAnimals"}, columns(list.Operations[0].(*statement.UpdateInfo).Bindings))

	tr.Reset()
	list, err = statement.NewUpdate(dialect.NewSQLServer(), entity(t, "Zoo"), z).WhereKey().Build()
	require.NoError(t, err)
	assert.True(t, list.Empty())
}

func TestUpdate_Inheritance(t *testing.T) {
	t.Parallel()

	t.Run("Tracked", func(t *testing.T) {
		m := &zoo.Monkey{Animal: zoo.Animal{Id: 1, Name: "George"}}
		tr := m.ChangeTracker()
		tr.Init(map[string]any{"Name": m.Name, "Family": m.Family}, "Name", "Family")
		tr.Start()
		m.Name = "Curious George"
		m.Family = zoo.Ptr("Cebidae")

		list, err := statement.NewUpdate(dialect.NewSQLServer(), entity(t, "Monkey"), m).WhereKey().Build()
		require.NoError(t, err)
		assert.Equal(t, []string{"animals", "monkeys"}, list.Tables())
		require.Len(t, list.Before, 1)
		assert.Equal(t, "Animal", list.Before[0].Entity)
		ops := list.Flatten()
		assert.Equal(t, "UPDATE [animals] SET [Name] = @Name WHERE [Id] = @qPm0", ops[0].SQL())
		assert.Equal(t, "UPDATE [monkeys] SET [Family] = @Family WHERE [Id] = @qPm0", ops[1].SQL())
		assert.Equal(t, 1, ops[0].Parameters()[1].Value)
	})
	t.Run("Untracked", func(t *testing.T) {
		m := &zoo.Monkey{Animal: zoo.Animal{Id: 1, Name: "George", Zoo: &zoo.Zoo{Id: 3}}}
		f := filter.New().Where("Id").EqualTo(1)
		list, err := statement.NewUpdate(dialect.NewSQLServer(), entity(t, "Monkey"), m, statement.WithFilter(f)).Build()
		require.NoError(t, err)
		ops := list.Flatten()
		require.Len(t, ops, 2)
		parent := ops[0].(*statement.UpdateInfo)
		// ReceivedOn is ignored on update.
		assert.Equal(t, []string{"Name", "Age", "Location", "ZooId"}, columns(parent.Bindings))
		assert.Equal(t, 3, parent.Bindings[3].Parameter.Value)
		assert.Equal(t, []string{"Family", "CanDoTricks"}, columns(ops[1].(*statement.UpdateInfo).Bindings))
	})
}

func TestUpdate_SkippedColumns(t *testing.T) {
	t.Parallel()

	a := &zoo.Animal{Id: 4, Name: "Rex"}
	tr := a.ChangeTracker()
	tr.Init(map[string]any{"Id": a.Id, "ReceivedOn": a.ReceivedOn}, "Id", "ReceivedOn")
	tr.Start()
	a.Id = 5
	now := time.Now()
	a.ReceivedOn = &now

	list, err := statement.NewUpdate(dialect.NewSQLServer(), entity(t, "Animal"), a).WhereKey().Build()
	require.NoError(t, err)
	assert.True(t, list.Empty())
}

func TestUpdate_ManyToOne(t *testing.T) {
	t.Parallel()

	a := &zoo.Animal{Id: 4, Name: "Rex"}
	tr := a.ChangeTracker()
	tr.Init(map[string]any{"Zoo": a.Zoo}, "Zoo")
	tr.Start()

	a.Zoo = &zoo.Zoo{Id: 9}
	list, err := statement.NewUpdate(dialect.NewSQLServer(), entity(t, "Animal"), a).WhereKey().Build()
	require.NoError(t, err)
	up := list.Operations[0].(*statement.UpdateInfo)
	assert.Equal(t, "UPDATE [animals] SET [ZooId] = @Zoo WHERE [Id] = @qPm0", up.SQL())
	assert.Equal(t, 9, up.Bindings[0].Parameter.Value)

	// An unsaved target is inserted first.
	a.Zoo = &zoo.Zoo{Name: "LA Zoo"}
	list, err = statement.NewUpdate(dialect.NewSQLServer(), entity(t, "Animal"), a).WhereKey().Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"zoos", "animals"}, list.Tables())
	ops := list.Flatten()
	require.NoError(t, ops[0].(*statement.InsertInfo).SetKey(12))
	assert.Equal(t, 12, resolve(t, ops[1].(*statement.UpdateInfo).Bindings[0].Parameter))
}

func TestUpdate_ManyToMany(t *testing.T) {
	t.Parallel()

	a1, a2 := &zoo.Animal{Id: 1}, &zoo.Animal{Id: 2}
	emp := &zoo.Employee{Id: 5, Name: "Jane", AssignedAnimals: []*zoo.Animal{a1, a2}}
	tr := emp.ChangeTracker()
	tr.Init(map[string]any{"AssignedAnimals": emp.AssignedAnimals}, "AssignedAnimals")
	tr.Start()

	emp.AssignedAnimals = []*zoo.Animal{a2, {Id: 3}}
	list, err := statement.NewUpdate(dialect.NewSQLServer(), entity(t, "Employee"), emp).WhereKey().Build()
	require.NoError(t, err)
	assert.Empty(t, list.Operations)
	require.Len(t, list.After, 1)
	assert.Equal(t, []string{"animals_employees", "animals_employees"}, list.Tables())

	ops := list.Flatten()
	ins := ops[0].(*statement.InsertInfo)
	assert.Equal(t, "INSERT INTO [animals_employees] ([EmployeeId], [AnimalId]) VALUES (@EmployeeId, @AnimalId)", ins.SQL())
	assert.Equal(t, 5, ins.Bindings[0].Parameter.Value)
	assert.Equal(t, 3, ins.Bindings[1].Parameter.Value)

	del := ops[1].(*statement.DeleteInfo)
	assert.Equal(t, "DELETE FROM [animals_employees] WHERE [EmployeeId] = @qPm0 AND [AnimalId] = @qPm1", del.SQL())
	require.Len(t, del.Parameters(), 2)
	assert.Equal(t, 5, del.Parameters()[0].Value)
	assert.Equal(t, 1, del.Parameters()[1].Value)
}

func TestUpdate_UnmappedTrackedProperty(t *testing.T) {
	t.Parallel()

	z := &zoo.Zoo{Id: 1}
	tr := z.ChangeTracker()
	tr.Init(map[string]any{"Visitors": 10})
	tr.Start()
	_, err := statement.NewUpdate(dialect.NewSQLServer(), entity(t, "Zoo"), z).WhereKey().Build()
	require.Error(t, err)
	assert.True(t, goliath.IsMappingError(err))
	assert.Contains(t, err.Error(), "Visitors")
}

func TestUpdate_Deterministic(t *testing.T) {
	t.Parallel()

	m := &zoo.Monkey{Animal: zoo.Animal{Id: 1, Name: "George"}}
	b := statement.NewUpdate(dialect.NewPostgres(), entity(t, "Monkey"), m)
	b.Where("CanDoTricks").EqualTo(false)
	b.WhereKey()
	first, err := b.Build()
	require.NoError(t, err)
	m.Name = "Curious George"
	second, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, first.Tables(), second.Tables())
	for i, op := range first.Flatten() {
		assert.Equal(t, op.SQL(), second.Flatten()[i].SQL())
	}
	assert.Equal(t, `UPDATE "monkeys" SET "Family" = @Family, "CanDoTricks" = @CanDoTricks WHERE "CanDoTricks" = @qPm0 AND "Id" = @qPm1`,
		first.Operations[0].SQL())
	assert.Equal(t, 1, b.Filter().Len())
}
