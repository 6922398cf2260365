package filter_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goliath "github.com/malweka/GoliathData-sub002"
	"github.com/malweka/GoliathData-sub002/dialect"
	"github.com/malweka/GoliathData-sub002/filter"
)

func TestBuild(t *testing.T) {
	t.Parallel()

	d := dialect.NewSQLServer()
	tests := []struct {
		name   string
		filter *filter.Filter
		want   string
		params []string
	}{
		{
			name:   "Single",
			filter: filter.New().Where("Name").EqualTo("SD Zoo"),
			want:   "[Name] = @qPm0",
			params: []string{"qPm0"},
		},
		{
			name: "FirstJoinDropped",
			filter: filter.New().
				Or("Name").EqualTo("SD Zoo").
				And("Age").GreaterOrEqualTo(3).
				Or("Age").LowerThan(1),
			want:   "[Name] = @qPm0 AND [Age] >= @qPm1 OR [Age] < @qPm2",
			params: []string{"qPm0", "qPm1", "qPm2"},
		},
		{
			name: "Unary",
			filter: filter.New().
				Where("City").IsNull().
				And("Name").IsNotNull().
				And("Name").NotEqualTo("x"),
			want:   "[City] IS NULL AND [Name] IS NOT NULL AND [Name] <> @qPm2",
			params: []string{"qPm2"},
		},
		{
			name: "ColumnOperand",
			filter: filter.New().
				Where("a1.ZooId").EqualToColumn("z0.Id").
				And("z0.Name").Like("SD%"),
			want:   "a1.[ZooId] = z0.[Id] AND z0.[Name] LIKE @qPm1",
			params: []string{"qPm1"},
		},
		{
			name:   "In",
			filter: filter.New().Where("Id").LowerOrEqualTo(9).And("Id").In(1, 2, 3),
			want:   "[Id] <= @qPm0 AND [Id] IN (@qPm1_0, @qPm1_1, @qPm1_2)",
			params: []string{"qPm0", "qPm1_0", "qPm1_1", "qPm1_2"},
		},
		{
			name:   "ILike",
			filter: filter.New().Where("Name").ILike("sd%").And("Name").NotLike("%zoo"),
			want:   "LOWER([Name]) LIKE LOWER(@qPm0) AND [Name] NOT LIKE @qPm1",
			params: []string{"qPm0", "qPm1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, params, err := tt.filter.Build(d)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			names := make([]string, len(params))
			for i, p := range params {
				names[i] = p.Name
			}
			assert.Equal(t, tt.params, names)
		})
	}
}

func TestBuild_ParameterPositions(t *testing.T) {
	t.Parallel()

	// Parameters follow chain positions, whatever the mix of clauses.
	d := dialect.NewPostgres()
	f := filter.New()
	literals := 0
	for i := 0; i < 12; i++ {
		switch i % 3 {
		case 0:
			f.And(fmt.Sprintf("c%d", i)).EqualTo(i)
			literals++
		case 1:
			f.Or(fmt.Sprintf("c%d", i)).EqualToColumn("other")
		default:
			f.And(fmt.Sprintf("c%d", i)).IsNull()
		}
	}
	where, params, err := f.Build(d)
	require.NoError(t, err)
	require.Len(t, params, literals)
	for _, p := range params {
		var pos int
		_, err := fmt.Sscanf(p.Name, "qPm%d", &pos)
		require.NoError(t, err)
		assert.Equal(t, pos, p.Value)
		assert.Contains(t, where, fmt.Sprintf(`"c%d" = @%s`, pos, p.Name))
	}
}

func TestBuild_Values(t *testing.T) {
	t.Parallel()

	f := filter.New().Where("Id").Type(dialect.TypeInt64).EqualTo(7)
	_, params, err := f.Build(dialect.NewSQLite())
	require.NoError(t, err)
	require.Len(t, params, 1)
	assert.Equal(t, dialect.Parameter{Name: "qPm0", Value: 7, DbType: dialect.TypeInt64}, params[0])
}

func TestBuild_InParameters(t *testing.T) {
	t.Parallel()

	f := filter.New().
		Where("Name").EqualTo("Leo").
		And("Id").Type(dialect.TypeInt32).In(3, 5)
	where, params, err := f.Build(dialect.NewSQLite())
	require.NoError(t, err)
	assert.Equal(t, "[Name] = @qPm0 AND [Id] IN (@qPm1_0, @qPm1_1)", where)
	assert.Equal(t, []dialect.Parameter{
		{Name: "qPm0", Value: "Leo"},
		{Name: "qPm1_0", Value: 3, DbType: dialect.TypeInt32},
		{Name: "qPm1_1", Value: 5, DbType: dialect.TypeInt32},
	}, params)
}

func TestBuild_Errors(t *testing.T) {
	t.Parallel()

	d := dialect.NewSQLServer()
	_, _, err := filter.New().Where("Id").In().Build(d)
	require.Error(t, err)
	assert.True(t, goliath.IsPrecondition(err))

	resolveErr := goliath.NewMappingError("Zoo", "Visitors", "property is not mapped")
	f := filter.New(filter.WithResolver(func(string) (string, error) { return "", resolveErr }))
	_, _, err = f.Where("Visitors").EqualTo(1).Build(d)
	require.ErrorIs(t, err, resolveErr)
}

func TestBuildNonQuery(t *testing.T) {
	t.Parallel()

	d := dialect.NewSQLServer()
	_, _, err := filter.New().BuildNonQuery(d, "zoos")
	require.Error(t, err)
	assert.True(t, goliath.IsPrecondition(err))
	assert.Contains(t, err.Error(), "zoos")

	var nilFilter *filter.Filter
	_, _, err = nilFilter.BuildNonQuery(d, "zoos")
	assert.True(t, goliath.IsPrecondition(err))

	where, params, err := filter.New().Where("Id").EqualTo(1).BuildNonQuery(d, "zoos")
	require.NoError(t, err)
	assert.Equal(t, "[Id] = @qPm0", where)
	assert.Len(t, params, 1)
}

func TestBuildOrderBy(t *testing.T) {
	t.Parallel()

	d := dialect.NewMySQL()
	f := filter.New().OrderBy("z0.Name", false).OrderBy("Id", true)
	got, err := f.BuildOrderBy(d)
	require.NoError(t, err)
	assert.Equal(t, "z0.`Name` ASC, `Id` DESC", got)

	got, err = filter.New().BuildOrderBy(d)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolver(t *testing.T) {
	t.Parallel()

	columns := map[string]string{"Name": "z0.Name", "City": "z0.Town"}
	f := filter.New(filter.WithResolver(func(name string) (string, error) {
		if c, ok := columns[name]; ok {
			return c, nil
		}
		return name, nil
	}))
	f.Where("Name").EqualTo("SD Zoo").And("City").EqualToColumn("Name").OrderBy("City", false)
	where, _, err := f.Build(dialect.NewSQLServer())
	require.NoError(t, err)
	assert.Equal(t, "z0.[Name] = @qPm0 AND z0.[Town] = z0.[Name]", where)
	order, err := f.BuildOrderBy(dialect.NewSQLServer())
	require.NoError(t, err)
	assert.Equal(t, "z0.[Town] ASC", order)
}

func TestClone(t *testing.T) {
	t.Parallel()

	base := filter.New().Where("Id").EqualTo(1)
	c := base.Clone().And("Name").EqualTo("x")
	assert.Equal(t, 1, base.Len())
	assert.Equal(t, 2, c.Len())
	c.Clauses()[0].Value = 2
	assert.Equal(t, 1, base.Clauses()[0].Value)
}

func TestFields(t *testing.T) {
	t.Parallel()

	var (
		name = filter.StringField("Name")
		age  = filter.Field[int]("Age")
	)
	f := filter.New().Match(
		name.HasPrefix("SD"),
		name.ContainsFold("zoo"),
		age.GT(3),
		age.In(4, 5),
		name.NotNull(),
	)
	where, params, err := f.Build(dialect.NewPostgres())
	require.NoError(t, err)
	want := []string{
		`"Name" LIKE @qPm0`,
		`LOWER("Name") LIKE LOWER(@qPm1)`,
		`"Age" > @qPm2`,
		`"Age" IN (@qPm3_0, @qPm3_1)`,
		`"Name" IS NOT NULL`,
	}
	assert.Equal(t, strings.Join(want, " AND "), where)
	require.Len(t, params, 5)
	assert.Equal(t, "SD%", params[0].Value)
	assert.Equal(t, "%zoo%", params[1].Value)
	assert.Equal(t, 4, params[3].Value)
}

func TestOperatorString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "<>", filter.NotEqual.String())
	assert.Equal(t, "IS NOT NULL", filter.IsNotNull.String())
	assert.Equal(t, "Operator(99)", filter.Operator(99).String())
}
