package filter

import (
	"fmt"
	"strings"

	goliath "github.com/malweka/GoliathData-sub002"
	"github.com/malweka/GoliathData-sub002/dialect"
)

// ParameterPrefix is the name prefix of the parameters bound by a filter.
// A clause at chain position i binds "qPm{i}".
const ParameterPrefix = "qPm"

// Operator is a comparison operator of a clause.
type Operator uint8

// Comparison operators.
const (
	Equal Operator = iota
	GreaterThan
	GreaterOrEquals
	LowerThan
	LowerOrEquals
	Like
	ILike
	NotEqual
	NotLike
	In
	IsNull
	IsNotNull
)

var operators = [...]string{
	Equal:           "=",
	GreaterThan:     ">",
	GreaterOrEquals: ">=",
	LowerThan:       "<",
	LowerOrEquals:   "<=",
	Like:            "LIKE",
	ILike:           "LIKE",
	NotEqual:        "<>",
	NotLike:         "NOT LIKE",
	In:              "IN",
	IsNull:          "IS NULL",
	IsNotNull:       "IS NOT NULL",
}

// String returns the SQL symbol of the operator.
func (o Operator) String() string {
	if int(o) < len(operators) {
		return operators[o]
	}
	return fmt.Sprintf("Operator(%d)", o)
}

// unary reports if the operator takes no right-hand side.
func (o Operator) unary() bool { return o == IsNull || o == IsNotNull }

// Join is the logical word placed before a clause.
type Join uint8

// Join words.
const (
	And Join = iota
	Or
)

func (j Join) String() string {
	if j == Or {
		return "OR"
	}
	return "AND"
}

// Clause is a single binary predicate of a filter chain. Exactly one of Value
// and Column is the right-hand side; unary operators have neither.
type Clause struct {
	// Join is fixed when the clause is added. It is dropped for the first
	// clause of a chain.
	Join Join
	// Left is the column on the left-hand side, optionally qualified by a
	// table alias ("z0.Name").
	Left string
	Op   Operator
	// Value is the literal compared against. In takes a []any.
	Value any
	// Column is a column compared against, instead of a literal.
	Column string
	// DbType is the explicit type of the bound parameter.
	DbType dialect.DbType
}

// Literal reports if the clause binds a parameter.
func (c *Clause) Literal() bool {
	return c.Column == "" && !c.Op.unary()
}

// Sort is an ORDER BY key.
type Sort struct {
	Column string
	Desc   bool
}

// Resolver maps a name used in a filter to the column it stands for. Query
// builders install one to turn property names into alias-qualified columns.
type Resolver func(name string) (string, error)

// Option configures a Filter.
type Option func(*Filter)

// WithResolver sets the resolver applied to left-hand and column operands.
func WithResolver(r Resolver) Option {
	return func(f *Filter) {
		f.resolve = r
	}
}

// Filter accumulates an ordered chain of predicates and sort keys. It renders
// flat, left to right, without grouping. A Filter is not safe for concurrent
// use.
type Filter struct {
	clauses []*Clause
	sorts   []Sort
	resolve Resolver
}

// New returns an empty filter.
func New(opts ...Option) *Filter {
	f := &Filter{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Where starts a predicate on column. On a non empty chain it is the same
// as And.
func (f *Filter) Where(column string) *Expression {
	return &Expression{filter: f, clause: &Clause{Join: And, Left: column}}
}

// And adds a predicate joined with AND.
func (f *Filter) And(column string) *Expression {
	return &Expression{filter: f, clause: &Clause{Join: And, Left: column}}
}

// Or adds a predicate joined with OR.
func (f *Filter) Or(column string) *Expression {
	return &Expression{filter: f, clause: &Clause{Join: Or, Left: column}}
}

// Add appends clauses as they are.
func (f *Filter) Add(clauses ...*Clause) *Filter {
	f.clauses = append(f.clauses, clauses...)
	return f
}

// Match appends predicates joined with AND.
func (f *Filter) Match(clauses ...*Clause) *Filter {
	for _, c := range clauses {
		c.Join = And
		f.clauses = append(f.clauses, c)
	}
	return f
}

// OrderBy adds a sort key.
func (f *Filter) OrderBy(column string, desc bool) *Filter {
	f.sorts = append(f.sorts, Sort{Column: column, Desc: desc})
	return f
}

// Clauses returns the predicate chain.
func (f *Filter) Clauses() []*Clause { return f.clauses }

// Sorts returns the sort keys.
func (f *Filter) Sorts() []Sort { return f.sorts }

// Len returns the number of predicates.
func (f *Filter) Len() int { return len(f.clauses) }

// Empty reports if the filter has no predicates.
func (f *Filter) Empty() bool { return len(f.clauses) == 0 }

// Clone returns a copy of the filter that can be extended independently.
func (f *Filter) Clone() *Filter {
	c := &Filter{resolve: f.resolve, sorts: append([]Sort(nil), f.sorts...)}
	c.clauses = make([]*Clause, len(f.clauses))
	for i, cl := range f.clauses {
		cp := *cl
		c.clauses[i] = &cp
	}
	return c
}

// Build renders the predicate chain, without the WHERE keyword, and the
// parameters it binds. An empty filter renders an empty string.
func (f *Filter) Build(d *dialect.Dialect) (string, []dialect.Parameter, error) {
	var (
		b      strings.Builder
		params []dialect.Parameter
	)
	for i, c := range f.clauses {
		if i > 0 {
			b.WriteString(" ")
			b.WriteString(c.Join.String())
			b.WriteString(" ")
		}
		ps, err := f.render(&b, d, i, c)
		if err != nil {
			return "", nil, err
		}
		params = append(params, ps...)
	}
	return b.String(), params, nil
}

// BuildNonQuery renders the chain for an UPDATE or DELETE on table. Such
// statements are never unscoped: an empty filter is a PreconditionError.
func (f *Filter) BuildNonQuery(d *dialect.Dialect, table string) (string, []dialect.Parameter, error) {
	if f == nil || f.Empty() {
		return "", nil, goliath.NewPreconditionError(table, "statement requires at least one filter predicate")
	}
	return f.Build(d)
}

// BuildOrderBy renders the sort keys, without the ORDER BY keyword.
func (f *Filter) BuildOrderBy(d *dialect.Dialect) (string, error) {
	keys := make([]string, len(f.sorts))
	for i, s := range f.sorts {
		col, err := f.column(d, s.Column)
		if err != nil {
			return "", err
		}
		if s.Desc {
			keys[i] = col + " DESC"
		} else {
			keys[i] = col + " ASC"
		}
	}
	return strings.Join(keys, ", "), nil
}

func (f *Filter) render(b *strings.Builder, d *dialect.Dialect, i int, c *Clause) ([]dialect.Parameter, error) {
	left, err := f.column(d, c.Left)
	if err != nil {
		return nil, err
	}
	switch {
	case c.Op.unary():
		fmt.Fprintf(b, "%s %s", left, c.Op)
		return nil, nil
	case c.Column != "":
		right, err := f.column(d, c.Column)
		if err != nil {
			return nil, err
		}
		if c.Op == ILike {
			return nil, lower(b, d, left, right)
		}
		fmt.Fprintf(b, "%s %s %s", left, c.Op, right)
		return nil, nil
	case c.Op == In:
		values, ok := c.Value.([]any)
		if !ok || len(values) == 0 {
			return nil, goliath.NewPreconditionError(c.Left, "IN requires at least one value")
		}
		// One placeholder per element, named qPm{i}_{j}, as drivers bind scalars only.
		params := make([]dialect.Parameter, len(values))
		names := make([]string, len(values))
		for j, v := range values {
			params[j] = dialect.Parameter{Name: fmt.Sprintf("%s%d_%d", ParameterPrefix, i, j), Value: v, DbType: c.DbType}
			names[j] = d.CreateParameterName(params[j].Name)
		}
		fmt.Fprintf(b, "%s IN (%s)", left, strings.Join(names, ", "))
		return params, nil
	}
	p := dialect.Parameter{Name: fmt.Sprintf("%s%d", ParameterPrefix, i), Value: c.Value, DbType: c.DbType}
	if c.Op == ILike {
		return []dialect.Parameter{p}, lower(b, d, left, d.CreateParameterName(p.Name))
	}
	fmt.Fprintf(b, "%s %s %s", left, c.Op, d.CreateParameterName(p.Name))
	return []dialect.Parameter{p}, nil
}

func lower(b *strings.Builder, d *dialect.Dialect, left, right string) error {
	l, err := d.CallFunction("LOWER", left)
	if err != nil {
		return err
	}
	r, err := d.CallFunction("LOWER", right)
	if err != nil {
		return err
	}
	fmt.Fprintf(b, "%s LIKE %s", l, r)
	return nil
}

// column resolves and escapes a column operand. A qualifier before the last
// dot is an alias and stays unquoted.
func (f *Filter) column(d *dialect.Dialect, name string) (string, error) {
	if f.resolve != nil {
		resolved, err := f.resolve(name)
		if err != nil {
			return "", err
		}
		name = resolved
	}
	return Qualify(d, name), nil
}

// Qualify escapes an optionally alias-qualified column: "z0.Name" renders
// as z0.[Name] on SQL Server.
func Qualify(d *dialect.Dialect, name string) string {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[:i+1] + d.Escape(name[i+1:], dialect.KindColumn)
	}
	return d.Escape(name, dialect.KindColumn)
}

// Expression is a predicate under construction. Completing it with an
// operator method appends it to its filter.
type Expression struct {
	filter *Filter
	clause *Clause
}

// Type sets the explicit DbType of the bound parameter.
func (e *Expression) Type(t dialect.DbType) *Expression {
	e.clause.DbType = t
	return e
}

func (e *Expression) value(op Operator, v any) *Filter {
	e.clause.Op = op
	e.clause.Value = v
	e.filter.clauses = append(e.filter.clauses, e.clause)
	return e.filter
}

func (e *Expression) column(op Operator, column string) *Filter {
	e.clause.Op = op
	e.clause.Column = column
	e.filter.clauses = append(e.filter.clauses, e.clause)
	return e.filter
}

// EqualTo completes the predicate with "= v".
func (e *Expression) EqualTo(v any) *Filter { return e.value(Equal, v) }

// NotEqualTo completes the predicate with "<> v".
func (e *Expression) NotEqualTo(v any) *Filter { return e.value(NotEqual, v) }

// GreaterThan completes the predicate with "> v".
func (e *Expression) GreaterThan(v any) *Filter { return e.value(GreaterThan, v) }

// GreaterOrEqualTo completes the predicate with ">= v".
func (e *Expression) GreaterOrEqualTo(v any) *Filter { return e.value(GreaterOrEquals, v) }

// LowerThan completes the predicate with "< v".
func (e *Expression) LowerThan(v any) *Filter { return e.value(LowerThan, v) }

// LowerOrEqualTo completes the predicate with "<= v".
func (e *Expression) LowerOrEqualTo(v any) *Filter { return e.value(LowerOrEquals, v) }

// Like completes the predicate with "LIKE pattern".
func (e *Expression) Like(pattern string) *Filter { return e.value(Like, pattern) }

// ILike completes the predicate with a case insensitive LIKE.
func (e *Expression) ILike(pattern string) *Filter { return e.value(ILike, pattern) }

// NotLike completes the predicate with "NOT LIKE pattern".
func (e *Expression) NotLike(pattern string) *Filter { return e.value(NotLike, pattern) }

// In completes the predicate with "IN (values...)".
func (e *Expression) In(values ...any) *Filter { return e.value(In, values) }

// IsNull completes the predicate with "IS NULL".
func (e *Expression) IsNull() *Filter { return e.value(IsNull, nil) }

// IsNotNull completes the predicate with "IS NOT NULL".
func (e *Expression) IsNotNull() *Filter { return e.value(IsNotNull, nil) }

// Compare completes the predicate against another column.
func (e *Expression) Compare(op Operator, column string) *Filter { return e.column(op, column) }

// EqualToColumn completes the predicate with "= column".
func (e *Expression) EqualToColumn(column string) *Filter { return e.column(Equal, column) }
