package query

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	goliath "github.com/malweka/GoliathData-sub002"
	"github.com/malweka/GoliathData-sub002/dialect"
	"github.com/malweka/GoliathData-sub002/filter"
	"github.com/malweka/GoliathData-sub002/mapping"
)

// JoinKind is the SQL join used to reach a related table.
type JoinKind string

// Join kinds.
const (
	LeftJoin  JoinKind = "LEFT JOIN"
	InnerJoin JoinKind = "INNER JOIN"
)

// SelectedColumn describes one column of a select list. Label is unique in
// the statement, so a flat row can be split back into the entities it holds.
type SelectedColumn struct {
	// Alias is the alias of the table the column is read from.
	Alias string
	// Path is the relation the table was joined through, empty for the
	// queried entity and its ancestors.
	Path     string
	Entity   string
	Property string
	Column   string
	Label    string
	// Relation is set for foreign key columns of ManyToOne relations.
	Relation bool
}

// Reference returns the alias-qualified column, as used in statement
// templates.
func (c SelectedColumn) Reference() string { return ColumnReference(c.Alias, c.Column) }

// ColumnReference returns the {alias}.{column} form of a column.
func ColumnReference(alias, column string) string { return alias + "." + column }

// Label returns the {alias}_{property} label of a selected column.
func Label(alias, property string) string { return alias + "_" + property }

// Statement is a rendered SELECT.
type Statement struct {
	SQL        string
	Parameters []dialect.Parameter
	Columns    []SelectedColumn
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger receiving debug records of built queries.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = l
	}
}

// WithFilter sets the filter the query starts from.
func WithFilter(f *filter.Filter) Option {
	return func(b *Builder) {
		b.filter = f
	}
}

// Builder builds the SELECT statements of one entity. Names used in its
// filter are property names, optionally prefixed by a relation path
// ("Zoo.Name"), or alias-qualified columns ("m0.Id").
//
// ManyToOne relations not marked lazy are joined eagerly with a LEFT JOIN;
// an entity extending another one joins its ancestors on the shared key.
// Table aliases are the first letter of the entity name followed by the
// position of the table in the statement.
type Builder struct {
	dialect  *dialect.Dialect
	entity   *mapping.EntityMap
	filter   *filter.Filter
	paging   dialect.PagingInfo
	deferred map[string]bool
	joins    map[string]JoinKind
	logger   *slog.Logger
}

// New returns a query builder on entity.
func New(d *dialect.Dialect, entity *mapping.EntityMap, opts ...Option) *Builder {
	b := &Builder{
		dialect:  d,
		entity:   entity,
		deferred: make(map[string]bool),
		joins:    make(map[string]JoinKind),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.filter == nil {
		b.filter = filter.New()
	}
	return b
}

// Filter returns the filter of the query.
func (b *Builder) Filter() *filter.Filter { return b.filter }

// Entity returns the queried entity.
func (b *Builder) Entity() *mapping.EntityMap { return b.entity }

// Where starts a predicate joined with AND.
func (b *Builder) Where(name string) *filter.Expression { return b.filter.And(name) }

// OrderBy adds a sort key.
func (b *Builder) OrderBy(name string, desc bool) *Builder {
	b.filter.OrderBy(name, desc)
	return b
}

// Page selects limit rows starting at offset.
func (b *Builder) Page(limit, offset int) *Builder {
	b.paging = dialect.PagingInfo{Limit: limit, Offset: offset}
	return b
}

// Defer excludes a ManyToOne relation from eager joins.
func (b *Builder) Defer(relation string) *Builder {
	b.deferred[relation] = true
	delete(b.joins, relation)
	return b
}

// LeftJoin joins a ManyToOne relation with a LEFT JOIN, even when lazy.
func (b *Builder) LeftJoin(relation string) *Builder { return b.join(relation, LeftJoin) }

// InnerJoin joins a ManyToOne relation with an INNER JOIN, excluding rows
// without a related entity.
func (b *Builder) InnerJoin(relation string) *Builder { return b.join(relation, InnerJoin) }

func (b *Builder) join(relation string, kind JoinKind) *Builder {
	b.joins[relation] = kind
	delete(b.deferred, relation)
	return b
}

// Build renders the SELECT of the entity with its joined relations.
func (b *Builder) Build() (*Statement, error) {
	p, err := b.plan()
	if err != nil {
		return nil, err
	}
	f := b.scoped(p)
	where, params, err := f.Build(b.dialect)
	if err != nil {
		return nil, err
	}
	order, err := f.BuildOrderBy(b.dialect)
	if err != nil {
		return nil, err
	}
	cols := make([]string, len(p.columns))
	for i, c := range p.columns {
		cols[i] = filter.Qualify(b.dialect, c.Reference()) + " AS " + b.dialect.Escape(c.Label, dialect.KindAlias)
	}
	body := p.body(strings.Join(cols, ", "), where)
	body.OrderBy = order
	s := &Statement{
		SQL:        b.dialect.QueryWithPaging(body, b.paging),
		Parameters: params,
		Columns:    p.columns,
	}
	b.debug("query: select", s)
	return s, nil
}

// Count renders a SELECT of the number of matching rows. Sort keys and
// paging do not apply.
func (b *Builder) Count() (*Statement, error) {
	p, err := b.plan()
	if err != nil {
		return nil, err
	}
	where, params, err := b.scoped(p).Build(b.dialect)
	if err != nil {
		return nil, err
	}
	count, err := b.dialect.CallFunction("COUNT", "*")
	if err != nil {
		return nil, err
	}
	s := &Statement{
		SQL:        b.dialect.BuildSelectStatement(p.body(count, where)),
		Parameters: params,
	}
	b.debug("query: count", s)
	return s, nil
}

// ByKey renders the SELECT of the single row with the given key values,
// in primary key order. The filter of the builder is not applied.
func (b *Builder) ByKey(keys ...any) (*Statement, error) {
	pk := b.entity.PrimaryKey
	if pk == nil || len(pk.Keys) == 0 {
		return nil, goliath.NewPreconditionError(b.entity.TableName, "entity "+b.entity.Name+" has no primary key")
	}
	if len(keys) != len(pk.Keys) {
		return nil, goliath.NewPreconditionError(b.entity.TableName,
			fmt.Sprintf("expected %d key values, got %d", len(pk.Keys), len(keys)))
	}
	f := filter.New()
	for i, k := range pk.Keys {
		f.And(k.PropertyName).Type(k.DbType).EqualTo(keys[i])
	}
	single := *b
	single.filter = f
	single.paging = dialect.PagingInfo{}
	return single.Build()
}

// scoped returns a copy of the filter resolving names against p.
func (b *Builder) scoped(p *plan) *filter.Filter {
	f := filter.New(filter.WithResolver(p.resolve)).Add(b.filter.Clauses()...)
	for _, s := range b.filter.Sorts() {
		f.OrderBy(s.Column, s.Desc)
	}
	return f
}

func (b *Builder) debug(msg string, s *Statement) {
	if !b.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	b.logger.Debug(msg,
		slog.String("entity", b.entity.Name),
		slog.String("sql", s.SQL),
		slog.Int("params", len(s.Parameters)),
	)
}

// node is one table of a query.
type node struct {
	alias  string
	path   string
	entity *mapping.EntityMap
}

type plan struct {
	dialect *dialect.Dialect
	root    *mapping.EntityMap
	nodes   []*node
	from    string
	joins   []string
	columns []SelectedColumn
}

func (b *Builder) plan() (*plan, error) {
	p := &plan{dialect: b.dialect, root: b.entity}
	if _, err := p.chain(b.entity, "", nil); err != nil {
		return nil, err
	}
	for _, n := range p.heads("") {
		for _, r := range n.entity.ManyToOne() {
			kind, explicit := b.joins[r.PropertyName]
			if !explicit && (r.LazyLoad || b.deferred[r.PropertyName]) {
				continue
			}
			if !explicit {
				kind = LeftJoin
			}
			ref, err := n.entity.Reference(r)
			if err != nil {
				return nil, err
			}
			on := &joinOn{kind: kind, left: n.alias, leftColumn: r.ColumnName, rightColumn: r.ReferenceColumn}
			if _, err := p.chain(ref, r.PropertyName, on); err != nil {
				return nil, err
			}
		}
	}
	for name := range b.joins {
		if _, ok := p.head(name); !ok {
			return nil, goliath.NewMappingError(b.entity.Name, name, "not a ManyToOne relation of the entity")
		}
	}
	return p, nil
}

type joinOn struct {
	kind        JoinKind
	left        string
	leftColumn  string
	rightColumn string
}

// chain adds e and its ancestors to the plan. The first table is the FROM
// table when on is nil, or joined through on otherwise; ancestors are
// INNER JOINed on the shared key.
func (p *plan) chain(e *mapping.EntityMap, path string, on *joinOn) (*node, error) {
	head := p.add(e, path)
	table := p.dialect.Escape(e.QualifiedTable(), dialect.KindTable) + " " + head.alias
	if on == nil {
		p.from = table
	} else {
		p.joins = append(p.joins, fmt.Sprintf("%s %s ON %s = %s", on.kind, table,
			filter.Qualify(p.dialect, ColumnReference(head.alias, on.rightColumn)),
			filter.Qualify(p.dialect, ColumnReference(on.left, on.leftColumn))))
	}
	p.columnsOf(head, true)
	ancestors, err := e.Ancestors()
	if err != nil {
		return nil, err
	}
	child := head
	for i := len(ancestors) - 1; i >= 0; i-- {
		parent := ancestors[i]
		n := p.add(parent, path)
		cond, err := p.keyJoin(child, n)
		if err != nil {
			return nil, err
		}
		p.joins = append(p.joins, fmt.Sprintf("%s %s %s ON %s", InnerJoin,
			p.dialect.Escape(parent.QualifiedTable(), dialect.KindTable), n.alias, cond))
		p.columnsOf(n, false)
		child = n
	}
	return head, nil
}

func (p *plan) add(e *mapping.EntityMap, path string) *node {
	n := &node{
		alias:  strings.ToLower(e.Name[:1]) + strconv.Itoa(len(p.nodes)),
		path:   path,
		entity: e,
	}
	p.nodes = append(p.nodes, n)
	return n
}

// keyJoin pairs the key columns of a child and its parent by position.
func (p *plan) keyJoin(child, parent *node) (string, error) {
	ck, pk := child.entity.PrimaryKey, parent.entity.PrimaryKey
	if ck == nil || pk == nil || len(ck.Keys) != len(pk.Keys) || len(ck.Keys) == 0 {
		return "", goliath.NewMappingError(child.entity.Name, "",
			"primary key does not match the key of %s", parent.entity.Name)
	}
	conds := make([]string, len(ck.Keys))
	for i := range ck.Keys {
		conds[i] = filter.Qualify(p.dialect, ColumnReference(parent.alias, pk.Keys[i].ColumnName)) + " = " +
			filter.Qualify(p.dialect, ColumnReference(child.alias, ck.Keys[i].ColumnName))
	}
	return strings.Join(conds, " AND "), nil
}

// columnsOf adds the columns of n. Ancestor keys duplicate the key of the
// head table and are skipped.
func (p *plan) columnsOf(n *node, head bool) {
	for _, prop := range n.entity.Properties {
		if !head && n.entity.IsKey(prop.PropertyName) {
			continue
		}
		p.columns = append(p.columns, SelectedColumn{
			Alias:    n.alias,
			Path:     n.path,
			Entity:   n.entity.Name,
			Property: prop.PropertyName,
			Column:   prop.ColumnName,
			Label:    Label(n.alias, prop.PropertyName),
		})
	}
	for _, r := range n.entity.ManyToOne() {
		p.columns = append(p.columns, SelectedColumn{
			Alias:    n.alias,
			Path:     n.path,
			Entity:   n.entity.Name,
			Property: r.PropertyName,
			Column:   r.ColumnName,
			Label:    Label(n.alias, r.PropertyName),
			Relation: true,
		})
	}
}

func (p *plan) body(columns, where string) dialect.SelectBody {
	return dialect.SelectBody{
		Columns: columns,
		From:    p.from,
		Joins:   strings.Join(p.joins, " "),
		Where:   where,
	}
}

// heads returns the tables of path, head first.
func (p *plan) heads(path string) []*node {
	var ns []*node
	for _, n := range p.nodes {
		if n.path == path {
			ns = append(ns, n)
		}
	}
	return ns
}

func (p *plan) head(path string) (*node, bool) {
	ns := p.heads(path)
	if len(ns) == 0 {
		return nil, false
	}
	return ns[0], true
}

// resolve turns a filter name into an alias-qualified column.
func (p *plan) resolve(name string) (string, error) {
	path, property := "", name
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		path, property = name[:i], name[i+1:]
		for _, n := range p.nodes {
			if n.alias == path {
				return name, nil
			}
		}
	}
	head, ok := p.head(path)
	if !ok {
		return "", goliath.NewMappingError(p.root.Name, name, "relation %q is not joined", path)
	}
	owner, prop, err := head.entity.FindProperty(property)
	if err != nil {
		return "", err
	}
	for _, n := range p.heads(path) {
		if n.entity == owner {
			return ColumnReference(n.alias, prop.ColumnName), nil
		}
	}
	return "", goliath.NewMappingError(owner.Name, property, "table is not part of the query")
}
