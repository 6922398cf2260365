package statement

import (
	"fmt"

	goliath "github.com/malweka/GoliathData-sub002"
	"github.com/malweka/GoliathData-sub002/dialect"
	"github.com/malweka/GoliathData-sub002/filter"
	"github.com/malweka/GoliathData-sub002/mapping"
)

// DeleteBuilder builds the operations deleting an entity instance by key.
//
// Junction rows linking the instance are deleted first (Before), both those
// of its own ManyToMany relations and those of relations other entities
// declare towards it. Then the entity row goes, then the rows of its
// ancestors (After), child before parent so that no foreign key is ever
// left dangling.
type DeleteBuilder struct {
	dialect  *dialect.Dialect
	entity   *mapping.EntityMap
	instance any
	opts     options
}

// NewDelete returns a builder deleting instance as entity. A filter set with
// WithFilter is added to the key predicate of the entity table.
func NewDelete(d *dialect.Dialect, entity *mapping.EntityMap, instance any, opts ...Option) *DeleteBuilder {
	return &DeleteBuilder{dialect: d, entity: entity, instance: instance, opts: newOptions(opts)}
}

// Build renders the operation list.
func (b *DeleteBuilder) Build() (*OperationList, error) {
	list, err := b.table(b.entity, b.opts.filter)
	if err != nil {
		return nil, err
	}
	b.opts.debug("statement: delete", list)
	return list, nil
}

func (b *DeleteBuilder) table(e *mapping.EntityMap, extra *filter.Filter) (*OperationList, error) {
	f, err := keyFilter(e, b.instance)
	if err != nil {
		return nil, err
	}
	if extra != nil {
		f.Add(extra.Clone().Clauses()...)
	}
	op, err := newDelete(b.dialect, e.QualifiedTable(), f)
	if err != nil {
		return nil, err
	}
	list := &OperationList{Entity: e.Name, Operations: []Operation{op}}
	links, err := junctionLinks(e)
	if err != nil {
		return nil, err
	}
	for _, l := range links {
		key, err := singleKey(e)
		if err != nil {
			return nil, err
		}
		v, err := e.Value(b.instance, key.PropertyName)
		if err != nil {
			return nil, err
		}
		jf := filter.New().Where(l.column).Type(key.DbType).EqualTo(v)
		jop, err := newDelete(b.dialect, l.table, jf)
		if err != nil {
			return nil, err
		}
		list.Before = append(list.Before, &OperationList{Entity: l.table, Operations: []Operation{jop}})
	}
	parent, err := e.Parent()
	if err != nil {
		return nil, err
	}
	if parent != nil {
		pl, err := b.table(parent, nil)
		if err != nil {
			return nil, err
		}
		list.After = append(list.After, pl)
	}
	return list, nil
}

// DeleteWhere builds a bulk delete of the rows of entity matching f. Junction
// rows linking the matched rows are deleted first through a sub-select on
// the same predicates. Entities extending another one cannot be deleted
// in bulk since their ancestor rows cannot be matched once the entity rows
// are gone.
func DeleteWhere(d *dialect.Dialect, entity *mapping.EntityMap, f *filter.Filter, opts ...Option) (*OperationList, error) {
	o := newOptions(opts)
	if entity.Extends != "" {
		return nil, goliath.NewUnsupportedError(d.Name(), fmt.Sprintf("bulk delete of %s, which extends %s", entity.Name, entity.Extends))
	}
	op, err := newDelete(d, entity.QualifiedTable(), f)
	if err != nil {
		return nil, err
	}
	list := &OperationList{Entity: entity.Name, Operations: []Operation{op}}
	links, err := junctionLinks(entity)
	if err != nil {
		return nil, err
	}
	for _, l := range links {
		key, err := singleKey(entity)
		if err != nil {
			return nil, err
		}
		sub := d.BuildSelectStatement(dialect.SelectBody{
			Columns: d.Escape(key.ColumnName, dialect.KindColumn),
			From:    d.Escape(entity.QualifiedTable(), dialect.KindTable),
			Where:   op.Where,
		})
		where := fmt.Sprintf("%s IN (%s)", d.Escape(l.column, dialect.KindColumn), sub)
		jop := &DeleteInfo{
			Table:           l.table,
			Where:           where,
			WhereParameters: op.WhereParameters,
			Statement:       d.BuildDeleteStatement(dialect.DeleteStatement{Table: l.table, Where: where}),
		}
		list.Before = append(list.Before, &OperationList{Entity: l.table, Operations: []Operation{jop}})
	}
	o.debug("statement: delete", list)
	return list, nil
}

// junctionLink is a junction table column holding the key of an entity.
type junctionLink struct {
	table  string
	column string
}

// junctionLinks returns the junction columns referencing rows of e: the
// owner column of its own ManyToMany relations, then the reference column
// of the ManyToMany relations other entities declare towards e.
func junctionLinks(e *mapping.EntityMap) ([]junctionLink, error) {
	var (
		links []junctionLink
		seen  = make(map[junctionLink]bool)
	)
	add := func(l junctionLink) {
		if !seen[l] {
			seen[l] = true
			links = append(links, l)
		}
	}
	for _, r := range e.ManyToMany() {
		if !r.Inverse {
			add(junctionLink{table: r.MapTableName, column: r.MapColumn})
		}
	}
	c := e.Config()
	if c == nil {
		return links, nil
	}
	for _, o := range c.Entities() {
		for _, r := range o.ManyToMany() {
			if r.Inverse {
				continue
			}
			ref, err := o.Reference(r)
			if err != nil {
				return nil, err
			}
			if ref.Name == e.Name {
				add(junctionLink{table: r.MapTableName, column: r.MapReferenceColumn})
			}
		}
	}
	return links, nil
}
