package statement

import (
	"fmt"

	goliath "github.com/malweka/GoliathData-sub002"
	"github.com/malweka/GoliathData-sub002/dialect"
	"github.com/malweka/GoliathData-sub002/filter"
	"github.com/malweka/GoliathData-sub002/mapping"
	"github.com/malweka/GoliathData-sub002/tracking"
)

// UpdateBuilder builds the operations writing the changes of an entity
// instance.
//
// With an active change tracker only changed properties are written;
// without one every mapped column is. Keys, generated columns and columns
// flagged IgnoreOnUpdate are never written. Changes to properties declared
// by an ancestor produce an UPDATE of the ancestor table, scoped by key,
// in the Before list. Changes to a tracked ManyToMany collection produce
// junction inserts and deletes in the After list.
//
// An update must be scoped by at least one predicate.
type UpdateBuilder struct {
	dialect  *dialect.Dialect
	entity   *mapping.EntityMap
	instance any
	opts     options
	whereKey bool
}

// NewUpdate returns a builder updating instance as entity.
func NewUpdate(d *dialect.Dialect, entity *mapping.EntityMap, instance any, opts ...Option) *UpdateBuilder {
	return &UpdateBuilder{dialect: d, entity: entity, instance: instance, opts: newOptions(opts)}
}

// Filter returns the filter scoping the update of the entity table.
func (b *UpdateBuilder) Filter() *filter.Filter { return b.opts.filter }

// Where adds a predicate on a column of the entity table.
func (b *UpdateBuilder) Where(column string) *filter.Expression {
	return b.opts.filter.Where(column)
}

// WhereKey scopes the update on the key of the instance, read at Build.
func (b *UpdateBuilder) WhereKey() *UpdateBuilder {
	b.whereKey = true
	return b
}

type change struct {
	name string
	// item is nil when the instance is not tracked.
	item *tracking.ChangeItem
}

// Build renders the operation list.
func (b *UpdateBuilder) Build() (*OperationList, error) {
	e := b.entity
	f := b.opts.filter.Clone()
	if b.whereKey {
		kf, err := keyFilter(e, b.instance)
		if err != nil {
			return nil, err
		}
		f.Add(kf.Clauses()...)
	}
	if f.Empty() {
		return nil, goliath.NewPreconditionError(e.QualifiedTable(), "update requires at least one filter predicate")
	}
	chain, err := e.Ancestors()
	if err != nil {
		return nil, err
	}
	changes, err := b.changes(append(chain, e))
	if err != nil {
		return nil, err
	}
	var (
		in        = &inserter{dialect: b.dialect, state: make(map[any]insertState)}
		groups    = make(map[*mapping.EntityMap][]Binding)
		before    []*OperationList
		junctions []*OperationList
	)
	for _, c := range changes {
		owner, p, err := e.FindProperty(c.name)
		if err != nil {
			return nil, err
		}
		if p.IsPrimaryKey || p.IgnoreOnUpdate || p.Generated() {
			continue
		}
		r, ok := owner.Relation(c.name)
		if !ok {
			v, err := owner.Value(b.instance, p.PropertyName)
			if err != nil {
				return nil, err
			}
			groups[owner] = append(groups[owner], Binding{
				Column:    p.ColumnName,
				Parameter: dialect.Parameter{Name: p.PropertyName, Value: v, DbType: p.DbType},
			})
			continue
		}
		switch r.RelationType {
		case mapping.ManyToOne:
			param, sub, err := in.reference(owner, b.instance, r)
			if err != nil {
				return nil, err
			}
			if sub != nil {
				before = append(before, sub)
			}
			groups[owner] = append(groups[owner], Binding{Column: r.ColumnName, Parameter: param})
		case mapping.ManyToMany:
			if c.item == nil || r.Inverse {
				continue
			}
			sub, err := b.junctions(in, owner, r, c.item)
			if err != nil {
				return nil, err
			}
			if sub != nil {
				junctions = append(junctions, sub)
			}
		}
	}
	list := &OperationList{Entity: e.Name, Before: before, After: junctions}
	for _, a := range chain {
		bindings := groups[a]
		if len(bindings) == 0 {
			continue
		}
		kf, err := keyFilter(a, b.instance)
		if err != nil {
			return nil, err
		}
		op, err := newUpdate(b.dialect, a.QualifiedTable(), bindings, kf)
		if err != nil {
			return nil, err
		}
		list.Before = append(list.Before, &OperationList{Entity: a.Name, Operations: []Operation{op}})
	}
	if bindings := groups[e]; len(bindings) > 0 {
		op, err := newUpdate(b.dialect, e.QualifiedTable(), bindings, f)
		if err != nil {
			return nil, err
		}
		list.Operations = append(list.Operations, op)
	}
	b.opts.debug("statement: update", list)
	return list, nil
}

// changes returns the properties to write. A tracked instance is synced
// against its snapshot first so direct field assignments are seen too.
func (b *UpdateBuilder) changes(chain []*mapping.EntityMap) ([]change, error) {
	t := tracking.Of(b.instance)
	if t.IsTracking() {
		a, err := mapping.AccessorOf(b.instance)
		if err != nil {
			return nil, err
		}
		err = t.Sync(func(name string) (any, error) {
			if !a.Has(name) {
				return nil, goliath.NewMappingError(b.entity.Name, name, "tracked property is not exposed by %T", b.instance)
			}
			return a.Get(b.instance, name)
		})
		if err != nil {
			return nil, err
		}
		var changes []change
		for _, it := range t.ChangedItems() {
			changes = append(changes, change{name: it.Name, item: it})
		}
		return changes, nil
	}
	var changes []change
	for _, e := range chain {
		for _, p := range e.Properties {
			changes = append(changes, change{name: p.PropertyName})
		}
		for _, r := range e.ManyToOne() {
			changes = append(changes, change{name: r.PropertyName})
		}
	}
	return changes, nil
}

// junctions diffs a tracked collection into junction inserts for added
// items and junction deletes for removed ones.
func (b *UpdateBuilder) junctions(in *inserter, owner *mapping.EntityMap, r *mapping.Relation, item *tracking.ChangeItem) (*OperationList, error) {
	ownerKey, ref, refKey, err := junctionKeys(owner, r)
	if err != nil {
		return nil, err
	}
	key := func(it any) (any, error) {
		if !isEntity(it) {
			return it, nil
		}
		return ref.Value(it, refKey.PropertyName)
	}
	diff, err := tracking.DiffCollection(item.InitialValue, item.Value, key)
	if err != nil {
		return nil, goliath.NewMappingError(owner.Name, r.PropertyName, "%s", err)
	}
	if diff.Empty() {
		return nil, nil
	}
	ownerValue, err := owner.Value(b.instance, ownerKey.PropertyName)
	if err != nil {
		return nil, err
	}
	if mapping.IsZeroKey(ownerValue) {
		return nil, goliath.NewPreconditionError(owner.TableName,
			fmt.Sprintf("key %s.%s is not assigned", owner.Name, ownerKey.PropertyName))
	}
	sub := &OperationList{Entity: r.MapTableName}
	for _, it := range diff.Added {
		value, before, err := in.item(ref, refKey, it)
		if err != nil {
			return nil, err
		}
		if before != nil {
			sub.Before = append(sub.Before, before)
		}
		sub.Operations = append(sub.Operations, junctionInsert(b.dialect, r, ownerKey, ownerValue, refKey, value))
	}
	for _, it := range diff.Removed {
		value, err := key(it)
		if err != nil {
			return nil, err
		}
		op, err := junctionDelete(b.dialect, r, ownerKey, ownerValue, refKey, value)
		if err != nil {
			return nil, err
		}
		sub.Operations = append(sub.Operations, op)
	}
	return sub, nil
}
