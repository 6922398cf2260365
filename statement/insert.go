package statement

import (
	"fmt"

	goliath "github.com/malweka/GoliathData-sub002"
	"github.com/malweka/GoliathData-sub002/dialect"
	"github.com/malweka/GoliathData-sub002/mapping"
)

// InsertBuilder builds the operations inserting an entity instance and the
// unsaved entities it references.
//
// The list it builds runs, in order: the ancestor tables of the entity,
// unsaved ManyToOne targets, the entity row, then one sub-list per
// ManyToMany relation inserting unsaved items and their junction rows.
// Generated keys are assigned onto the instances by the executor through
// InsertInfo.SetKey, and read back by the parameters of later operations.
type InsertBuilder struct {
	dialect  *dialect.Dialect
	entity   *mapping.EntityMap
	instance any
	opts     options
}

// NewInsert returns a builder inserting instance as entity.
func NewInsert(d *dialect.Dialect, entity *mapping.EntityMap, instance any, opts ...Option) *InsertBuilder {
	return &InsertBuilder{dialect: d, entity: entity, instance: instance, opts: newOptions(opts)}
}

// Build renders the operation list. Keys assigned by a key generator other
// than the database are set on the instance during Build.
func (b *InsertBuilder) Build() (*OperationList, error) {
	in := &inserter{dialect: b.dialect, state: make(map[any]insertState)}
	list, err := in.entity(b.entity, b.instance)
	if err != nil {
		return nil, err
	}
	b.opts.debug("statement: insert", list)
	return list, nil
}

type insertState uint8

const (
	inProgress insertState = iota + 1
	planned
)

// inserter walks an object graph once. It records the instances it planned
// so shared references are inserted a single time.
type inserter struct {
	dialect *dialect.Dialect
	state   map[any]insertState
}

func (in *inserter) entity(e *mapping.EntityMap, instance any) (*OperationList, error) {
	id, ok := identity(instance)
	if ok {
		in.state[id] = inProgress
	}
	list, err := in.table(e, instance)
	if err != nil {
		return nil, err
	}
	if ok {
		in.state[id] = planned
	}
	return list, nil
}

// related plans the insert of a referenced unsaved instance. It returns a
// nil list if the instance is already planned.
func (in *inserter) related(e *mapping.EntityMap, instance any) (*OperationList, error) {
	if id, ok := identity(instance); ok {
		switch in.state[id] {
		case inProgress:
			return nil, goliath.NewPreconditionError(e.TableName,
				fmt.Sprintf("circular reference between unsaved %s entities", e.Name))
		case planned:
			return nil, nil
		}
	}
	return in.entity(e, instance)
}

// table builds the insert of the row of instance in the table of e, after
// the rows of its ancestors.
func (in *inserter) table(e *mapping.EntityMap, instance any) (*OperationList, error) {
	list := &OperationList{Entity: e.Name}
	parent, err := e.Parent()
	if err != nil {
		return nil, err
	}
	if parent != nil {
		pl, err := in.table(parent, instance)
		if err != nil {
			return nil, err
		}
		list.Before = append(list.Before, pl)
	}
	var (
		bindings  []Binding
		generated *mapping.Property
	)
	for _, p := range e.Properties {
		switch {
		case p.IsIdentity && p.IsPrimaryKey:
			generated = p
			continue
		case p.Generated():
			continue
		}
		param := dialect.Parameter{Name: p.PropertyName, DbType: p.DbType}
		if p.IsPrimaryKey && parent != nil {
			// The row shares the key of its ancestor row, generated by the
			// operations of the Before list.
			pk, err := inheritedKey(e, parent, p)
			if err != nil {
				return nil, err
			}
			param.Value = deferredKey(parent, instance, pk.PropertyName)
		} else {
			v, err := in.value(e, instance, p)
			if err != nil {
				return nil, err
			}
			param.Value = v
		}
		bindings = append(bindings, Binding{Column: p.ColumnName, Parameter: param})
	}
	for _, r := range e.ManyToOne() {
		param, sub, err := in.reference(e, instance, r)
		if err != nil {
			return nil, err
		}
		if sub != nil {
			list.Before = append(list.Before, sub)
		}
		bindings = append(bindings, Binding{Column: r.ColumnName, Parameter: param})
	}
	var key *dialect.KeyRetrieval
	if generated != nil {
		kr := in.dialect.KeyRetrieval(e.QualifiedTable(), generated.ColumnName)
		key = &kr
	}
	op := newInsert(in.dialect, e.QualifiedTable(), bindings, key)
	if generated != nil {
		op.KeyColumn = generated.ColumnName
		name := generated.PropertyName
		op.SetKey = func(k any) error {
			return e.SetValue(instance, name, k)
		}
	}
	list.Operations = append(list.Operations, op)
	for _, r := range e.ManyToMany() {
		if r.Inverse {
			continue
		}
		sub, err := in.junctions(e, instance, r)
		if err != nil {
			return nil, err
		}
		if sub != nil {
			list.After = append(list.After, sub)
		}
	}
	return list, nil
}

// value reads a plain property, generating the key of a new root row.
func (in *inserter) value(e *mapping.EntityMap, instance any, p *mapping.Property) (any, error) {
	v, err := e.Value(instance, p.PropertyName)
	if err != nil {
		return nil, err
	}
	if !p.IsPrimaryKey || !mapping.IsZeroKey(v) || e.PrimaryKey == nil {
		return v, nil
	}
	g, err := LookupGenerator(e.PrimaryKey.Generator)
	if err != nil {
		return nil, goliath.NewMappingError(e.Name, p.PropertyName, "unknown key generator %q", e.PrimaryKey.Generator)
	}
	k, err := g.Generate()
	if err != nil || k == nil {
		return v, err
	}
	if err := e.SetValue(instance, p.PropertyName, k); err != nil {
		return nil, err
	}
	return e.Value(instance, p.PropertyName)
}

// reference binds the foreign key of a ManyToOne relation. An unsaved
// target is inserted first and its key read when the operation runs.
func (in *inserter) reference(e *mapping.EntityMap, instance any, r *mapping.Relation) (dialect.Parameter, *OperationList, error) {
	param := dialect.Parameter{Name: r.PropertyName, DbType: r.DbType}
	v, err := e.Value(instance, r.PropertyName)
	if err != nil {
		return param, nil, err
	}
	switch {
	case isNil(v):
		return param, nil, nil
	case !isEntity(v):
		param.Value = v
		return param, nil, nil
	}
	ref, err := e.Reference(r)
	if err != nil {
		return param, nil, err
	}
	key, err := ref.Value(v, r.ReferenceProperty)
	if err != nil {
		return param, nil, err
	}
	if !mapping.IsZeroKey(key) {
		param.Value = key
		return param, nil, nil
	}
	sub, err := in.related(ref, v)
	if err != nil {
		return param, nil, err
	}
	param.Value = deferredKey(ref, v, r.ReferenceProperty)
	return param, sub, nil
}

// junctions builds the junction rows of a ManyToMany relation. Unsaved
// items are inserted first, in the same sub-list.
func (in *inserter) junctions(e *mapping.EntityMap, instance any, r *mapping.Relation) (*OperationList, error) {
	v, err := e.Value(instance, r.PropertyName)
	if err != nil {
		return nil, err
	}
	items, err := collection(e, r.PropertyName, v)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	ownerKey, ref, refKey, err := junctionKeys(e, r)
	if err != nil {
		return nil, err
	}
	owner := deferredKey(e, instance, ownerKey.PropertyName)
	sub := &OperationList{Entity: r.MapTableName}
	for _, item := range items {
		value, before, err := in.item(ref, refKey, item)
		if err != nil {
			return nil, err
		}
		if before != nil {
			sub.Before = append(sub.Before, before)
		}
		sub.Operations = append(sub.Operations, junctionInsert(in.dialect, r, ownerKey, owner, refKey, value))
	}
	return sub, nil
}

// item returns the key value of a collection item, planning its insert if
// it is unsaved.
func (in *inserter) item(ref *mapping.EntityMap, refKey *mapping.Property, item any) (any, *OperationList, error) {
	if !isEntity(item) {
		return item, nil, nil
	}
	key, err := ref.Value(item, refKey.PropertyName)
	if err != nil {
		return nil, nil, err
	}
	if !mapping.IsZeroKey(key) {
		return key, nil, nil
	}
	sub, err := in.related(ref, item)
	if err != nil {
		return nil, nil, err
	}
	return deferredKey(ref, item, refKey.PropertyName), sub, nil
}

// inheritedKey returns the ancestor key property matching the key property
// p of e, by position.
func inheritedKey(e, parent *mapping.EntityMap, p *mapping.Property) (*mapping.Property, error) {
	if parent.PrimaryKey == nil || e.PrimaryKey == nil || len(parent.PrimaryKey.Keys) != len(e.PrimaryKey.Keys) {
		return nil, goliath.NewMappingError(e.Name, p.PropertyName, "key does not match the key of %s", parent.Name)
	}
	for i, k := range e.PrimaryKey.Keys {
		if k == p {
			return parent.PrimaryKey.Keys[i], nil
		}
	}
	return nil, goliath.NewMappingError(e.Name, p.PropertyName, "property is not part of the key")
}
