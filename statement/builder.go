package statement

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	goliath "github.com/malweka/GoliathData-sub002"
	"github.com/malweka/GoliathData-sub002/dialect"
	"github.com/malweka/GoliathData-sub002/filter"
	"github.com/malweka/GoliathData-sub002/mapping"
)

// Option configures a statement builder.
type Option func(*options)

type options struct {
	logger *slog.Logger
	filter *filter.Filter
}

// WithLogger sets the logger receiving debug records of built statements.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithFilter sets the filter an Update or Delete is scoped by.
func WithFilter(f *filter.Filter) Option {
	return func(o *options) {
		o.filter = f
	}
}

func newOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.filter == nil {
		o.filter = filter.New()
	}
	return o
}

// isEntity reports if v holds a related entity rather than a bare key.
func isEntity(v any) bool {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		return !rv.IsNil() && rv.Elem().Kind() == reflect.Struct
	}
	return rv.Kind() == reflect.Struct || rv.Kind() == reflect.Map
}

// isNil reports if v is nil or a nil pointer, slice or map.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

type instanceID struct {
	typ reflect.Type
	ptr uintptr
}

// identity returns a comparable identity of an entity instance held by
// pointer or map.
func identity(v any) (any, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map:
		if rv.IsNil() {
			return nil, false
		}
		return instanceID{typ: rv.Type(), ptr: rv.Pointer()}, true
	}
	return nil, false
}

// collection returns the items of a collection property.
func collection(e *mapping.EntityMap, property string, v any) ([]any, error) {
	if isNil(v) {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, goliath.NewMappingError(e.Name, property, "collection of type %T is not a slice", v)
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, nil
}

// singleKey returns the single key property of e.
func singleKey(e *mapping.EntityMap) (*mapping.Property, error) {
	pk, ok := e.PrimaryKey.Single()
	if !ok {
		return nil, goliath.NewMappingError(e.Name, "", "a single column primary key is required")
	}
	return pk, nil
}

// keyOf reads the key of a related entity.
func keyOf(ref *mapping.EntityMap, r *mapping.Relation, instance any) (any, error) {
	if !isEntity(instance) {
		return instance, nil
	}
	return ref.Value(instance, r.ReferenceProperty)
}

// deferredKey reads a key property when the operation runs. Keys generated
// by preceding operations are assigned onto the instance by then.
func deferredKey(e *mapping.EntityMap, instance any, property string) dialect.Deferred {
	return func() (any, error) {
		v, err := e.Value(instance, property)
		if err != nil {
			return nil, err
		}
		if mapping.IsZeroKey(v) {
			return nil, goliath.NewPreconditionError(e.TableName,
				fmt.Sprintf("key %s.%s is not assigned", e.Name, property))
		}
		return v, nil
	}
}

// keyFilter scopes a statement on the key of instance. The key is read
// through e, which may be an ancestor of the instance's entity.
func keyFilter(e *mapping.EntityMap, instance any) (*filter.Filter, error) {
	if e.PrimaryKey == nil || len(e.PrimaryKey.Keys) == 0 {
		return nil, goliath.NewPreconditionError(e.TableName, "entity "+e.Name+" has no primary key")
	}
	f := filter.New()
	for _, k := range e.PrimaryKey.Keys {
		v, err := e.Value(instance, k.PropertyName)
		if err != nil {
			return nil, err
		}
		if mapping.IsZeroKey(v) {
			return nil, goliath.NewPreconditionError(e.TableName,
				fmt.Sprintf("key %s.%s is not assigned", e.Name, k.PropertyName))
		}
		f.And(k.ColumnName).Type(k.DbType).EqualTo(v)
	}
	return f, nil
}

// junctionKeys returns the owner side and referenced side key of a
// ManyToMany relation.
func junctionKeys(owner *mapping.EntityMap, r *mapping.Relation) (*mapping.Property, *mapping.EntityMap, *mapping.Property, error) {
	ownerKey, err := singleKey(owner)
	if err != nil {
		return nil, nil, nil, err
	}
	ref, err := owner.Reference(r)
	if err != nil {
		return nil, nil, nil, err
	}
	refKey, err := singleKey(ref)
	if err != nil {
		return nil, nil, nil, err
	}
	return ownerKey, ref, refKey, nil
}

func (o options) debug(msg string, list *OperationList) {
	if !o.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	for _, op := range list.Flatten() {
		o.logger.Debug(msg,
			slog.String("entity", list.Entity),
			slog.String("kind", op.Kind().String()),
			slog.String("table", op.TableName()),
			slog.String("sql", op.SQL()),
			slog.Int("params", len(op.Parameters())),
		)
	}
}

func newInsert(d *dialect.Dialect, table string, bindings []Binding, key *dialect.KeyRetrieval) *InsertInfo {
	s := dialect.InsertStatement{Table: table, KeyRetrieval: key}
	for _, b := range bindings {
		s.Columns = append(s.Columns, b.Column)
		s.Values = append(s.Values, d.CreateParameterName(b.Parameter.Name))
	}
	return &InsertInfo{
		Table:        table,
		Bindings:     bindings,
		KeyRetrieval: key,
		Statement:    d.BuildInsertStatement(s),
	}
}

func newUpdate(d *dialect.Dialect, table string, bindings []Binding, f *filter.Filter) (*UpdateInfo, error) {
	where, params, err := f.BuildNonQuery(d, table)
	if err != nil {
		return nil, err
	}
	s := dialect.UpdateStatement{Table: table, Where: where}
	for _, b := range bindings {
		s.Columns = append(s.Columns, b.Column)
		s.Values = append(s.Values, d.CreateParameterName(b.Parameter.Name))
	}
	stmt, err := d.BuildUpdateStatement(s)
	if err != nil {
		return nil, err
	}
	return &UpdateInfo{
		Table:           table,
		Bindings:        bindings,
		Where:           where,
		WhereParameters: params,
		Statement:       stmt,
	}, nil
}

func newDelete(d *dialect.Dialect, table string, f *filter.Filter) (*DeleteInfo, error) {
	where, params, err := f.BuildNonQuery(d, table)
	if err != nil {
		return nil, err
	}
	return &DeleteInfo{
		Table:           table,
		Where:           where,
		WhereParameters: params,
		Statement:       d.BuildDeleteStatement(dialect.DeleteStatement{Table: table, Where: where}),
	}, nil
}

// junctionInsert links an owner to a referenced item of a ManyToMany
// relation.
func junctionInsert(d *dialect.Dialect, r *mapping.Relation, ownerKey *mapping.Property, owner any, refKey *mapping.Property, ref any) *InsertInfo {
	return newInsert(d, r.MapTableName, []Binding{
		{Column: r.MapColumn, Parameter: dialect.Parameter{Name: r.MapColumn, Value: owner, DbType: ownerKey.DbType}},
		{Column: r.MapReferenceColumn, Parameter: dialect.Parameter{Name: r.MapReferenceColumn, Value: ref, DbType: refKey.DbType}},
	}, nil)
}

// junctionDelete unlinks an owner from one referenced item of a ManyToMany
// relation.
func junctionDelete(d *dialect.Dialect, r *mapping.Relation, ownerKey *mapping.Property, owner any, refKey *mapping.Property, ref any) (*DeleteInfo, error) {
	f := filter.New().
		Where(r.MapColumn).Type(ownerKey.DbType).EqualTo(owner).
		And(r.MapReferenceColumn).Type(refKey.DbType).EqualTo(ref)
	return newDelete(d, r.MapTableName, f)
}
