package session

import (
	"context"
	"fmt"
	"reflect"

	goliath "github.com/malweka/GoliathData-sub002"
	"github.com/malweka/GoliathData-sub002/mapping"
	"github.com/malweka/GoliathData-sub002/query"
)

// Find runs the query built by b and returns one new T per row, attached
// for change tracking. ManyToOne relations joined by the query are filled
// when T initializes them; otherwise they stay nil.
func Find[T any](ctx context.Context, s *Session, b *query.Builder) ([]*T, error) {
	st, err := b.Build()
	if err != nil {
		return nil, err
	}
	return find[T](ctx, s, b.Entity(), st)
}

// Get returns the instance of T holding the given key values.
func Get[T any](ctx context.Context, s *Session, keys ...any) (*T, error) {
	e, err := s.Entity(new(T))
	if err != nil {
		return nil, err
	}
	st, err := query.New(s.Dialect(), e, query.WithLogger(s.logger)).ByKey(keys...)
	if err != nil {
		return nil, err
	}
	items, err := find[T](ctx, s, e, st)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, goliath.NewLookupError(e.Name, fmt.Sprint(keys...))
	}
	return items[0], nil
}

// GetMany loads the instances of T with the given single-column keys in
// one query. The result has the length and the order of keys; a missing key
// leaves a nil instance and a LookupError at its index. A failing query
// returns a single error. The signature fits the batch functions of
// dataloader libraries.
func GetMany[T any](ctx context.Context, s *Session, keys []any) ([]*T, []error) {
	e, err := s.Entity(new(T))
	if err != nil {
		return nil, []error{err}
	}
	pk, ok := e.PrimaryKey.Single()
	if !ok {
		return nil, []error{goliath.NewMappingError(e.Name, "", "batch loading requires a single column key")}
	}
	if len(keys) == 0 {
		return nil, nil
	}
	b := query.New(s.Dialect(), e, query.WithLogger(s.logger))
	b.Where(pk.PropertyName).In(keys...)
	items, err := Find[T](ctx, s, b)
	if err != nil {
		return nil, []error{err}
	}
	keyOf := func(item *T) string {
		v, err := e.Value(item, pk.PropertyName)
		if err != nil {
			return ""
		}
		return keyString(v)
	}
	lookup := make(map[string]*T, len(items))
	for _, it := range items {
		lookup[keyOf(it)] = it
	}
	result := make([]*T, len(keys))
	errs := make([]error, len(keys))
	for i, k := range keys {
		if it, ok := lookup[keyString(k)]; ok {
			result[i] = it
		} else {
			errs[i] = goliath.NewLookupError(e.Name, fmt.Sprint(k))
		}
	}
	return result, errs
}

// keyString normalizes keys so an int requested and an int64 read back
// match.
func keyString(v any) string {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return ""
	}
	return fmt.Sprint(rv.Interface())
}

func find[T any](ctx context.Context, s *Session, e *mapping.EntityMap, st *query.Statement) ([]*T, error) {
	rows, err := s.exec.Select(ctx, st)
	if err != nil {
		return nil, err
	}
	items := make([]*T, 0, len(rows))
	for _, row := range rows {
		it := new(T)
		if err := st.Assign(it, row); err != nil {
			return nil, err
		}
		if err := Attach(e, it); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

// LoadMany fills the OneToMany collection relation of owner with the rows
// referencing it. Each loaded item gets owner as its ManyToOne target.
func (s *Session) LoadMany(ctx context.Context, owner any, relation string) error {
	e, err := s.Entity(owner)
	if err != nil {
		return err
	}
	r, ok := e.Relation(relation)
	if !ok || r.RelationType != mapping.OneToMany {
		return goliath.NewMappingError(e.Name, relation, "not a OneToMany relation")
	}
	ref, err := e.Reference(r)
	if err != nil {
		return err
	}
	var back *mapping.Relation
	for _, m := range ref.ManyToOne() {
		if m.ColumnName == r.ReferenceColumn {
			back = m
			break
		}
	}
	if back == nil {
		return goliath.NewMappingError(ref.Name, r.ReferenceColumn, "no ManyToOne relation maps the column referenced by %s.%s", e.Name, relation)
	}
	key, err := e.Value(owner, back.ReferenceProperty)
	if err != nil {
		return err
	}
	b := query.New(s.Dialect(), ref, query.WithLogger(s.logger)).Defer(back.PropertyName)
	b.Where(back.PropertyName).EqualTo(key)
	st, err := b.Build()
	if err != nil {
		return err
	}
	rows, err := s.exec.Select(ctx, st)
	if err != nil {
		return err
	}
	a, err := mapping.AccessorOf(owner)
	if err != nil {
		return err
	}
	current, err := a.Get(owner, relation)
	if err != nil {
		return err
	}
	typ := reflect.TypeOf(current)
	if typ == nil || typ.Kind() != reflect.Slice || typ.Elem().Kind() != reflect.Pointer {
		return goliath.NewMappingError(e.Name, relation, "collection must be a slice of pointers, got %T", current)
	}
	items := reflect.MakeSlice(typ, 0, len(rows))
	for _, row := range rows {
		it := reflect.New(typ.Elem().Elem()).Interface()
		if err := st.Assign(it, row); err != nil {
			return err
		}
		if err := ref.SetValue(it, back.PropertyName, owner); err != nil {
			return err
		}
		if err := Attach(ref, it); err != nil {
			return err
		}
		items = reflect.Append(items, reflect.ValueOf(it))
	}
	return a.Set(owner, relation, items.Interface())
}
