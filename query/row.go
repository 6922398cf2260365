package query

import (
	"reflect"

	"github.com/malweka/GoliathData-sub002/mapping"
)

// Row is one result row of a Statement keyed by column label.
type Row map[string]any

// Assign copies the columns of row onto instance. Columns of the queried
// entity and its ancestors are assigned directly; columns of a joined
// relation are assigned to the related instance when the relation already
// holds one. Foreign key columns are skipped: the relation they belong to is
// either joined or loaded on demand.
func (s *Statement) Assign(instance any, row Row) error {
	a, err := mapping.AccessorOf(instance)
	if err != nil {
		return err
	}
	related := make(map[string]any)
	for _, c := range s.Columns {
		if c.Relation {
			continue
		}
		v, ok := row[c.Label]
		if !ok {
			continue
		}
		if c.Path == "" {
			if err := a.Set(instance, c.Property, v); err != nil {
				return err
			}
			continue
		}
		target, ok := related[c.Path]
		if !ok {
			if target, err = a.Get(instance, c.Path); err != nil {
				return err
			}
			related[c.Path] = target
		}
		if !assignable(target) {
			continue
		}
		ra, err := mapping.AccessorOf(target)
		if err != nil {
			return err
		}
		if err := ra.Set(target, c.Property, v); err != nil {
			return err
		}
	}
	return nil
}

func assignable(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		return !rv.IsNil() && rv.Elem().Kind() == reflect.Struct
	case reflect.Map:
		return !rv.IsNil()
	}
	return false
}
