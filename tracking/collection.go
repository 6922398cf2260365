package tracking

import (
	"fmt"
	"reflect"
)

// CollectionChanges is the difference between two states of a collection
// property, matched by item key.
type CollectionChanges struct {
	Added   []any
	Removed []any
}

// Empty reports if nothing was added or removed.
func (c CollectionChanges) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0
}

// DiffCollection compares the initial and current value of a slice property.
// Items are matched by the key returned by key; items without a key (nil)
// are new and always reported as added.
func DiffCollection(initial, current any, key func(item any) (any, error)) (CollectionChanges, error) {
	var changes CollectionChanges
	before, err := items(initial)
	if err != nil {
		return changes, err
	}
	after, err := items(current)
	if err != nil {
		return changes, err
	}
	index := func(list []any) (map[any]any, []any, error) {
		keyed := make(map[any]any, len(list))
		var unkeyed []any
		for _, it := range list {
			k, err := key(it)
			if err != nil {
				return nil, nil, err
			}
			if k == nil || reflect.ValueOf(k).IsZero() {
				unkeyed = append(unkeyed, it)
				continue
			}
			keyed[normalize(k)] = it
		}
		return keyed, unkeyed, nil
	}
	old, _, err := index(before)
	if err != nil {
		return changes, err
	}
	now, fresh, err := index(after)
	if err != nil {
		return changes, err
	}
	// Walk the lists rather than the maps to keep the result ordered.
	for _, it := range after {
		k, _ := key(it)
		if k == nil || reflect.ValueOf(k).IsZero() {
			continue
		}
		if _, ok := old[normalize(k)]; !ok {
			changes.Added = append(changes.Added, it)
		}
	}
	changes.Added = append(changes.Added, fresh...)
	for _, it := range before {
		k, _ := key(it)
		if k == nil || reflect.ValueOf(k).IsZero() {
			continue
		}
		if _, ok := now[normalize(k)]; !ok {
			changes.Removed = append(changes.Removed, it)
		}
	}
	return changes, nil
}

func items(v any) ([]any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("tracking: collection of type %T is not a slice", v)
	}
	list := make([]any, rv.Len())
	for i := range list {
		list[i] = rv.Index(i).Interface()
	}
	return list, nil
}

// normalize makes keys of different integer widths compare equal.
func normalize(k any) any {
	rv := reflect.ValueOf(k)
	switch {
	case rv.CanInt():
		return rv.Int()
	case rv.CanUint():
		return int64(rv.Uint())
	}
	return k
}
