package tracking

import (
	"bytes"
	"reflect"
	"time"
)

// ChangeItem is the value history of one property.
type ChangeItem struct {
	Name string
	// Value is the latest tracked value.
	Value any
	// InitialValue is the value at the last Init or Reset boundary.
	InitialValue any
	// Version is the tracker version of the last Track of the item.
	Version int64
	// seeded reports if InitialValue was observed. Items tracked without
	// being initialized are always changed.
	seeded bool
}

// Changed reports if the value differs from its initial value.
func (c *ChangeItem) Changed() bool {
	return !c.seeded || !Equal(c.Value, c.InitialValue)
}

// ChangeSet is the ordered set of items of one entity instance.
type ChangeSet struct {
	items map[string]*ChangeItem
	order []string
}

// Item returns the item of the named property.
func (s *ChangeSet) Item(name string) (*ChangeItem, bool) {
	it, ok := s.items[name]
	return it, ok
}

// Len returns the number of items.
func (s *ChangeSet) Len() int { return len(s.order) }

// Names returns the property names in the order they were first seen.
func (s *ChangeSet) Names() []string {
	return append([]string(nil), s.order...)
}

func (s *ChangeSet) item(name string) *ChangeItem {
	if s.items == nil {
		s.items = make(map[string]*ChangeItem)
	}
	it, ok := s.items[name]
	if !ok {
		it = &ChangeItem{Name: name}
		s.items[name] = it
		s.order = append(s.order, name)
	}
	return it
}

// Tracker records which properties of an entity instance changed since it
// was loaded. Dirtiness is value based: setting a property back to its
// initial value clears the change. The zero value is ready to use but not
// tracking; call Init and Start. A Tracker is not safe for concurrent use.
type Tracker struct {
	set      ChangeSet
	tracking bool
	version  int64
}

// Trackable is implemented by entities exposing their tracker.
type Trackable interface {
	ChangeTracker() *Tracker
}

// Of returns the tracker of entity, or nil if it has none.
func Of(entity any) *Tracker {
	if t, ok := entity.(Trackable); ok {
		return t.ChangeTracker()
	}
	return nil
}

// Init seeds the initial value of every given property and discards the
// previous history.
func (t *Tracker) Init(values map[string]any, order ...string) {
	t.set = ChangeSet{}
	t.version = 0
	seed := func(name string, v any) {
		it := t.set.item(name)
		it.InitialValue = snapshot(v)
		it.Value = it.InitialValue
		it.seeded = true
	}
	seen := make(map[string]bool, len(order))
	for _, name := range order {
		if v, ok := values[name]; ok {
			seed(name, v)
			seen[name] = true
		}
	}
	for name, v := range values {
		if !seen[name] {
			seed(name, v)
		}
	}
}

// Start activates tracking.
func (t *Tracker) Start() { t.tracking = true }

// Stop suspends tracking. Track is a no-op until Start is called again.
func (t *Tracker) Stop() { t.tracking = false }

// IsTracking reports if the tracker records changes.
func (t *Tracker) IsTracking() bool { return t != nil && t.tracking }

// Track records the new value of a property.
func (t *Tracker) Track(name string, value any) {
	if t == nil || !t.tracking {
		return
	}
	t.version++
	it := t.set.item(name)
	it.Value = snapshot(value)
	it.Version = t.version
}

// Sync tracks the current value of every seeded property as returned by
// get. It lets entities without tracking setters be diffed against their
// snapshot.
func (t *Tracker) Sync(get func(name string) (any, error)) error {
	if !t.IsTracking() {
		return nil
	}
	for _, name := range t.set.order {
		v, err := get(name)
		if err != nil {
			return err
		}
		if it := t.set.items[name]; !it.seeded || !Equal(it.Value, v) {
			t.Track(name, v)
		}
	}
	return nil
}

// ChangedItems returns the changed items in the order their properties were
// first seen.
func (t *Tracker) ChangedItems() []*ChangeItem {
	if t == nil {
		return nil
	}
	var items []*ChangeItem
	for _, name := range t.set.order {
		if it := t.set.items[name]; it.Changed() {
			items = append(items, it)
		}
	}
	return items
}

// HasChanges reports if at least one item differs from its initial value.
func (t *Tracker) HasChanges() bool {
	if t == nil {
		return false
	}
	for _, name := range t.set.order {
		if t.set.items[name].Changed() {
			return true
		}
	}
	return false
}

// Item returns the item of the named property.
func (t *Tracker) Item(name string) (*ChangeItem, bool) {
	if t == nil {
		return nil, false
	}
	return t.set.Item(name)
}

// ChangeSet returns the tracked items.
func (t *Tracker) ChangeSet() *ChangeSet { return &t.set }

// Version returns the number of values tracked since Init.
func (t *Tracker) Version() int64 { return t.version }

// Reset ends a cycle: current values become the initial values. Tracking
// stays active.
func (t *Tracker) Reset() {
	for _, it := range t.set.items {
		it.InitialValue = it.Value
		it.seeded = true
	}
}

// Clear drops the whole history and stops tracking.
func (t *Tracker) Clear() {
	t.set = ChangeSet{}
	t.tracking = false
	t.version = 0
}

// snapshot copies slices, maps and scalar pointers so later in-place
// mutation of the entity does not rewrite history.
func snapshot(v any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		c := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		reflect.Copy(c, rv)
		return c.Interface()
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		c := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			c.SetMapIndex(iter.Key(), iter.Value())
		}
		return c.Interface()
	case reflect.Pointer:
		if rv.IsNil() || rv.Elem().Kind() == reflect.Struct {
			return v
		}
		c := reflect.New(rv.Elem().Type())
		c.Elem().Set(rv.Elem())
		return c.Interface()
	}
	return v
}

// Equal compares two tracked values. Pointers are compared by the value
// they point to, numbers by value regardless of their width, and times
// with time.Time.Equal.
func Equal(a, b any) bool {
	a, b = deref(a), deref(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Equal(y)
		}
	case []byte:
		if y, ok := b.([]byte); ok {
			return bytes.Equal(x, y)
		}
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Kind() == reflect.Pointer && rb.Kind() == reflect.Pointer {
		return ra.Pointer() == rb.Pointer()
	}
	if n, ok := compareNumbers(ra, rb); ok {
		return n
	}
	return reflect.DeepEqual(a, b)
}

func deref(v any) any {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil
	}
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		// Entity references are compared by identity.
		if rv.Elem().Kind() == reflect.Struct && rv.Elem().Type() != reflect.TypeOf(time.Time{}) {
			return v
		}
		return rv.Elem().Interface()
	}
	return v
}

func compareNumbers(a, b reflect.Value) (equal, ok bool) {
	switch {
	case a.CanInt() && b.CanInt():
		return a.Int() == b.Int(), true
	case a.CanUint() && b.CanUint():
		return a.Uint() == b.Uint(), true
	case a.CanInt() && b.CanUint():
		return a.Int() >= 0 && uint64(a.Int()) == b.Uint(), true
	case a.CanUint() && b.CanInt():
		return b.Int() >= 0 && uint64(b.Int()) == a.Uint(), true
	case a.CanFloat() && b.CanFloat():
		return a.Float() == b.Float(), true
	case a.CanFloat() && (b.CanInt() || b.CanUint()):
		return a.Float() == toFloat(b), true
	case b.CanFloat() && (a.CanInt() || a.CanUint()):
		return b.Float() == toFloat(a), true
	}
	return false, false
}

func toFloat(v reflect.Value) float64 {
	if v.CanInt() {
		return float64(v.Int())
	}
	return float64(v.Uint())
}
