package mapping

import (
	"fmt"
	"reflect"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	goliath "github.com/malweka/GoliathData-sub002"
)

// Accessor reads and writes the mapped properties of entity instances of
// one Go type. Entities are struct pointers or map[string]any.
type Accessor interface {
	// Get returns the value of the named property.
	Get(entity any, property string) (any, error)
	// Set assigns value to the named property, converting between
	// compatible kinds (e.g. an int64 generated key to an int field).
	Set(entity any, property string, value any) error
	// Has reports if the type exposes the named property.
	Has(property string) bool
}

// Accessors are built once per type and shared process wide.
var accessors = struct {
	sync.RWMutex
	types map[reflect.Type]Accessor
	group singleflight.Group
}{
	types: make(map[reflect.Type]Accessor),
}

// AccessorOf returns the cached accessor of the entity's type.
func AccessorOf(entity any) (Accessor, error) {
	if entity == nil {
		return nil, goliath.NewMappingError("", "", "nil entity")
	}
	return AccessorFor(reflect.TypeOf(entity))
}

// AccessorFor returns the cached accessor of t, building it at most once.
func AccessorFor(t reflect.Type) (Accessor, error) {
	accessors.RLock()
	a, ok := accessors.types[t]
	accessors.RUnlock()
	if ok {
		return a, nil
	}
	v, err, _ := accessors.group.Do(fmt.Sprintf("%p", t), func() (any, error) {
		accessors.RLock()
		a, ok := accessors.types[t]
		accessors.RUnlock()
		if ok {
			return a, nil
		}
		a, err := newAccessor(t)
		if err != nil {
			return nil, err
		}
		accessors.Lock()
		defer accessors.Unlock()
		if prev, ok := accessors.types[t]; ok {
			return prev, nil
		}
		accessors.types[t] = a
		return a, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Accessor), nil
}

func newAccessor(t reflect.Type) (Accessor, error) {
	switch {
	case t.Kind() == reflect.Map && t.Key().Kind() == reflect.String:
		return mapAccessor{}, nil
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct:
		return newStructAccessor(t.Elem()), nil
	default:
		return nil, goliath.NewMappingError(t.String(), "", "entities must be struct pointers or string keyed maps")
	}
}

// TagName is the struct tag overriding the property name of a field.
const TagName = "goliath"

type structAccessor struct {
	typ    reflect.Type
	fields map[string][]int
}

// newStructAccessor indexes the visible fields of t. Fields of embedded
// structs are promoted, which is how inheriting entities expose the
// properties of their parents.
func newStructAccessor(t reflect.Type) *structAccessor {
	a := &structAccessor{typ: t, fields: make(map[string][]int)}
	depth := make(map[string]int)
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup(TagName); ok {
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		if d, ok := depth[name]; ok && d <= len(f.Index) {
			continue
		}
		depth[name] = len(f.Index)
		a.fields[name] = f.Index
	}
	return a
}

func (a *structAccessor) Has(property string) bool {
	_, ok := a.fields[property]
	return ok
}

func (a *structAccessor) field(entity any, property string, alloc bool) (reflect.Value, error) {
	idx, ok := a.fields[property]
	if !ok {
		return reflect.Value{}, goliath.NewMappingError(a.typ.Name(), property, "type %s has no such field", a.typ)
	}
	v := reflect.ValueOf(entity)
	if v.Type() != reflect.PointerTo(a.typ) {
		return reflect.Value{}, goliath.NewMappingError(a.typ.Name(), property, "accessor of %s used with %T", a.typ, entity)
	}
	if v.IsNil() {
		return reflect.Value{}, goliath.NewMappingError(a.typ.Name(), property, "nil entity")
	}
	v = v.Elem()
	for i, x := range idx {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				if !alloc {
					return reflect.Value{}, nil
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, nil
}

func (a *structAccessor) Get(entity any, property string) (any, error) {
	f, err := a.field(entity, property, false)
	if err != nil {
		return nil, err
	}
	if !f.IsValid() {
		return nil, nil
	}
	return f.Interface(), nil
}

func (a *structAccessor) Set(entity any, property string, value any) error {
	f, err := a.field(entity, property, true)
	if err != nil {
		return err
	}
	if err := assign(f, value); err != nil {
		return goliath.NewMappingError(a.typ.Name(), property, "%v", err)
	}
	return nil
}

// assign stores value into dst, converting numeric kinds and dereferencing
// or allocating pointers as needed.
func assign(dst reflect.Value, value any) error {
	if value == nil {
		dst.SetZero()
		return nil
	}
	src := reflect.ValueOf(value)
	for src.Kind() == reflect.Pointer && dst.Kind() != reflect.Pointer {
		if src.IsNil() {
			dst.SetZero()
			return nil
		}
		src = src.Elem()
	}
	switch {
	case src.Type().AssignableTo(dst.Type()):
		dst.Set(src)
	case dst.Kind() == reflect.Pointer:
		p := reflect.New(dst.Type().Elem())
		if err := assign(p.Elem(), src.Interface()); err != nil {
			return err
		}
		dst.Set(p)
	case src.Kind() == reflect.Slice && src.Type().Elem().Kind() == reflect.Uint8 && dst.Kind() == reflect.String:
		dst.SetString(string(src.Bytes()))
	case dst.Kind() == reflect.Bool && numeric(src.Kind()):
		dst.SetBool(!src.IsZero())
	case numeric(src.Kind()) && numeric(dst.Kind()):
		dst.Set(src.Convert(dst.Type()))
	case numeric(dst.Kind()) && (src.Kind() == reflect.String || src.Kind() == reflect.Slice && src.Type().Elem().Kind() == reflect.Uint8):
		// Some drivers return generated keys as decimal text.
		return parseNumber(dst, fmt.Sprint(src.Convert(reflect.TypeOf("")).Interface()))
	case src.Type().ConvertibleTo(dst.Type()) && src.Kind() == dst.Kind():
		dst.Set(src.Convert(dst.Type()))
	default:
		return fmt.Errorf("cannot assign %s to %s", src.Type(), dst.Type())
	}
	return nil
}

func parseNumber(dst reflect.Value, text string) error {
	switch {
	case dst.CanInt():
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			if f, ferr := strconv.ParseFloat(text, 64); ferr == nil && f == float64(int64(f)) {
				n, err = int64(f), nil
			}
		}
		if err != nil {
			return err
		}
		dst.SetInt(n)
	case dst.CanUint():
		n, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return err
		}
		dst.SetUint(n)
	default:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return err
		}
		dst.SetFloat(f)
	}
	return nil
}

func numeric(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Float64
}

type mapAccessor struct{}

// Has always succeeds: map entities are dynamic and a missing key reads as
// NULL.
func (mapAccessor) Has(string) bool { return true }

func (mapAccessor) Get(entity any, property string) (any, error) {
	v := reflect.ValueOf(entity)
	if v.Kind() != reflect.Map {
		return nil, goliath.NewMappingError("", property, "map accessor used with %T", entity)
	}
	e := v.MapIndex(reflect.ValueOf(property).Convert(v.Type().Key()))
	if !e.IsValid() {
		return nil, nil
	}
	return e.Interface(), nil
}

func (mapAccessor) Set(entity any, property string, value any) error {
	v := reflect.ValueOf(entity)
	if v.Kind() != reflect.Map || v.IsNil() {
		return goliath.NewMappingError("", property, "map accessor used with %T", entity)
	}
	ev := reflect.New(v.Type().Elem()).Elem()
	if err := assign(ev, value); err != nil {
		return goliath.NewMappingError("", property, "%v", err)
	}
	v.SetMapIndex(reflect.ValueOf(property).Convert(v.Type().Key()), ev)
	return nil
}

// IsZeroKey reports if v is the value of a key that was never assigned:
// nil, a nil pointer or the zero value of its type.
func IsZeroKey(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return true
		}
		rv = rv.Elem()
	}
	return rv.IsZero()
}

// Value returns the named property of an entity mapped by e, looking the
// property up along the inheritance chain.
func (e *EntityMap) Value(entity any, property string) (any, error) {
	a, err := AccessorOf(entity)
	if err != nil {
		return nil, err
	}
	if !a.Has(property) {
		return nil, goliath.NewMappingError(e.Name, property, "property is not exposed by %T", entity)
	}
	return a.Get(entity, property)
}

// SetValue assigns the named property of an entity mapped by e.
func (e *EntityMap) SetValue(entity any, property string, value any) error {
	a, err := AccessorOf(entity)
	if err != nil {
		return err
	}
	if !a.Has(property) {
		return goliath.NewMappingError(e.Name, property, "property is not exposed by %T", entity)
	}
	return a.Set(entity, property, value)
}
