package statement

import (
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	goliath "github.com/malweka/GoliathData-sub002"
	"github.com/malweka/GoliathData-sub002/mapping"
)

// KeyGenerator produces the key of a new entity. A nil key means the
// generator leaves the key alone: the database generates it, or the caller
// assigned it.
type KeyGenerator interface {
	Generate() (any, error)
}

// GeneratorFunc adapts a function to the KeyGenerator interface.
type GeneratorFunc func() (any, error)

// Generate calls f.
func (f GeneratorFunc) Generate() (any, error) { return f() }

func noKey() (any, error) { return nil, nil }

var generators = struct {
	sync.RWMutex
	m map[string]KeyGenerator
}{
	m: map[string]KeyGenerator{
		mapping.GeneratorNone:     GeneratorFunc(noKey),
		mapping.GeneratorIdentity: GeneratorFunc(noKey),
		mapping.GeneratorUUID: GeneratorFunc(func() (any, error) {
			id, err := uuid.NewRandom()
			if err != nil {
				return nil, err
			}
			return id.String(), nil
		}),
		mapping.GeneratorULID: GeneratorFunc(func() (any, error) {
			return ulid.Make().String(), nil
		}),
	},
}

// RegisterGenerator registers a key generator under name. Registering a
// name twice is a configuration error.
func RegisterGenerator(name string, g KeyGenerator) error {
	generators.Lock()
	defer generators.Unlock()
	if _, ok := generators.m[name]; ok {
		return goliath.NewMappingError("", "", "key generator %q registered twice", name)
	}
	generators.m[name] = g
	return nil
}

// LookupGenerator returns the generator registered under name.
func LookupGenerator(name string) (KeyGenerator, error) {
	if name == "" {
		name = mapping.GeneratorNone
	}
	generators.RLock()
	g, ok := generators.m[name]
	generators.RUnlock()
	if !ok {
		return nil, goliath.NewMappingError("", "", "unknown key generator %q", name)
	}
	return g, nil
}

// Generators returns the registered generator names in sorted order.
func Generators() []string {
	generators.RLock()
	defer generators.RUnlock()
	names := make([]string, 0, len(generators.m))
	for name := range generators.m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
