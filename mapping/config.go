package mapping

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"

	goliath "github.com/malweka/GoliathData-sub002"
)

// MapConfig is an ordered set of entity maps.
type MapConfig struct {
	entities []*EntityMap
	byName   map[string]*EntityMap
	byTable  map[string]*EntityMap
	resolved bool
}

// NewConfig returns a configuration holding the given entities.
func NewConfig(entities ...*EntityMap) (*MapConfig, error) {
	c := &MapConfig{
		byName:  make(map[string]*EntityMap),
		byTable: make(map[string]*EntityMap),
	}
	if err := c.Add(entities...); err != nil {
		return nil, err
	}
	return c, nil
}

// Add registers entities. Adding an entity name twice is a mapping error.
func (c *MapConfig) Add(entities ...*EntityMap) error {
	for _, e := range entities {
		if e == nil || e.Name == "" {
			return newError("", "", "entity without a name")
		}
		if _, ok := c.byName[e.Name]; ok {
			return newError(e.Name, "", "entity registered twice")
		}
		e.config = c
		c.entities = append(c.entities, e)
		c.byName[e.Name] = e
		c.resolved = false
	}
	return nil
}

// Merge adds the entities of other to c.
func (c *MapConfig) Merge(other *MapConfig) error {
	return c.Add(other.entities...)
}

// Entities returns the entities. After Resolve they are in topological order.
func (c *MapConfig) Entities() []*EntityMap {
	return slices.Clone(c.entities)
}

// Len returns the number of entities.
func (c *MapConfig) Len() int { return len(c.entities) }

// Entity returns the entity named name. The name may be namespace
// qualified.
func (c *MapConfig) Entity(name string) (*EntityMap, error) {
	if e, ok := c.byName[name]; ok {
		return e, nil
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		if e, ok := c.byName[name[i+1:]]; ok && e.FullName() == name {
			return e, nil
		}
	}
	return nil, goliath.NewMappingError(name, "", "entity is not mapped")
}

// EntityByTable returns the entity mapped to table. Table names are matched
// case-insensitively.
func (c *MapConfig) EntityByTable(table string) (*EntityMap, error) {
	if e, ok := c.byTable[strings.ToLower(table)]; ok {
		return e, nil
	}
	for _, e := range c.entities {
		if strings.EqualFold(e.TableName, table) {
			return e, nil
		}
	}
	return nil, goliath.NewLookupError("table", table)
}

// Resolve fills default names, derives primary keys, validates the
// configuration and sorts it. It returns the validation errors joined.
func (c *MapConfig) Resolve() error {
	if c.resolved {
		return nil
	}
	for i, e := range c.entities {
		applyDefaults(e, i)
		c.byTable[strings.ToLower(e.TableName)] = e
	}
	if res := c.Validate(); res.HasErrors() {
		return res.Err()
	}
	if err := c.Sort(); err != nil {
		return err
	}
	c.resolved = true
	return nil
}

// Sort orders the entities topologically: parents and ManyToOne targets
// precede the entities depending on them. Ties keep declaration order and
// ManyToOne cycles are broken in declaration order. Order is assigned on
// every entity.
func (c *MapConfig) Sort() error {
	deps := make(map[string][]string, len(c.entities))
	for _, e := range c.entities {
		if e.Extends != "" {
			if _, err := c.Entity(e.Extends); err != nil {
				return err
			}
			deps[e.Name] = append(deps[e.Name], e.Extends)
		}
		for _, r := range e.ManyToOne() {
			if r.ReferenceEntityName == e.Name {
				continue
			}
			if _, ok := c.byName[r.ReferenceEntityName]; ok {
				deps[e.Name] = append(deps[e.Name], r.ReferenceEntityName)
			}
		}
	}
	var (
		sorted  = make([]*EntityMap, 0, len(c.entities))
		visited = make(map[string]bool, len(c.entities))
		visit   func(*EntityMap)
	)
	visit = func(e *EntityMap) {
		if visited[e.Name] {
			return
		}
		// Marking before recursing breaks ManyToOne cycles.
		visited[e.Name] = true
		for _, d := range deps[e.Name] {
			visit(c.byName[d])
		}
		sorted = append(sorted, e)
	}
	for _, e := range c.entities {
		visit(e)
	}
	for i, e := range sorted {
		e.Order = i
	}
	c.entities = sorted
	return nil
}

// TableName returns the default table name of an entity: the snake cased,
// pluralized entity name.
func TableName(entity string) string {
	return inflect.Pluralize(inflect.Underscore(entity))
}

// PropertyName returns the default property name of a column.
func PropertyName(column string) string {
	if strings.ContainsAny(column, "_- ") {
		return inflect.Camelize(strings.ToLower(column))
	}
	r := []rune(column)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func applyDefaults(e *EntityMap, index int) {
	if e.TableName == "" {
		e.TableName = TableName(e.Name)
	}
	if e.TableAlias == "" {
		e.TableAlias = strings.ToLower(e.Name[:1]) + strconv.Itoa(index)
	}
	for _, p := range e.Properties {
		defaultNames(p)
	}
	for _, r := range e.Relations {
		defaultNames(&r.Property)
		if r.RelationType == ManyToMany && r.MapPropertyName == "" {
			r.MapPropertyName = r.PropertyName
		}
	}
	var keys []*Property
	for _, p := range e.Properties {
		if p.IsPrimaryKey {
			keys = append(keys, p)
		}
	}
	for _, r := range e.ManyToOne() {
		if r.IsPrimaryKey {
			keys = append(keys, &r.Property)
		}
	}
	if len(keys) == 0 {
		e.PrimaryKey = nil
		return
	}
	gen := e.KeyGenerator
	if gen == "" {
		gen = GeneratorNone
		if len(keys) == 1 && keys[0].IsIdentity {
			gen = GeneratorIdentity
		}
	}
	e.PrimaryKey = &PrimaryKey{Keys: keys, Generator: gen}
}

func defaultNames(p *Property) {
	switch {
	case p.PropertyName == "" && p.ColumnName != "":
		p.PropertyName = PropertyName(p.ColumnName)
	case p.ColumnName == "":
		p.ColumnName = p.PropertyName
	}
}

func newError(entity, property, format string, args ...any) error {
	return goliath.NewMappingError(entity, property, format, args...)
}

func unresolved(e *EntityMap) error {
	return newError(e.Name, "", "entity does not belong to a configuration")
}

// String implements fmt.Stringer.
func (c *MapConfig) String() string {
	names := make([]string, len(c.entities))
	for i, e := range c.entities {
		names[i] = e.Name
	}
	return fmt.Sprintf("MapConfig(%s)", strings.Join(names, ", "))
}
