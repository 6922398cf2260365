package mapping

import (
	"fmt"
	"strings"

	"github.com/malweka/GoliathData-sub002/dialect"
)

// RelationType is the kind of association a Relation describes.
type RelationType uint8

// Relation types.
const (
	// ManyToOne is a foreign key held by the owning table.
	ManyToOne RelationType = iota + 1
	// OneToMany is the read-only inverse side of a ManyToOne.
	OneToMany
	// ManyToMany is an association through a junction table.
	ManyToMany
)

var relationNames = map[RelationType]string{
	ManyToOne:  "ManyToOne",
	OneToMany:  "OneToMany",
	ManyToMany: "ManyToMany",
}

// String returns the name of the relation type.
func (r RelationType) String() string {
	if s, ok := relationNames[r]; ok {
		return s
	}
	return fmt.Sprintf("RelationType(%d)", r)
}

// MarshalText implements encoding.TextMarshaler.
func (r RelationType) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *RelationType) UnmarshalText(text []byte) error {
	for t, name := range relationNames {
		if strings.EqualFold(name, string(text)) {
			*r = t
			return nil
		}
	}
	return fmt.Errorf("mapping: unknown relation type %q", text)
}

// Property describes a mapped column.
type Property struct {
	PropertyName    string         `yaml:"name"`
	ColumnName      string         `yaml:"column,omitempty"`
	DbType          dialect.DbType `yaml:"dbType,omitempty"`
	SqlType         string         `yaml:"sqlType,omitempty"`
	Length          int            `yaml:"length,omitempty"`
	Precision       int            `yaml:"precision,omitempty"`
	Scale           int            `yaml:"scale,omitempty"`
	IsNullable      bool           `yaml:"nullable,omitempty"`
	IsUnique        bool           `yaml:"unique,omitempty"`
	IsPrimaryKey    bool           `yaml:"primaryKey,omitempty"`
	IsIdentity      bool           `yaml:"identity,omitempty"`
	IsAutoGenerated bool           `yaml:"autoGenerated,omitempty"`
	IgnoreOnUpdate  bool           `yaml:"ignoreOnUpdate,omitempty"`
	DefaultValue    string         `yaml:"default,omitempty"`
	// LazyLoad defers a relation out of eager joins.
	LazyLoad bool `yaml:"lazy,omitempty"`
}

// Generated reports if the database produces the column value on insert.
func (p *Property) Generated() bool { return p.IsIdentity || p.IsAutoGenerated }

// Relation is a Property specialized to describe a foreign key or a
// many-to-many association.
type Relation struct {
	Property            `yaml:",inline"`
	RelationType        RelationType `yaml:"type"`
	ReferenceEntityName string       `yaml:"reference"`
	ReferenceTable      string       `yaml:"referenceTable,omitempty"`
	ReferenceColumn     string       `yaml:"referenceColumn,omitempty"`
	ReferenceProperty   string       `yaml:"referenceProperty,omitempty"`
	// Junction table metadata for ManyToMany relations.
	MapTableName       string `yaml:"mapTable,omitempty"`
	MapColumn          string `yaml:"mapColumn,omitempty"`
	MapReferenceColumn string `yaml:"mapReferenceColumn,omitempty"`
	MapPropertyName    string `yaml:"mapProperty,omitempty"`
	// Inverse marks the side of a ManyToMany that does not write the junction.
	Inverse bool `yaml:"inverse,omitempty"`
}

// PrimaryKey is the ordered key of an entity and its generation strategy.
type PrimaryKey struct {
	Keys      []*Property
	Generator string
}

// Single returns the key property of a single-column key.
func (k *PrimaryKey) Single() (*Property, bool) {
	if k == nil || len(k.Keys) != 1 {
		return nil, false
	}
	return k.Keys[0], true
}

// Key generator names.
const (
	GeneratorNone     = "none"
	GeneratorIdentity = "identity"
	GeneratorUUID     = "uuid"
	GeneratorULID     = "ulid"
)

// EntityMap describes one mapped table and class.
type EntityMap struct {
	Name         string      `yaml:"name"`
	TableName    string      `yaml:"table,omitempty"`
	Namespace    string      `yaml:"namespace,omitempty"`
	SchemaName   string      `yaml:"schema,omitempty"`
	TableAlias   string      `yaml:"alias,omitempty"`
	Extends      string      `yaml:"extends,omitempty"`
	KeyGenerator string      `yaml:"keyGenerator,omitempty"`
	IsLinkTable  bool        `yaml:"linkTable,omitempty"`
	Properties   []*Property `yaml:"properties"`
	Relations    []*Relation `yaml:"relations,omitempty"`
	// Order is the topological position computed by MapConfig.Sort.
	Order      int         `yaml:"-"`
	PrimaryKey *PrimaryKey `yaml:"-"`

	config *MapConfig
}

// FullName returns the namespace qualified entity name.
func (e *EntityMap) FullName() string {
	if e.Namespace == "" {
		return e.Name
	}
	return e.Namespace + "." + e.Name
}

// QualifiedTable returns the schema qualified table name.
func (e *EntityMap) QualifiedTable() string {
	if e.SchemaName == "" {
		return e.TableName
	}
	return e.SchemaName + "." + e.TableName
}

// Property returns the plain property with the given name, declared on
// this entity.
func (e *EntityMap) Property(name string) (*Property, bool) {
	for _, p := range e.Properties {
		if p.PropertyName == name {
			return p, true
		}
	}
	return nil, false
}

// Relation returns the relation with the given name, declared on this entity.
func (e *EntityMap) Relation(name string) (*Relation, bool) {
	for _, r := range e.Relations {
		if r.PropertyName == name {
			return r, true
		}
	}
	return nil, false
}

// Column returns the property or relation mapped to column.
func (e *EntityMap) Column(column string) (*Property, bool) {
	for _, p := range e.Properties {
		if strings.EqualFold(p.ColumnName, column) {
			return p, true
		}
	}
	for _, r := range e.Relations {
		if r.RelationType == ManyToOne && strings.EqualFold(r.ColumnName, column) {
			return &r.Property, true
		}
	}
	return nil, false
}

// Contains reports if the entity declares a property or relation called name.
func (e *EntityMap) Contains(name string) bool {
	if _, ok := e.Property(name); ok {
		return true
	}
	_, ok := e.Relation(name)
	return ok
}

// ManyToOne returns the ManyToOne relations of the entity in declared order.
func (e *EntityMap) ManyToOne() []*Relation { return e.relations(ManyToOne) }

// ManyToMany returns the ManyToMany relations of the entity in declared order.
func (e *EntityMap) ManyToMany() []*Relation { return e.relations(ManyToMany) }

func (e *EntityMap) relations(t RelationType) []*Relation {
	var rs []*Relation
	for _, r := range e.Relations {
		if r.RelationType == t {
			rs = append(rs, r)
		}
	}
	return rs
}

// IsKey reports if the named property is part of the primary key.
func (e *EntityMap) IsKey(name string) bool {
	if e.PrimaryKey == nil {
		return false
	}
	for _, k := range e.PrimaryKey.Keys {
		if k.PropertyName == name {
			return true
		}
	}
	return false
}

// Parent returns the entity this one extends. It returns nil, nil for a
// root entity.
func (e *EntityMap) Parent() (*EntityMap, error) {
	if e.Extends == "" {
		return nil, nil
	}
	if e.config == nil {
		return nil, unresolved(e)
	}
	return e.config.Entity(e.Extends)
}

// Config returns the configuration the entity belongs to.
func (e *EntityMap) Config() *MapConfig { return e.config }

// Reference resolves the entity a relation points to.
func (e *EntityMap) Reference(r *Relation) (*EntityMap, error) {
	if e.config == nil {
		return nil, unresolved(e)
	}
	return e.config.Entity(r.ReferenceEntityName)
}

// Ancestors returns the inheritance chain of e, root first, excluding e.
func (e *EntityMap) Ancestors() ([]*EntityMap, error) {
	var (
		chain []*EntityMap
		seen  = map[string]bool{e.Name: true}
		cur   = e
	)
	for {
		p, err := cur.Parent()
		if err != nil {
			return nil, err
		}
		if p == nil {
			break
		}
		if seen[p.Name] {
			return nil, newError(e.Name, "", "inheritance cycle through %q", p.Name)
		}
		seen[p.Name] = true
		chain = append([]*EntityMap{p}, chain...)
		cur = p
	}
	return chain, nil
}

// FindProperty looks name up on the entity and then along its ancestors. It
// returns the entity declaring the property.
func (e *EntityMap) FindProperty(name string) (*EntityMap, *Property, error) {
	for cur := e; cur != nil; {
		if p, ok := cur.Property(name); ok {
			return cur, p, nil
		}
		if r, ok := cur.Relation(name); ok {
			return cur, &r.Property, nil
		}
		next, err := cur.Parent()
		if err != nil {
			return nil, nil, err
		}
		cur = next
	}
	return nil, nil, newError(e.Name, name, "property is not mapped")
}
