package mapping

import (
	"context"
	"fmt"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"

	goliath "github.com/malweka/GoliathData-sub002"
	"github.com/malweka/GoliathData-sub002/dialect"
)

// ToAtlas converts the configuration into an atlas schema with the column
// types of d. Inheriting tables reference their parent on the shared key
// and ManyToMany junction tables that are not mapped themselves are added.
func (c *MapConfig) ToAtlas(d *dialect.Dialect, name string) (*schema.Schema, error) {
	s := schema.New(name)
	tables := make(map[string]*schema.Table, len(c.entities))
	for _, e := range c.entities {
		t, err := atlasTable(d, e)
		if err != nil {
			return nil, err
		}
		s.AddTables(t)
		tables[e.Name] = t
	}
	for _, e := range c.entities {
		t := tables[e.Name]
		if e.Extends != "" {
			parent, err := e.Parent()
			if err != nil {
				return nil, err
			}
			if e.PrimaryKey == nil || parent.PrimaryKey == nil {
				return nil, newError(e.Name, "", "inheritance requires keys on both %s and %s", e.Name, parent.Name)
			}
			pt := tables[parent.Name]
			fk := schema.NewForeignKey(fmt.Sprintf("FK_%s_%s", e.TableName, parent.TableName)).
				SetRefTable(pt).
				SetOnDelete(schema.NoAction)
			for i, k := range e.PrimaryKey.Keys {
				if i >= len(parent.PrimaryKey.Keys) {
					break
				}
				fk.AddColumns(column(t, k.ColumnName))
				fk.AddRefColumns(column(pt, parent.PrimaryKey.Keys[i].ColumnName))
			}
			t.AddForeignKeys(fk)
		}
		for _, r := range e.ManyToOne() {
			ref, err := e.Reference(r)
			if err != nil {
				return nil, err
			}
			rt := tables[ref.Name]
			fk := schema.NewForeignKey(fmt.Sprintf("FK_%s_%s", e.TableName, r.ColumnName)).
				SetRefTable(rt).
				AddColumns(column(t, r.ColumnName)).
				AddRefColumns(column(rt, r.ReferenceColumn)).
				SetOnDelete(schema.NoAction)
			t.AddForeignKeys(fk)
		}
	}
	for _, e := range c.entities {
		for _, r := range e.ManyToMany() {
			if r.Inverse {
				continue
			}
			if _, ok := s.Table(r.MapTableName); ok {
				continue
			}
			jt, err := junctionTable(d, e, r, tables)
			if err != nil {
				return nil, err
			}
			s.AddTables(jt)
		}
	}
	return s, nil
}

func atlasTable(d *dialect.Dialect, e *EntityMap) (*schema.Table, error) {
	t := schema.NewTable(e.TableName)
	add := func(p *Property) error {
		c, err := atlasColumn(d, e, p)
		if err != nil {
			return err
		}
		t.AddColumns(c)
		return nil
	}
	for _, p := range e.Properties {
		if err := add(p); err != nil {
			return nil, err
		}
	}
	for _, r := range e.ManyToOne() {
		if err := add(&r.Property); err != nil {
			return nil, err
		}
	}
	if e.PrimaryKey != nil {
		pk := schema.NewPrimaryKey()
		for _, k := range e.PrimaryKey.Keys {
			pk.AddColumns(column(t, k.ColumnName))
		}
		t.SetPrimaryKey(pk)
	}
	for _, p := range e.Properties {
		if p.IsUnique && !p.IsPrimaryKey {
			t.AddIndexes(schema.NewUniqueIndex(fmt.Sprintf("UQ_%s_%s", e.TableName, p.ColumnName)).
				AddColumns(column(t, p.ColumnName)))
		}
	}
	return t, nil
}

func atlasColumn(d *dialect.Dialect, e *EntityMap, p *Property) (*schema.Column, error) {
	typ, err := atlasType(d, p)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", e.Name, p.PropertyName, err)
	}
	if p.IsIdentity && d.Name() == dialect.SQLite {
		// AUTOINCREMENT is only allowed on an INTEGER PRIMARY KEY.
		typ = &schema.IntegerType{T: "integer"}
	}
	c := schema.NewColumn(p.ColumnName).SetType(typ).SetNull(p.IsNullable)
	if p.DefaultValue != "" {
		c.SetDefault(&schema.RawExpr{X: p.DefaultValue})
	}
	if p.IsIdentity {
		if attr := identity(d.Name()); attr != nil {
			c.AddAttrs(attr)
		}
	}
	return c, nil
}

// atlasType maps the DbType of a property onto an atlas type. A SqlType set
// on the property wins over the dialect's rendering.
func atlasType(d *dialect.Dialect, p *Property) (schema.Type, error) {
	if p.SqlType != "" {
		return &schema.UnsupportedType{T: p.SqlType}, nil
	}
	info, ok := d.TypeInfo(p.DbType)
	if !ok {
		return nil, goliath.NewUnsupportedError(d.Name(), "type "+p.DbType.String())
	}
	name := info.Name
	switch t := p.DbType; {
	case t.Textual() && t != dialect.TypeXml:
		size := p.Length
		if size == 0 {
			size = info.Capacity
		}
		if size < 0 {
			size = 0
		}
		return &schema.StringType{T: name, Size: size}, nil
	case t == dialect.TypeDecimal || t == dialect.TypeCurrency:
		return &schema.DecimalType{T: name, Precision: p.Precision, Scale: p.Scale}, nil
	case t == dialect.TypeSingle || t == dialect.TypeDouble:
		return &schema.FloatType{T: name}, nil
	case t.Numeric():
		unsigned := t == dialect.TypeUInt16 || t == dialect.TypeUInt32 || t == dialect.TypeUInt64
		return &schema.IntegerType{T: name, Unsigned: unsigned}, nil
	case t == dialect.TypeBoolean:
		return &schema.BoolType{T: name}, nil
	case t == dialect.TypeBinary:
		return &schema.BinaryType{T: name}, nil
	case t == dialect.TypeDate || t == dialect.TypeTime || t == dialect.TypeDateTime ||
		t == dialect.TypeDateTime2 || t == dialect.TypeDateTimeOffset:
		return &schema.TimeType{T: name}, nil
	case t == dialect.TypeGuid:
		return &schema.UUIDType{T: name}, nil
	default:
		return &schema.UnsupportedType{T: name}, nil
	}
}

func identity(name string) schema.Attr {
	switch name {
	case dialect.Postgres:
		return &postgres.Identity{Generation: "BY DEFAULT"}
	case dialect.MySQL:
		return &mysql.AutoIncrement{}
	case dialect.SQLite:
		return &sqlite.AutoIncrement{}
	}
	return nil
}

func junctionTable(d *dialect.Dialect, e *EntityMap, r *Relation, tables map[string]*schema.Table) (*schema.Table, error) {
	ref, err := e.Reference(r)
	if err != nil {
		return nil, err
	}
	local, ok := e.PrimaryKey.Single()
	if !ok {
		return nil, newError(e.Name, r.PropertyName, "ManyToMany relation requires a single column key")
	}
	remote, ok := ref.PrimaryKey.Single()
	if !ok {
		return nil, newError(ref.Name, "", "ManyToMany target requires a single column key")
	}
	lt, err := atlasType(d, local)
	if err != nil {
		return nil, err
	}
	rt, err := atlasType(d, remote)
	if err != nil {
		return nil, err
	}
	t := schema.NewTable(r.MapTableName).AddColumns(
		schema.NewColumn(r.MapColumn).SetType(lt),
		schema.NewColumn(r.MapReferenceColumn).SetType(rt),
	)
	t.SetPrimaryKey(schema.NewPrimaryKey(t.Columns...))
	t.AddForeignKeys(
		schema.NewForeignKey(fmt.Sprintf("FK_%s_%s", r.MapTableName, r.MapColumn)).
			SetRefTable(tables[e.Name]).
			AddColumns(t.Columns[0]).
			AddRefColumns(column(tables[e.Name], local.ColumnName)),
		schema.NewForeignKey(fmt.Sprintf("FK_%s_%s", r.MapTableName, r.MapReferenceColumn)).
			SetRefTable(tables[ref.Name]).
			AddColumns(t.Columns[1]).
			AddRefColumns(column(tables[ref.Name], remote.ColumnName)),
	)
	return t, nil
}

func column(t *schema.Table, name string) *schema.Column {
	c, _ := t.Column(name)
	return c
}

// PlanCreate plans the statements creating every table of s on the
// database behind drv.
func PlanCreate(ctx context.Context, drv migrate.PlanApplier, s *schema.Schema) ([]string, error) {
	changes := make([]schema.Change, 0, len(s.Tables))
	for _, t := range s.Tables {
		changes = append(changes, &schema.AddTable{T: t})
	}
	plan, err := drv.PlanChanges(ctx, s.Name, changes)
	if err != nil {
		return nil, fmt.Errorf("mapping: planning schema %s: %w", s.Name, err)
	}
	stmts := make([]string, len(plan.Changes))
	for i, c := range plan.Changes {
		stmts[i] = c.Cmd
	}
	return stmts, nil
}

// OpenPlanner opens the atlas driver of a dialect over a live connection.
func OpenPlanner(name string, db schema.ExecQuerier) (migrate.Driver, error) {
	switch name {
	case dialect.Postgres:
		return postgres.Open(db)
	case dialect.MySQL:
		return mysql.Open(db)
	case dialect.SQLite:
		return sqlite.Open(db)
	}
	return nil, goliath.NewUnsupportedError(name, "schema planning")
}
