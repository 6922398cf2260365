package statement

import (
	"fmt"
	"strings"

	"github.com/malweka/GoliathData-sub002/dialect"
)

// Kind is the kind of a write operation.
type Kind uint8

// Operation kinds.
const (
	KindInsert Kind = iota + 1
	KindUpdate
	KindDelete
)

func (k Kind) String() string {
	switch k {
	case KindInsert:
		return "insert"
	case KindUpdate:
		return "update"
	case KindDelete:
		return "delete"
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Operation is a single rendered write statement. Operations are single use
// and owned by the OperationList they were built into.
type Operation interface {
	Kind() Kind
	// TableName returns the table the statement writes.
	TableName() string
	// SQL returns the statement text with dialect parameter tokens.
	SQL() string
	// Parameters returns the bound parameters in the order their tokens
	// first appear in SQL.
	Parameters() []dialect.Parameter
}

// Binding pairs a column with the parameter holding its value.
type Binding struct {
	Column    string
	Parameter dialect.Parameter
}

func bindingParameters(bs []Binding) []dialect.Parameter {
	ps := make([]dialect.Parameter, len(bs))
	for i, b := range bs {
		ps[i] = b.Parameter
	}
	return ps
}

// InsertInfo is a rendered INSERT.
type InsertInfo struct {
	Table    string
	Bindings []Binding
	// KeyColumn is the column generated by the database, if any.
	KeyColumn string
	// KeyRetrieval is the fragment appended to Statement to read the
	// generated key back. Nil when the key is not generated.
	KeyRetrieval *dialect.KeyRetrieval
	Statement    string
	// SetKey assigns the generated key onto the inserted entity. Executors
	// call it with the value read back through KeyRetrieval before running
	// the next operation.
	SetKey func(key any) error
}

func (*InsertInfo) Kind() Kind                        { return KindInsert }
func (i *InsertInfo) TableName() string               { return i.Table }
func (i *InsertInfo) SQL() string                     { return i.Statement }
func (i *InsertInfo) Parameters() []dialect.Parameter { return bindingParameters(i.Bindings) }

// Body returns the statement without a key fragment that follows the insert
// as a separate statement.
func (i *InsertInfo) Body() string {
	if k := i.KeyRetrieval; k != nil && !k.Inline {
		return strings.TrimSuffix(i.Statement, ";\n"+k.Fragment)
	}
	return i.Statement
}

// UpdateInfo is a rendered UPDATE.
type UpdateInfo struct {
	Table           string
	Bindings        []Binding
	Where           string
	WhereParameters []dialect.Parameter
	Statement       string
}

func (*UpdateInfo) Kind() Kind          { return KindUpdate }
func (u *UpdateInfo) TableName() string { return u.Table }
func (u *UpdateInfo) SQL() string       { return u.Statement }

// Parameters returns the SET parameters followed by the WHERE parameters.
func (u *UpdateInfo) Parameters() []dialect.Parameter {
	return append(bindingParameters(u.Bindings), u.WhereParameters...)
}

// DeleteInfo is a rendered DELETE.
type DeleteInfo struct {
	Table           string
	Where           string
	WhereParameters []dialect.Parameter
	Statement       string
}

func (*DeleteInfo) Kind() Kind                        { return KindDelete }
func (d *DeleteInfo) TableName() string               { return d.Table }
func (d *DeleteInfo) SQL() string                     { return d.Statement }
func (d *DeleteInfo) Parameters() []dialect.Parameter { return d.WhereParameters }

// OperationList is the ordered result of a builder. Executed in Flatten
// order it leaves the database consistent: Before holds what must exist
// first (ancestor rows, referenced rows), After what depends on the
// operations (junction rows, ancestor deletes).
type OperationList struct {
	// Entity names the entity or junction table the list writes.
	Entity     string
	Before     []*OperationList
	Operations []Operation
	After      []*OperationList
}

// Flatten returns the operations in execution order: Before lists, then
// Operations, then After lists, recursively.
func (l *OperationList) Flatten() []Operation {
	var ops []Operation
	l.walk(func(op Operation) { ops = append(ops, op) })
	return ops
}

func (l *OperationList) walk(fn func(Operation)) {
	if l == nil {
		return
	}
	for _, b := range l.Before {
		b.walk(fn)
	}
	for _, op := range l.Operations {
		fn(op)
	}
	for _, a := range l.After {
		a.walk(fn)
	}
}

// SubLists returns the Before and After lists.
func (l *OperationList) SubLists() []*OperationList {
	subs := make([]*OperationList, 0, len(l.Before)+len(l.After))
	subs = append(subs, l.Before...)
	return append(subs, l.After...)
}

// Len returns the number of operations of the flattened list.
func (l *OperationList) Len() int {
	n := 0
	l.walk(func(Operation) { n++ })
	return n
}

// Empty reports if the list holds no operation at all.
func (l *OperationList) Empty() bool { return l.Len() == 0 }

// Tables returns the table of every operation in execution order.
func (l *OperationList) Tables() []string {
	var tables []string
	l.walk(func(op Operation) { tables = append(tables, op.TableName()) })
	return tables
}
