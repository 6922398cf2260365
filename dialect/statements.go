package dialect

import (
	"fmt"
	"strings"

	goliath "github.com/malweka/GoliathData-sub002"
)

// InsertStatement describes an INSERT. Columns and Values are unescaped
// column names and rendered parameter tokens, in matching order.
type InsertStatement struct {
	Table   string
	Columns []string
	Values  []string
	// KeyRetrieval is appended when the table has a generated key.
	KeyRetrieval *KeyRetrieval
}

// UpdateStatement describes an UPDATE.
type UpdateStatement struct {
	Table   string
	Columns []string
	Values  []string
	Where   string
}

// DeleteStatement describes a DELETE.
type DeleteStatement struct {
	Table string
	Where string
}

// SelectBody is a generic SELECT split in its clauses. Columns, From and
// Joins are already rendered; Where and OrderBy come without their keywords.
type SelectBody struct {
	Columns string
	From    string
	Joins   string
	Where   string
	OrderBy string
}

// PagingInfo selects a window of rows. A zero Limit disables paging.
type PagingInfo struct {
	Limit  int
	Offset int
}

// Enabled reports if paging applies.
func (p PagingInfo) Enabled() bool { return p.Limit > 0 }

// BuildInsertStatement assembles an INSERT statement.
func (d *Dialect) BuildInsertStatement(s InsertStatement) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(d.Escape(s.Table, KindTable))
	if len(s.Columns) == 0 {
		b.WriteString(" ")
		b.WriteString(d.emptyRow)
	} else {
		b.WriteString(" (")
		for i, c := range s.Columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(d.Escape(c, KindColumn))
		}
		b.WriteString(") VALUES (")
		b.WriteString(strings.Join(s.Values, ", "))
		b.WriteString(")")
	}
	if k := s.KeyRetrieval; k != nil && k.Fragment != "" {
		if k.Inline {
			b.WriteString(" ")
		} else {
			b.WriteString(";\n")
		}
		b.WriteString(k.Fragment)
	}
	return b.String()
}

// BuildUpdateStatement assembles an UPDATE statement. It fails if columns
// and values do not pair up, if there is nothing to set or no WHERE clause.
func (d *Dialect) BuildUpdateStatement(s UpdateStatement) (string, error) {
	if len(s.Columns) != len(s.Values) {
		return "", goliath.NewPreconditionError(s.Table,
			fmt.Sprintf("update has %d columns but %d parameters", len(s.Columns), len(s.Values)))
	}
	if len(s.Columns) == 0 {
		return "", goliath.NewPreconditionError(s.Table, "update has no columns to set")
	}
	if strings.TrimSpace(s.Where) == "" {
		return "", goliath.NewPreconditionError(s.Table, "update requires a where clause")
	}
	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(d.Escape(s.Table, KindTable))
	b.WriteString(" SET ")
	for i, c := range s.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.Escape(c, KindColumn))
		b.WriteString(" = ")
		b.WriteString(s.Values[i])
	}
	b.WriteString(" WHERE ")
	b.WriteString(s.Where)
	return b.String(), nil
}

// BuildDeleteStatement assembles a DELETE statement.
func (d *Dialect) BuildDeleteStatement(s DeleteStatement) string {
	var b strings.Builder
	b.WriteString("DELETE FROM ")
	b.WriteString(d.Escape(s.Table, KindTable))
	if s.Where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(s.Where)
	}
	return b.String()
}

// BuildSelectStatement assembles a SELECT without paging.
func (d *Dialect) BuildSelectStatement(body SelectBody) string {
	var b strings.Builder
	writeSelect(&b, body, true)
	return b.String()
}

// QueryWithPaging wraps a SELECT with the vendor paging syntax.
func (d *Dialect) QueryWithPaging(body SelectBody, paging PagingInfo) string {
	if !paging.Enabled() {
		return d.BuildSelectStatement(body)
	}
	return d.paging(d, body, paging)
}

func writeSelect(b *strings.Builder, body SelectBody, order bool) {
	b.WriteString("SELECT ")
	b.WriteString(body.Columns)
	b.WriteString(" FROM ")
	b.WriteString(body.From)
	if body.Joins != "" {
		b.WriteString(" ")
		b.WriteString(body.Joins)
	}
	if body.Where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(body.Where)
	}
	if order && body.OrderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(body.OrderBy)
	}
}

func limitOffset(_ *Dialect, body SelectBody, paging PagingInfo) string {
	var b strings.Builder
	writeSelect(&b, body, true)
	fmt.Fprintf(&b, " LIMIT %d", paging.Limit)
	if paging.Offset > 0 {
		fmt.Fprintf(&b, " OFFSET %d", paging.Offset)
	}
	return b.String()
}

// rowNumber emulates LIMIT/OFFSET with a ROW_NUMBER() window for engines
// lacking native paging.
func rowNumber(_ *Dialect, body SelectBody, paging PagingInfo) string {
	order := body.OrderBy
	if order == "" {
		order = "(SELECT NULL)"
	}
	inner := body
	inner.Columns = body.Columns + ", ROW_NUMBER() OVER (ORDER BY " + order + ") AS __RowNumber"
	var b strings.Builder
	b.WriteString("SELECT * FROM (")
	writeSelect(&b, inner, false)
	fmt.Fprintf(&b, ") AS __Paged WHERE __RowNumber > %d AND __RowNumber <= %d ORDER BY __RowNumber",
		paging.Offset, paging.Offset+paging.Limit)
	return b.String()
}
