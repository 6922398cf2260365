package schema

import (
	"fmt"
	"slices"
	"strings"

	"ariga.io/atlas/sql/schema"
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Table   string
	Column  string
	Message string
	// Breaking indicates if this is a breaking change.
	Breaking bool
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of schema validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// HasBreakingChanges returns true if there are any breaking changes.
func (r *ValidationResult) HasBreakingChanges() bool {
	return slices.ContainsFunc(r.Errors, breaking) || slices.ContainsFunc(r.Warnings, breaking)
}

func breaking(e *ValidationError) bool { return e.Breaking }

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	write := func(title string, list []*ValidationError) {
		if len(list) == 0 {
			return
		}
		sb.WriteString(title)
		sb.WriteString(":\n")
		for _, e := range list {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			if e.Breaking {
				sb.WriteString(" [BREAKING]")
			}
			sb.WriteString("\n")
		}
	}
	write("Errors", r.Errors)
	write("Warnings", r.Warnings)
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

func (r *ValidationResult) report(allowed bool, err *ValidationError) {
	if allowed {
		r.Warnings = append(r.Warnings, err)
	} else {
		r.Errors = append(r.Errors, err)
	}
}

// ValidateOption configures schema validation.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	allowDropColumn    bool
	allowDropTable     bool
	allowDropIndex     bool
	allowNullToNotNull bool
}

// AllowDropColumn allows dropping columns without error.
func AllowDropColumn() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropColumn = true
	}
}

// AllowDropTable allows dropping tables without error.
func AllowDropTable() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropTable = true
	}
}

// AllowDropIndex allows dropping indexes without error.
func AllowDropIndex() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropIndex = true
	}
}

// AllowNullToNotNull allows changing nullable columns to not null.
func AllowNullToNotNull() ValidateOption {
	return func(c *validateConfig) {
		c.allowNullToNotNull = true
	}
}

// ValidateDiff validates the move from the schema of one mapping revision
// to the schema of the next one, as produced by MapConfig.ToAtlas. It
// returns errors for breaking changes and warnings for potentially
// dangerous ones.
//
//	current, _ := previous.ToAtlas(d, "public")
//	desired, _ := next.ToAtlas(d, "public")
//	result := schema.ValidateDiff(current, desired)
//	if result.HasBreakingChanges() {
//	    log.Fatal("Breaking changes detected:", result)
//	}
func ValidateDiff(current, desired *schema.Schema, opts ...ValidateOption) *ValidationResult {
	cfg := &validateConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	result := &ValidationResult{}
	for _, t := range current.Tables {
		if _, ok := desired.Table(t.Name); !ok {
			result.report(cfg.allowDropTable, &ValidationError{
				Table:    t.Name,
				Message:  "table will be dropped",
				Breaking: true,
			})
		}
	}
	for _, t := range desired.Tables {
		if c, ok := current.Table(t.Name); ok {
			validateTableDiff(c, t, cfg, result)
		}
	}
	return result
}

func validateTableDiff(current, desired *schema.Table, cfg *validateConfig, result *ValidationResult) {
	for _, c := range current.Columns {
		if _, ok := desired.Column(c.Name); !ok {
			result.report(cfg.allowDropColumn, &ValidationError{
				Table:    current.Name,
				Column:   c.Name,
				Message:  "column will be dropped",
				Breaking: true,
			})
		}
	}
	for _, dc := range desired.Columns {
		cc, ok := current.Column(dc.Name)
		if !ok {
			if !nullable(dc) && dc.Default == nil {
				result.Warnings = append(result.Warnings, &ValidationError{
					Table:   current.Name,
					Column:  dc.Name,
					Message: "new NOT NULL column without default value may fail if table has data",
				})
			}
			continue
		}
		if from, to := typeName(cc), typeName(dc); from != to {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   current.Name,
				Column:  dc.Name,
				Message: fmt.Sprintf("column type changing from %s to %s", from, to),
			})
		}
		if nullable(cc) && !nullable(dc) {
			result.report(cfg.allowNullToNotNull, &ValidationError{
				Table:    current.Name,
				Column:   dc.Name,
				Message:  "column changing from NULL to NOT NULL may fail if column has NULL values",
				Breaking: true,
			})
		}
		if from, to := size(cc), size(dc); from > 0 && to > 0 && to < from {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   current.Name,
				Column:  dc.Name,
				Message: fmt.Sprintf("column size reducing from %d to %d may truncate data", from, to),
			})
		}
		if !unique(current, cc.Name) && unique(desired, dc.Name) {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   current.Name,
				Column:  dc.Name,
				Message: "adding UNIQUE constraint may fail if duplicate values exist",
			})
		}
	}
	for _, idx := range current.Indexes {
		if _, ok := desired.Index(idx.Name); !ok {
			result.report(cfg.allowDropIndex, &ValidationError{
				Table:   current.Name,
				Message: fmt.Sprintf("index %q will be dropped", idx.Name),
			})
		}
	}
}

// ValidateTable validates a single table definition.
func ValidateTable(t *schema.Table) *ValidationResult {
	result := &ValidationResult{}
	if t.PrimaryKey == nil || len(t.PrimaryKey.Parts) == 0 {
		result.Warnings = append(result.Warnings, &ValidationError{
			Table:   t.Name,
			Message: "table has no primary key",
		})
	}
	colNames := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if colNames[c.Name] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Column:  c.Name,
				Message: "duplicate column name",
			})
		}
		colNames[c.Name] = true
	}
	idxNames := make(map[string]bool, len(t.Indexes))
	for _, idx := range t.Indexes {
		if idxNames[idx.Name] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Message: fmt.Sprintf("duplicate index name: %s", idx.Name),
			})
		}
		idxNames[idx.Name] = true
		for _, p := range idx.Parts {
			if p.C != nil && !colNames[p.C.Name] {
				result.Errors = append(result.Errors, &ValidationError{
					Table:   t.Name,
					Message: fmt.Sprintf("index %q references non-existent column %q", idx.Name, p.C.Name),
				})
			}
		}
	}
	for _, fk := range t.ForeignKeys {
		for _, c := range fk.Columns {
			if !colNames[c.Name] {
				result.Errors = append(result.Errors, &ValidationError{
					Table:   t.Name,
					Message: fmt.Sprintf("foreign key %s references non-existent column %q", fk.Symbol, c.Name),
				})
			}
		}
		if len(fk.Columns) != len(fk.RefColumns) {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Message: fmt.Sprintf("foreign key %s pairs %d columns with %d referenced columns", fk.Symbol, len(fk.Columns), len(fk.RefColumns)),
			})
		}
	}
	return result
}

// ValidateSchema validates all tables in a schema.
func ValidateSchema(s *schema.Schema) *ValidationResult {
	result := &ValidationResult{}
	tableNames := make(map[string]bool, len(s.Tables))
	for _, t := range s.Tables {
		if tableNames[t.Name] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Message: "duplicate table name",
			})
		}
		tableNames[t.Name] = true
		tr := ValidateTable(t)
		result.Errors = append(result.Errors, tr.Errors...)
		result.Warnings = append(result.Warnings, tr.Warnings...)
	}
	for _, t := range s.Tables {
		for _, fk := range t.ForeignKeys {
			if fk.RefTable == nil || !tableNames[fk.RefTable.Name] {
				name := "<nil>"
				if fk.RefTable != nil {
					name = fk.RefTable.Name
				}
				result.Errors = append(result.Errors, &ValidationError{
					Table:   t.Name,
					Message: fmt.Sprintf("foreign key references non-existent table %q", name),
				})
			}
		}
	}
	return result
}

func nullable(c *schema.Column) bool { return c.Type != nil && c.Type.Null }

func unique(t *schema.Table, column string) bool {
	for _, idx := range t.Indexes {
		if idx.Unique && len(idx.Parts) == 1 && idx.Parts[0].C != nil && idx.Parts[0].C.Name == column {
			return true
		}
	}
	return false
}

func size(c *schema.Column) int {
	if c.Type == nil {
		return 0
	}
	if s, ok := c.Type.Type.(*schema.StringType); ok {
		return s.Size
	}
	return 0
}

func typeName(c *schema.Column) string {
	if c.Type == nil || c.Type.Type == nil {
		return ""
	}
	switch t := c.Type.Type.(type) {
	case *schema.StringType:
		if t.Size > 0 {
			return fmt.Sprintf("%s(%d)", t.T, t.Size)
		}
		return t.T
	case *schema.DecimalType:
		return fmt.Sprintf("%s(%d,%d)", t.T, t.Precision, t.Scale)
	case *schema.IntegerType:
		return t.T
	case *schema.FloatType:
		return t.T
	case *schema.BoolType:
		return t.T
	case *schema.BinaryType:
		return t.T
	case *schema.TimeType:
		return t.T
	case *schema.UUIDType:
		return t.T
	case *schema.UnsupportedType:
		return t.T
	default:
		return fmt.Sprintf("%T", t)
	}
}
