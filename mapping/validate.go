package mapping

import (
	"fmt"
	"strings"

	goliath "github.com/malweka/GoliathData-sub002"
)

// ValidationError is a single problem found in a mapping configuration.
type ValidationError struct {
	Entity   string
	Property string
	Message  string
}

func (e *ValidationError) Error() string {
	if e.Property != "" {
		return fmt.Sprintf("%s.%s: %s", e.Entity, e.Property, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Entity, e.Message)
}

// ValidationResult holds the results of validating a MapConfig.
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

// Err returns the errors as mapping configuration errors, or nil.
func (r *ValidationResult) Err() error {
	if !r.HasErrors() {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = goliath.NewMappingError(e.Entity, e.Property, "%s", e.Message)
	}
	return goliath.NewAggregateError(errs...)
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

func (r *ValidationResult) errorf(entity, property, format string, args ...any) {
	r.Errors = append(r.Errors, &ValidationError{Entity: entity, Property: property, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationResult) warnf(entity, property, format string, args ...any) {
	r.Warnings = append(r.Warnings, &ValidationError{Entity: entity, Property: property, Message: fmt.Sprintf(format, args...)})
}

// Validate checks the configuration for consistency: inheritance and
// relation targets resolve, property names are unique along each
// inheritance chain, and relations carry complete metadata. Entities
// without a primary key are reported as warnings since they cannot be
// updated or deleted.
//
// Example:
//
//	result := cfg.Validate()
//	if result.HasErrors() {
//	    log.Fatal("invalid mapping:\n", result)
//	}
func (c *MapConfig) Validate() *ValidationResult {
	result := &ValidationResult{}
	tables := make(map[string]string, len(c.entities))
	for _, e := range c.entities {
		table := strings.ToLower(e.QualifiedTable())
		if other, ok := tables[table]; ok && table != "" {
			result.errorf(e.Name, "", "table %q is already mapped by %s", e.TableName, other)
		}
		tables[table] = e.Name
		validateEntity(c, e, result)
	}
	return result
}

func validateEntity(c *MapConfig, e *EntityMap, result *ValidationResult) {
	if e.TableName == "" {
		result.errorf(e.Name, "", "missing table name")
	}
	chain, err := e.Ancestors()
	if err != nil {
		result.errorf(e.Name, "", "extends %q: %s", e.Extends, cause(err))
		chain = nil
	}
	if e.PrimaryKey == nil {
		result.warnf(e.Name, "", "no primary key; updates and deletes are not possible")
	}
	if e.Extends != "" && e.PrimaryKey != nil && e.PrimaryKey.Generator == GeneratorIdentity {
		result.errorf(e.Name, "", "an inheriting entity takes its key from %s and cannot use an identity key", e.Extends)
	}
	inherited := make(map[string]bool)
	for _, a := range chain {
		for _, p := range a.Properties {
			if !p.IsPrimaryKey {
				inherited[p.PropertyName] = true
			}
		}
		for _, r := range a.Relations {
			inherited[r.PropertyName] = true
		}
	}
	seen := make(map[string]bool)
	columns := make(map[string]bool)
	check := func(p *Property) {
		switch {
		case p.PropertyName == "":
			result.errorf(e.Name, "", "property without a name")
			return
		case seen[p.PropertyName]:
			result.errorf(e.Name, p.PropertyName, "property declared twice")
		case inherited[p.PropertyName]:
			result.errorf(e.Name, p.PropertyName, "property is already declared by an ancestor")
		}
		seen[p.PropertyName] = true
		if p.ColumnName == "" {
			return
		}
		col := strings.ToLower(p.ColumnName)
		if columns[col] {
			result.errorf(e.Name, p.PropertyName, "column %q mapped twice", p.ColumnName)
		}
		columns[col] = true
		if p.IsIdentity && p.DbType != 0 && !p.DbType.Numeric() {
			result.warnf(e.Name, p.PropertyName, "identity column of non numeric type %s", p.DbType)
		}
	}
	for _, p := range e.Properties {
		check(p)
	}
	for _, r := range e.Relations {
		switch r.RelationType {
		case ManyToOne:
			check(&r.Property)
			validateReference(c, e, r, result)
		case ManyToMany:
			if seen[r.PropertyName] {
				result.errorf(e.Name, r.PropertyName, "property declared twice")
			}
			seen[r.PropertyName] = true
			validateReference(c, e, r, result)
			validateJunction(e, r, result)
		case OneToMany:
			seen[r.PropertyName] = true
			validateReference(c, e, r, result)
		default:
			result.errorf(e.Name, r.PropertyName, "unknown relation type %s", r.RelationType)
		}
	}
}

func validateReference(c *MapConfig, e *EntityMap, r *Relation, result *ValidationResult) {
	if r.ReferenceEntityName == "" {
		result.errorf(e.Name, r.PropertyName, "%s relation without a reference entity", r.RelationType)
		return
	}
	ref, err := c.Entity(r.ReferenceEntityName)
	if err != nil {
		result.errorf(e.Name, r.PropertyName, "reference %q is not mapped", r.ReferenceEntityName)
		return
	}
	if r.ReferenceTable == "" {
		r.ReferenceTable = ref.TableName
	}
	if r.ReferenceColumn == "" {
		if pk, ok := ref.PrimaryKey.Single(); ok {
			r.ReferenceColumn = pk.ColumnName
		}
	}
	if pk, ok := ref.PrimaryKey.Single(); ok {
		if r.ReferenceProperty == "" {
			r.ReferenceProperty = pk.PropertyName
		}
		if r.DbType == 0 && r.RelationType == ManyToOne {
			r.DbType = pk.DbType
		}
	}
	if r.RelationType != ManyToOne {
		return
	}
	if r.ColumnName == "" {
		result.errorf(e.Name, r.PropertyName, "ManyToOne relation without a local column")
	}
	if r.ReferenceColumn == "" {
		result.errorf(e.Name, r.PropertyName, "cannot infer the referenced column of %s", ref.Name)
		return
	}
	if _, ok := ref.Column(r.ReferenceColumn); !ok {
		result.errorf(e.Name, r.PropertyName, "column %q does not exist on %s", r.ReferenceColumn, ref.Name)
	}
}

func validateJunction(e *EntityMap, r *Relation, result *ValidationResult) {
	var missing []string
	if r.MapTableName == "" {
		missing = append(missing, "mapTable")
	}
	if r.MapColumn == "" {
		missing = append(missing, "mapColumn")
	}
	if r.MapReferenceColumn == "" {
		missing = append(missing, "mapReferenceColumn")
	}
	if len(missing) > 0 {
		result.errorf(e.Name, r.PropertyName, "ManyToMany relation is missing %s", strings.Join(missing, ", "))
	}
	if _, ok := e.PrimaryKey.Single(); !ok && e.PrimaryKey != nil {
		result.errorf(e.Name, r.PropertyName, "ManyToMany relation requires a single column key")
	}
}

func cause(err error) string {
	if me, ok := err.(*goliath.MappingConfigurationError); ok {
		return me.Message
	}
	return err.Error()
}
