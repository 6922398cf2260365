package goliath

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for the error families raised by the engine.
var (
	// ErrMappingConfiguration is returned when mapping metadata is inconsistent.
	ErrMappingConfiguration = errors.New("goliath: invalid mapping configuration")

	// ErrUnsupported is returned when a dialect cannot render a type or function.
	ErrUnsupported = errors.New("goliath: unsupported operation")

	// ErrPrecondition is returned when a statement would violate a structural
	// safety rule, such as an UPDATE without a WHERE clause.
	ErrPrecondition = errors.New("goliath: precondition failed")

	// ErrExecution is returned when the executor fails to run a statement.
	ErrExecution = errors.New("goliath: execution failed")

	// ErrLookup is returned when a registry lookup misses.
	ErrLookup = errors.New("goliath: lookup failed")
)

// MappingConfigurationError represents inconsistent mapping metadata: an
// unresolvable Extends or reference, a declared-but-absent property or an
// illegal duplicate registration.
type MappingConfigurationError struct {
	Entity   string // Entity map name
	Property string // Property name (if applicable)
	Message  string
}

// Error returns the error string.
func (e *MappingConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("goliath: mapping error")
	if e.Entity != "" {
		b.WriteString(" on entity ")
		b.WriteString(e.Entity)
	}
	if e.Property != "" {
		b.WriteString(" property ")
		b.WriteString(e.Property)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches ErrMappingConfiguration.
func (e *MappingConfigurationError) Is(err error) bool {
	return err == ErrMappingConfiguration
}

// NewMappingError returns a new MappingConfigurationError.
func NewMappingError(entity, property, format string, args ...any) *MappingConfigurationError {
	return &MappingConfigurationError{Entity: entity, Property: property, Message: fmt.Sprintf(format, args...)}
}

// IsMappingError returns true if the error is a MappingConfigurationError.
func IsMappingError(err error) bool {
	if err == nil {
		return false
	}
	var e *MappingConfigurationError
	return errors.As(err, &e) || errors.Is(err, ErrMappingConfiguration)
}

// UnsupportedOperationError is returned when a dialect is asked to render an
// unregistered type or a function it does not know.
type UnsupportedOperationError struct {
	Dialect string
	Feature string
}

// Error returns the error string.
func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("goliath: %s does not support %s", e.Dialect, e.Feature)
}

// Is reports whether the target matches ErrUnsupported.
func (e *UnsupportedOperationError) Is(err error) bool {
	return err == ErrUnsupported
}

// NewUnsupportedError returns a new UnsupportedOperationError.
func NewUnsupportedError(dialect, feature string) *UnsupportedOperationError {
	return &UnsupportedOperationError{Dialect: dialect, Feature: feature}
}

// IsUnsupported returns true if the error is an UnsupportedOperationError.
func IsUnsupported(err error) bool {
	if err == nil {
		return false
	}
	var e *UnsupportedOperationError
	return errors.As(err, &e) || errors.Is(err, ErrUnsupported)
}

// PreconditionError is returned when a statement would be structurally
// unsafe. Zero filter predicates on an UPDATE or DELETE is the canonical case.
type PreconditionError struct {
	Table   string
	Message string
}

// Error returns the error string.
func (e *PreconditionError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("goliath: precondition failed on %s: %s", e.Table, e.Message)
	}
	return fmt.Sprintf("goliath: precondition failed: %s", e.Message)
}

// Is reports whether the target matches ErrPrecondition.
func (e *PreconditionError) Is(err error) bool {
	return err == ErrPrecondition
}

// NewPreconditionError returns a new PreconditionError.
func NewPreconditionError(table, message string) *PreconditionError {
	return &PreconditionError{Table: table, Message: message}
}

// IsPrecondition returns true if the error is a PreconditionError.
func IsPrecondition(err error) bool {
	if err == nil {
		return false
	}
	var e *PreconditionError
	return errors.As(err, &e) || errors.Is(err, ErrPrecondition)
}

// ExecutionError wraps an error surfaced by the executor. The underlying
// driver error is kept verbatim and available through Unwrap.
type ExecutionError struct {
	Table string // Table of the failed operation
	SQL   string // Statement text
	Err   error  // Underlying driver error
}

// Error returns the error string.
func (e *ExecutionError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("goliath: executing statement on %s: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("goliath: executing statement: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Is reports whether the target matches ErrExecution.
func (e *ExecutionError) Is(err error) bool {
	return err == ErrExecution
}

// NewExecutionError returns a new ExecutionError.
func NewExecutionError(table, sql string, err error) *ExecutionError {
	return &ExecutionError{Table: table, SQL: sql, Err: err}
}

// IsExecutionError returns true if the error is an ExecutionError.
func IsExecutionError(err error) bool {
	if err == nil {
		return false
	}
	var e *ExecutionError
	return errors.As(err, &e)
}

// LookupError is returned when a name is not present in a registry, such as
// a SQL type name unknown to a dialect.
type LookupError struct {
	Kind string // What was looked up (e.g. "sql type", "dialect")
	Name string
}

// Error returns the error string.
func (e *LookupError) Error() string {
	return fmt.Sprintf("goliath: %s %q not found", e.Kind, e.Name)
}

// Is reports whether the target matches ErrLookup.
func (e *LookupError) Is(err error) bool {
	return err == ErrLookup
}

// NewLookupError returns a new LookupError.
func NewLookupError(kind, name string) *LookupError {
	return &LookupError{Kind: kind, Name: name}
}

// IsLookupError returns true if the error is a LookupError.
func IsLookupError(err error) bool {
	if err == nil {
		return false
	}
	var e *LookupError
	return errors.As(err, &e) || errors.Is(err, ErrLookup)
}

// AggregateError represents multiple errors collected during an operation,
// such as a validation pass over a whole mapping configuration.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "goliath: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("goliath: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors so errors.Is and errors.As see each one.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}
