package sql

import (
	"errors"
	"slices"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// Drivers other than pq and mysql expose their codes through one of these
// methods: pgx through SQLState, mssql.Error through SQLErrorNumber.
type (
	sqlStateError  interface{ SQLState() string }
	errorCoder     interface{ Code() string }
	mssqlNumberer  interface{ SQLErrorNumber() int32 }
	constraintKind struct {
		sqlState string
		mysql    []uint16
		mssql    []int32
		messages []string
	}
)

var (
	uniqueViolation = constraintKind{
		sqlState: "23505",
		mysql:    []uint16{1062},
		mssql:    []int32{2627, 2601},
		messages: []string{
			"Error 1062",
			"violates unique constraint",
			"UNIQUE constraint failed",
			"Cannot insert duplicate key",
		},
	}
	foreignKeyViolation = constraintKind{
		sqlState: "23503",
		mysql:    []uint16{1451, 1452},
		mssql:    []int32{547},
		messages: []string{
			"Error 1451",
			"Error 1452",
			"violates foreign key constraint",
			"FOREIGN KEY constraint failed",
			"conflicted with the FOREIGN KEY constraint",
			"conflicted with the REFERENCE constraint",
		},
	}
	checkViolation = constraintKind{
		sqlState: "23514",
		mysql:    []uint16{3819},
		messages: []string{
			"Error 3819",
			"violates check constraint",
			"CHECK constraint failed",
			"conflicted with the CHECK constraint",
		},
	}
)

// IsConstraintError reports if err, possibly wrapped in a
// goliath.ExecutionError, results from a constraint violation.
func IsConstraintError(err error) bool {
	return IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err)
}

// IsUniqueConstraintError reports if err results from a duplicate value in
// a unique index.
func IsUniqueConstraintError(err error) bool { return uniqueViolation.match(err) }

// IsForeignKeyConstraintError reports if err results from a missing parent
// row or a delete of a referenced row.
func IsForeignKeyConstraintError(err error) bool { return foreignKeyViolation.match(err) }

// IsCheckConstraintError reports if err results from a check constraint.
func IsCheckConstraintError(err error) bool { return checkViolation.match(err) }

func (k constraintKind) match(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == k.sqlState {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && slices.Contains(k.mysql, myErr.Number) {
		return true
	}
	if e, ok := asError[sqlStateError](err); ok && e.SQLState() == k.sqlState {
		return true
	}
	if e, ok := asError[errorCoder](err); ok && e.Code() == k.sqlState {
		return true
	}
	if e, ok := asError[mssqlNumberer](err); ok && slices.Contains(k.mssql, e.SQLErrorNumber()) {
		return true
	}
	msg := err.Error()
	for _, m := range k.messages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// asError extracts an error implementing T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}
