package sql

import (
	"errors"

	"gorm.io/gorm"

	"github.com/malweka/GoliathData-sub002/dialect"
)

// FromGorm returns an executor running on the connection pool of a gorm
// session. Inside db.Transaction the pool is the transaction, so operation
// lists run as part of it. A nil d selects the dialect named after the gorm
// dialector.
//
//	err := gdb.Transaction(func(tx *gorm.DB) error {
//		exec, err := sql.FromGorm(tx, nil)
//		if err != nil {
//			return err
//		}
//		return exec.Run(ctx, list)
//	})
func FromGorm(db *gorm.DB, d *dialect.Dialect, opts ...Option) (*Executor, error) {
	if d == nil {
		if db.Dialector == nil {
			return nil, errors.New("dialect/sql: gorm session has no dialector")
		}
		var err error
		if d, err = dialect.Get(db.Dialector.Name()); err != nil {
			return nil, err
		}
	}
	if db.Statement == nil || db.Statement.ConnPool == nil {
		return nil, errors.New("dialect/sql: gorm session has no connection pool")
	}
	return NewExecutor(d, db.Statement.ConnPool, opts...), nil
}
