// Package sql executes the statements rendered by the statement and query
// builders on database/sql.
//
// An Executor binds the named parameters of a dialect the way its driver
// expects them (sql.Named for SQL Server and SQLite, $n for PostgreSQL, ?
// for MySQL), resolves deferred parameters right before a statement runs and
// feeds the keys generated by inserts back into the entities:
//
//	drv, err := sql.Open(dialect.SQLite, "sqlite", "file:zoo.db")
//	if err != nil {
//		return err
//	}
//	list, err := statement.NewInsert(drv.Dialect(), zooMap, z).Build()
//	if err != nil {
//		return err
//	}
//	err = drv.InTx(ctx, func(tx *sql.Tx) error {
//		return tx.Run(ctx, list)
//	})
//
// Failures are returned as *goliath.ExecutionError wrapping the driver error;
// IsConstraintError and its siblings classify them.
package sql
