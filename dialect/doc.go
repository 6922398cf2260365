// Package dialect provides the per-RDBMS SQL dialects used by the engine.
//
// A Dialect translates vendor-neutral descriptors into literal SQL and holds
// the vendor's type knowledge: the DbType registry, identifier escaping,
// parameter naming, statement templates, paging syntax and a function
// registry.
//
// # Supported Dialects
//
//   - SQLServer: square bracket quoting, ROW_NUMBER() paging, SCOPE_IDENTITY()
//   - Postgres: double quote quoting, LIMIT/OFFSET, RETURNING
//   - SQLite: square bracket quoting, LIMIT/OFFSET, last_insert_rowid()
//   - MySQL: backtick quoting, LIMIT/OFFSET, LAST_INSERT_ID()
//
// Each dialect is identified by a constant string that is also the name of
// the database/sql driver the CLI registers for it:
//
//	dialect.SQLServer = "sqlserver"
//	dialect.Postgres  = "postgres"
//	dialect.MySQL     = "mysql"
//	dialect.SQLite    = "sqlite"
//
// # Usage
//
//	d, err := dialect.Get(dialect.Postgres)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	d.Escape("public.zoos", dialect.KindTable) // "public"."zoos"
//	d.CreateParameterName("qPm0")              // @qPm0
//	t, err := d.SqlStringToDbType("varchar(50)") // TypeAnsiString
//
// # Parameters
//
// Statements are always rendered with named parameters (@name). Drivers
// that only understand positional placeholders are served by the executor
// in dialect/sql, which rebinds the names according to BindStyle.
package dialect
