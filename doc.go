// Package goliath is a relational-mapping and SQL-synthesis engine.
//
// It translates an in-memory graph of mapped entities plus declarative
// mapping metadata into vendor-specific SELECT, INSERT, UPDATE and DELETE
// statements, and tracks which entity fields changed since load so that
// writes only touch modified columns.
//
// # Packages
//
//   - mapping: EntityMap, Property and Relation metadata, YAML loading,
//     validation and the reflection accessor cache
//   - tracking: per-instance change sets (dirty checking)
//   - dialect: per-RDBMS type registry, escaping, parameter names,
//     statement templates, paging and functions
//   - filter: WHERE / ORDER BY fragments with positional parameters
//   - statement: Insert, Update and Delete builders producing ordered
//     operation lists
//   - query: SELECT and COUNT builder resolving joins from relation metadata
//   - dialect/sql: reference executor over database/sql
//   - dialect/sql/schema: table creation and mapping change checks
//   - session: a facade wiring the pieces together
//
// # Usage
//
//	cfg, err := mapping.LoadFiles("maps/zoo.yml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	drv, err := sql.Open(dialect.SQLite, "sqlite", "file:zoo.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	s, err := session.New(cfg, drv)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	z := &Zoo{Name: "SD Zoo"}
//	if err := s.Insert(ctx, z); err != nil {
//	    log.Fatal(err)
//	}
//
// All errors raised by the engine belong to the typed family declared in
// this package (MappingConfigurationError, UnsupportedOperationError,
// PreconditionError, ExecutionError and LookupError).
package goliath
