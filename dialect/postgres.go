package dialect

// NewPostgres returns the PostgreSQL dialect. Identifiers are double quoted
// and generated keys come back through RETURNING.
//
// Parameters keep the "@" prefix of the other dialects so rendered SQL is
// identical across vendors; executors rebind them to $n (see BindDollar).
func NewPostgres(opts ...Option) *Dialect {
	d := newDialect(Postgres)
	d.open, d.close = `"`, `"`
	d.bind = BindDollar
	d.key = func(d *Dialect, _ string, column string) KeyRetrieval {
		return KeyRetrieval{Fragment: "RETURNING " + d.Escape(column, KindColumn), Mode: KeyScalar, Inline: true}
	}
	d.RegisterType(TypeAnsiString, "varchar", 255)
	d.RegisterType(TypeString, "character varying", 255)
	d.RegisterType(TypeString, "text")
	d.RegisterType(TypeAnsiStringFixedLength, "char", 1)
	d.RegisterType(TypeStringFixedLength, "character", 1)
	d.RegisterType(TypeStringFixedLength, "bpchar")
	d.RegisterType(TypeBinary, "bytea")
	d.RegisterType(TypeBoolean, "boolean")
	d.RegisterType(TypeBoolean, "bool")
	d.RegisterType(TypeInt16, "smallint")
	d.RegisterType(TypeInt16, "int2")
	d.RegisterType(TypeInt32, "integer")
	d.RegisterType(TypeInt32, "int")
	d.RegisterType(TypeInt32, "int4")
	d.RegisterType(TypeInt32, "serial")
	d.RegisterType(TypeInt64, "bigint")
	d.RegisterType(TypeInt64, "int8")
	d.RegisterType(TypeInt64, "bigserial")
	d.RegisterType(TypeSingle, "real")
	d.RegisterType(TypeSingle, "float4")
	d.RegisterType(TypeDouble, "double precision")
	d.RegisterType(TypeDouble, "float8")
	d.RegisterType(TypeDecimal, "numeric")
	d.RegisterType(TypeDecimal, "decimal")
	d.RegisterType(TypeCurrency, "money")
	d.RegisterType(TypeDate, "date")
	d.RegisterType(TypeTime, "time")
	d.RegisterType(TypeDateTime, "timestamp")
	d.RegisterType(TypeDateTime2, "timestamp without time zone")
	d.RegisterType(TypeDateTimeOffset, "timestamp with time zone")
	d.RegisterType(TypeDateTimeOffset, "timestamptz")
	d.RegisterType(TypeGuid, "uuid")
	d.RegisterType(TypeXml, "xml")
	d.RegisterType(TypeObject, "jsonb")
	d.RegisterType(TypeObject, "json")

	d.RegisterFunction("COUNT", "COUNT(%s)")
	d.RegisterFunction("UPPER", "UPPER(%s)")
	d.RegisterFunction("LOWER", "LOWER(%s)")
	d.RegisterFunction("LENGTH", "LENGTH(%s)")
	d.RegisterFunction("COALESCE", "COALESCE(%s)")
	d.RegisterFunction("NOW", "NOW()")
	d.RegisterFunction("NEWID", "gen_random_uuid()")
	for _, opt := range opts {
		opt(d)
	}
	return d
}
