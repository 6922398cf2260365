package dialect

// NewSQLite returns the SQLite dialect. SQLite accepts square bracket
// quoting and @name parameters; keys are read through LastInsertId.
func NewSQLite(opts ...Option) *Dialect {
	d := newDialect(SQLite)
	d.key = func(*Dialect, string, string) KeyRetrieval {
		return KeyRetrieval{Fragment: "SELECT last_insert_rowid()", Mode: KeyLastInsertID}
	}
	d.RegisterType(TypeString, "text")
	d.RegisterType(TypeString, "varchar", 255)
	d.RegisterType(TypeString, "nvarchar", 255)
	d.RegisterType(TypeStringFixedLength, "nchar", 1)
	d.RegisterType(TypeAnsiString, "clob")
	d.RegisterType(TypeBinary, "blob")
	d.RegisterType(TypeBoolean, "boolean")
	d.RegisterType(TypeInt32, "int")
	d.RegisterType(TypeInt64, "integer")
	d.RegisterType(TypeInt64, "bigint")
	d.RegisterType(TypeInt16, "smallint")
	d.RegisterType(TypeDouble, "real")
	d.RegisterType(TypeDouble, "double")
	d.RegisterType(TypeDecimal, "numeric")
	d.RegisterType(TypeDecimal, "decimal")
	d.RegisterType(TypeDate, "date")
	d.RegisterType(TypeDateTime, "datetime")
	d.RegisterType(TypeDateTime, "timestamp")
	d.RegisterType(TypeGuid, "uuid")

	d.RegisterFunction("COUNT", "COUNT(%s)")
	d.RegisterFunction("UPPER", "UPPER(%s)")
	d.RegisterFunction("LOWER", "LOWER(%s)")
	d.RegisterFunction("LENGTH", "LENGTH(%s)")
	d.RegisterFunction("COALESCE", "COALESCE(%s)")
	d.RegisterFunction("NOW", "CURRENT_TIMESTAMP")
	for _, opt := range opts {
		opt(d)
	}
	return d
}
