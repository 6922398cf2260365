package dialect

// NewMySQL returns the MySQL dialect. Identifiers are quoted with
// backticks, parameters are rebound to ? and keys come from LastInsertId.
func NewMySQL(opts ...Option) *Dialect {
	d := newDialect(MySQL)
	d.open, d.close = "`", "`"
	d.bind = BindQuestion
	d.emptyRow = "() VALUES ()"
	d.key = func(*Dialect, string, string) KeyRetrieval {
		return KeyRetrieval{Fragment: "SELECT LAST_INSERT_ID()", Mode: KeyLastInsertID}
	}
	d.RegisterType(TypeString, "varchar", 255)
	d.RegisterType(TypeString, "text")
	d.RegisterType(TypeString, "longtext")
	d.RegisterType(TypeStringFixedLength, "char", 1)
	d.RegisterType(TypeBinary, "varbinary", 255)
	d.RegisterType(TypeBinary, "blob")
	d.RegisterType(TypeBoolean, "tinyint(1)")
	d.RegisterType(TypeBoolean, "bool")
	d.RegisterType(TypeByte, "tinyint")
	d.RegisterType(TypeInt16, "smallint")
	d.RegisterType(TypeInt32, "int")
	d.RegisterType(TypeInt64, "bigint")
	d.RegisterType(TypeSingle, "float")
	d.RegisterType(TypeDouble, "double")
	d.RegisterType(TypeDecimal, "decimal")
	d.RegisterType(TypeDate, "date")
	d.RegisterType(TypeTime, "time")
	d.RegisterType(TypeDateTime, "datetime")
	d.RegisterType(TypeDateTime, "timestamp")
	d.RegisterType(TypeGuid, "char(36)")
	d.RegisterType(TypeObject, "json")

	d.RegisterFunction("COUNT", "COUNT(%s)")
	d.RegisterFunction("UPPER", "UPPER(%s)")
	d.RegisterFunction("LOWER", "LOWER(%s)")
	d.RegisterFunction("LENGTH", "CHAR_LENGTH(%s)")
	d.RegisterFunction("COALESCE", "COALESCE(%s)")
	d.RegisterFunction("NOW", "NOW()")
	d.RegisterFunction("NEWID", "UUID()")
	for _, opt := range opts {
		opt(d)
	}
	return d
}
