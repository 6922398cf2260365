package dialect

// NewSQLServer returns the Microsoft SQL Server dialect. It quotes with
// square brackets, binds @name parameters natively and pages with a
// ROW_NUMBER() window.
func NewSQLServer(opts ...Option) *Dialect {
	d := newDialect(SQLServer)
	d.paging = rowNumber
	d.key = func(*Dialect, string, string) KeyRetrieval {
		return KeyRetrieval{Fragment: "SELECT SCOPE_IDENTITY()", Mode: KeyScalar}
	}
	d.RegisterType(TypeAnsiString, "varchar", 255)
	d.RegisterType(TypeAnsiStringFixedLength, "char", 1)
	d.RegisterType(TypeString, "nvarchar", 255)
	d.RegisterType(TypeString, "ntext")
	d.RegisterType(TypeAnsiString, "text")
	d.RegisterType(TypeStringFixedLength, "nchar", 1)
	d.RegisterType(TypeBinary, "varbinary", 8000)
	d.RegisterType(TypeBinary, "image")
	d.RegisterType(TypeBinary, "binary", 1)
	d.RegisterType(TypeBinary, "timestamp")
	d.RegisterType(TypeBinary, "rowversion")
	d.RegisterType(TypeBoolean, "bit")
	d.RegisterType(TypeByte, "tinyint")
	d.RegisterType(TypeInt16, "smallint")
	d.RegisterType(TypeInt32, "int")
	d.RegisterType(TypeInt64, "bigint")
	d.RegisterType(TypeSingle, "real")
	d.RegisterType(TypeDouble, "float")
	d.RegisterType(TypeDecimal, "decimal")
	d.RegisterType(TypeDecimal, "numeric")
	d.RegisterType(TypeCurrency, "money")
	d.RegisterType(TypeCurrency, "smallmoney")
	d.RegisterType(TypeDate, "date")
	d.RegisterType(TypeTime, "time")
	d.RegisterType(TypeDateTime, "datetime")
	d.RegisterType(TypeDateTime, "smalldatetime")
	d.RegisterType(TypeDateTime2, "datetime2")
	d.RegisterType(TypeDateTimeOffset, "datetimeoffset")
	d.RegisterType(TypeGuid, "uniqueidentifier")
	d.RegisterType(TypeXml, "xml")
	d.RegisterType(TypeObject, "sql_variant")

	d.RegisterFunction("COUNT", "COUNT(%s)")
	d.RegisterFunction("UPPER", "UPPER(%s)")
	d.RegisterFunction("LOWER", "LOWER(%s)")
	d.RegisterFunction("LENGTH", "LEN(%s)")
	d.RegisterFunction("COALESCE", "COALESCE(%s)")
	d.RegisterFunction("NOW", "GETDATE()")
	d.RegisterFunction("GETDATE", "GETDATE()")
	d.RegisterFunction("NEWID", "NEWID()")
	for _, opt := range opts {
		opt(d)
	}
	return d
}
