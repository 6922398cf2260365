package dialect

import (
	"fmt"
	"strings"
)

// DbType is the vendor-neutral type of a mapped column or a bound parameter.
type DbType uint8

// Vendor-neutral column types.
const (
	TypeUnknown DbType = iota
	TypeAnsiString
	TypeAnsiStringFixedLength
	TypeString
	TypeStringFixedLength
	TypeBinary
	TypeBoolean
	TypeByte
	TypeSByte
	TypeInt16
	TypeInt32
	TypeInt64
	TypeUInt16
	TypeUInt32
	TypeUInt64
	TypeSingle
	TypeDouble
	TypeDecimal
	TypeCurrency
	TypeDate
	TypeTime
	TypeDateTime
	TypeDateTime2
	TypeDateTimeOffset
	TypeGuid
	TypeXml
	TypeObject
	endTypes
)

var typeNames = [...]string{
	TypeUnknown:               "Unknown",
	TypeAnsiString:            "AnsiString",
	TypeAnsiStringFixedLength: "AnsiStringFixedLength",
	TypeString:                "String",
	TypeStringFixedLength:     "StringFixedLength",
	TypeBinary:                "Binary",
	TypeBoolean:               "Boolean",
	TypeByte:                  "Byte",
	TypeSByte:                 "SByte",
	TypeInt16:                 "Int16",
	TypeInt32:                 "Int32",
	TypeInt64:                 "Int64",
	TypeUInt16:                "UInt16",
	TypeUInt32:                "UInt32",
	TypeUInt64:                "UInt64",
	TypeSingle:                "Single",
	TypeDouble:                "Double",
	TypeDecimal:               "Decimal",
	TypeCurrency:              "Currency",
	TypeDate:                  "Date",
	TypeTime:                  "Time",
	TypeDateTime:              "DateTime",
	TypeDateTime2:             "DateTime2",
	TypeDateTimeOffset:        "DateTimeOffset",
	TypeGuid:                  "Guid",
	TypeXml:                   "Xml",
	TypeObject:                "Object",
}

// String returns the name of the type.
func (t DbType) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return fmt.Sprintf("DbType(%d)", t)
}

// Valid reports if the type is a known, non-zero type.
func (t DbType) Valid() bool { return t > TypeUnknown && t < endTypes }

// Numeric reports if the type holds numbers.
func (t DbType) Numeric() bool {
	switch t {
	case TypeByte, TypeSByte, TypeInt16, TypeInt32, TypeInt64, TypeUInt16,
		TypeUInt32, TypeUInt64, TypeSingle, TypeDouble, TypeDecimal, TypeCurrency:
		return true
	}
	return false
}

// Textual reports if the type holds character data.
func (t DbType) Textual() bool {
	switch t {
	case TypeAnsiString, TypeAnsiStringFixedLength, TypeString, TypeStringFixedLength, TypeXml:
		return true
	}
	return false
}

// ParseDbType parses a vendor-neutral type name such as "Int32" or "string".
func ParseDbType(s string) (DbType, error) {
	for i, name := range typeNames {
		if strings.EqualFold(name, s) {
			return DbType(i), nil
		}
	}
	return TypeUnknown, fmt.Errorf("dialect: unknown db type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t DbType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *DbType) UnmarshalText(text []byte) error {
	v, err := ParseDbType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Parameter is a named value bound to a statement.
type Parameter struct {
	// Name of the parameter without the dialect prefix, e.g. "qPm0".
	Name string
	// Value holds the bound value, or a Deferred resolved at execution time.
	Value any
	// DbType is the explicit type of the parameter. TypeUnknown lets the
	// driver infer it from the value.
	DbType DbType
}

// Deferred is a parameter value that is only known once the operations
// preceding it have run, like a generated key of a parent row.
type Deferred func() (any, error)

// NewParameter returns a parameter with an inferred type.
func NewParameter(name string, value any) Parameter {
	return Parameter{Name: name, Value: value}
}

// Resolve returns the value of the parameter, invoking it if deferred.
func (p Parameter) Resolve() (any, error) {
	if d, ok := p.Value.(Deferred); ok {
		return d()
	}
	return p.Value, nil
}

// IsDeferred reports if the parameter value is resolved at execution time.
func (p Parameter) IsDeferred() bool {
	_, ok := p.Value.(Deferred)
	return ok
}
