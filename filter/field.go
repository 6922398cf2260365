package filter

// Field is a typed column that builds clauses for Filter.Match.
//
// Usage:
//
//	var (
//		Name = filter.StringField("Name")
//		Age  = filter.Field[int]("Age")
//	)
//	f := filter.New().Match(Name.HasPrefix("SD"), Age.GT(3))
type Field[T any] string

// Name returns the column name.
func (f Field[T]) Name() string { return string(f) }

// EQ returns a clause that checks if the column equals v.
func (f Field[T]) EQ(v T) *Clause {
	return &Clause{Left: string(f), Op: Equal, Value: v}
}

// NEQ returns a clause that checks if the column does not equal v.
func (f Field[T]) NEQ(v T) *Clause {
	return &Clause{Left: string(f), Op: NotEqual, Value: v}
}

// GT returns a clause that checks if the column is greater than v.
func (f Field[T]) GT(v T) *Clause {
	return &Clause{Left: string(f), Op: GreaterThan, Value: v}
}

// GTE returns a clause that checks if the column is greater than or equal to v.
func (f Field[T]) GTE(v T) *Clause {
	return &Clause{Left: string(f), Op: GreaterOrEquals, Value: v}
}

// LT returns a clause that checks if the column is less than v.
func (f Field[T]) LT(v T) *Clause {
	return &Clause{Left: string(f), Op: LowerThan, Value: v}
}

// LTE returns a clause that checks if the column is less than or equal to v.
func (f Field[T]) LTE(v T) *Clause {
	return &Clause{Left: string(f), Op: LowerOrEquals, Value: v}
}

// In returns a clause that checks if the column value is in the given list.
func (f Field[T]) In(vs ...T) *Clause {
	v := make([]any, len(vs))
	for i := range vs {
		v[i] = vs[i]
	}
	return &Clause{Left: string(f), Op: In, Value: v}
}

// IsNull returns a clause that checks if the column is NULL.
func (f Field[T]) IsNull() *Clause {
	return &Clause{Left: string(f), Op: IsNull}
}

// NotNull returns a clause that checks if the column is not NULL.
func (f Field[T]) NotNull() *Clause {
	return &Clause{Left: string(f), Op: IsNotNull}
}

// StringField is a string column with pattern predicates.
type StringField string

func (f StringField) field() Field[string] { return Field[string](f) }

// Name returns the column name.
func (f StringField) Name() string { return string(f) }

// EQ returns a clause that checks if the column equals v.
func (f StringField) EQ(v string) *Clause { return f.field().EQ(v) }

// NEQ returns a clause that checks if the column does not equal v.
func (f StringField) NEQ(v string) *Clause { return f.field().NEQ(v) }

// In returns a clause that checks if the column value is in the given list.
func (f StringField) In(vs ...string) *Clause { return f.field().In(vs...) }

// IsNull returns a clause that checks if the column is NULL.
func (f StringField) IsNull() *Clause { return f.field().IsNull() }

// NotNull returns a clause that checks if the column is not NULL.
func (f StringField) NotNull() *Clause { return f.field().NotNull() }

// Contains returns a clause that checks if the column contains v.
func (f StringField) Contains(v string) *Clause {
	return &Clause{Left: string(f), Op: Like, Value: "%" + v + "%"}
}

// ContainsFold returns a case insensitive Contains.
func (f StringField) ContainsFold(v string) *Clause {
	return &Clause{Left: string(f), Op: ILike, Value: "%" + v + "%"}
}

// HasPrefix returns a clause that checks if the column starts with v.
func (f StringField) HasPrefix(v string) *Clause {
	return &Clause{Left: string(f), Op: Like, Value: v + "%"}
}

// HasSuffix returns a clause that checks if the column ends with v.
func (f StringField) HasSuffix(v string) *Clause {
	return &Clause{Left: string(f), Op: Like, Value: "%" + v}
}

// EqualFold returns a clause that checks if the column equals v, ignoring case.
func (f StringField) EqualFold(v string) *Clause {
	return &Clause{Left: string(f), Op: ILike, Value: v}
}

// NotLike returns a clause that checks if the column does not match pattern.
func (f StringField) NotLike(pattern string) *Clause {
	return &Clause{Left: string(f), Op: NotLike, Value: pattern}
}
