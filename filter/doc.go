// Package filter builds the WHERE and ORDER BY parts of statements.
//
// A Filter is an ordered chain of predicates. Each predicate keeps the join
// word it was created with; the first one is dropped when rendering.
// Literal operands bind a parameter named after their chain position, so
// the third clause of a chain always binds qPm2:
//
//	f := filter.New().
//		Where("Name").EqualTo("SD Zoo").
//		Or("City").ILike("san%").
//		And("z0.Id").GreaterThan(10)
//	where, params, err := f.Build(d)
//	// [Name] = @qPm0 OR LOWER([City]) LIKE LOWER(@qPm1) AND z0.[Id] > @qPm2
//
// Filters feeding an UPDATE or DELETE are built with BuildNonQuery, which
// refuses an empty chain.
package filter
