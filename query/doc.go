// Package query builds the SELECT statements of mapped entities.
//
// A Builder resolves the mapping of an entity into a FROM clause, the joins
// to its ancestors and eager relations, and a select list whose labels
// ({alias}_{property}) keep every column of a flat row distinct:
//
//	b := query.New(d, animalMap)
//	b.Where("Zoo.City").EqualTo("San Diego")
//	b.OrderBy("Name", false).Page(20, 0)
//	s, err := b.Build()
//
// renders, on SQL Server,
//
//	SELECT a0.[Id] AS [a0_Id], ..., z1.[Name] AS [z1_Name], ...
//	FROM [animals] a0 LEFT JOIN [zoos] z1 ON z1.[Id] = a0.[ZooId]
//	WHERE z1.[City] = @qPm0 ...
package query
