// Package statement turns mapped entity instances into ordered lists of
// INSERT, UPDATE and DELETE operations.
//
// Builders never touch the database. The OperationList they return is meant
// to be executed in Flatten order by an executor, which feeds the keys
// generated by an insert forward through InsertInfo.SetKey; parameters of
// later operations that depend on those keys hold a dialect.Deferred value.
//
//	b := statement.NewInsert(d, zooMap, &zoo.Zoo{Name: "SD Zoo"})
//	list, err := b.Build()
//	if err != nil {
//		return err
//	}
//	for _, op := range list.Flatten() {
//		fmt.Println(op.SQL())
//	}
//	// INSERT INTO [zoos] ([Name], [City], [AcceptNewAnimals]) VALUES (@Name, @City, @AcceptNewAnimals);
//	// SELECT SCOPE_IDENTITY()
package statement
