// Package session runs the statement and query builders of a mapping
// configuration on a database, feeding generated keys back into the
// entities and keeping their change trackers in step.
//
//	s, err := session.New(cfg, drv)
//	if err != nil {
//		return err
//	}
//	z := &zoo.Zoo{Name: "SD Zoo"}
//	if err := s.Insert(ctx, z); err != nil {
//		return err
//	}
//	z.SetCity("San Diego")
//	if err := s.Update(ctx, z); err != nil { // writes City only
//		return err
//	}
//	m, err := session.Get[zoo.Monkey](ctx, s, 1)
//
// Transactions are scoped with Tx; every statement of fn runs on the same
// transaction:
//
//	err := s.Tx(ctx, func(tx *session.Session) error {
//		return tx.Delete(ctx, m)
//	})
package session
