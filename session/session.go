package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	goliath "github.com/malweka/GoliathData-sub002"
	"github.com/malweka/GoliathData-sub002/dialect"
	"github.com/malweka/GoliathData-sub002/dialect/sql"
	"github.com/malweka/GoliathData-sub002/filter"
	"github.com/malweka/GoliathData-sub002/lazy"
	"github.com/malweka/GoliathData-sub002/mapping"
	"github.com/malweka/GoliathData-sub002/query"
	"github.com/malweka/GoliathData-sub002/statement"
	"github.com/malweka/GoliathData-sub002/tracking"
)

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger of the session and of the builders it runs.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// Session runs the builders of one mapping configuration on a database.
// Entities are mapped by the name of their Go type: a *zoo.Monkey is saved
// with the entity map named Monkey.
//
// A Session holds no per-call state and is safe for concurrent use when its
// executor is; the entity instances passed to it are not.
type Session struct {
	config *mapping.MapConfig
	exec   *sql.Executor
	drv    *sql.Driver
	logger *slog.Logger
}

// New returns a session over a driver. The configuration is resolved first.
func New(cfg *mapping.MapConfig, drv *sql.Driver, opts ...Option) (*Session, error) {
	s, err := NewWithExecutor(cfg, drv.Executor, opts...)
	if err != nil {
		return nil, err
	}
	s.drv = drv
	return s, nil
}

// NewWithExecutor returns a session over an executor, e.g. one running on a
// gorm transaction. Sessions built this way cannot start transactions.
func NewWithExecutor(cfg *mapping.MapConfig, exec *sql.Executor, opts ...Option) (*Session, error) {
	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	s := &Session{config: cfg, exec: exec, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the mapping configuration of the session.
func (s *Session) Config() *mapping.MapConfig { return s.config }

// Dialect returns the dialect statements are rendered with.
func (s *Session) Dialect() *dialect.Dialect { return s.exec.Dialect() }

// Executor returns the executor running the statements.
func (s *Session) Executor() *sql.Executor { return s.exec }

// Tx runs fn with a session bound to a new transaction. The transaction is
// committed when fn succeeds and rolled back otherwise.
func (s *Session) Tx(ctx context.Context, fn func(*Session) error) error {
	if s.drv == nil {
		return errors.New("session: transactions require a session opened on a driver")
	}
	return s.drv.InTx(ctx, func(tx *sql.Tx) error {
		return fn(&Session{config: s.config, exec: tx.Executor, logger: s.logger})
	})
}

// Entity returns the entity map of instance.
func (s *Session) Entity(instance any) (*mapping.EntityMap, error) {
	t := reflect.TypeOf(instance)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, goliath.NewMappingError("", "", "%T is not an entity", instance)
	}
	return s.config.Entity(t.Name())
}

// Insert saves a new instance, its unsaved ManyToOne targets and its
// ManyToMany junction rows. Generated keys are assigned onto the instances
// and the instance starts tracking changes.
func (s *Session) Insert(ctx context.Context, instance any) error {
	e, err := s.Entity(instance)
	if err != nil {
		return err
	}
	list, err := statement.NewInsert(s.Dialect(), e, instance, statement.WithLogger(s.logger)).Build()
	if err != nil {
		return err
	}
	if err := s.exec.Run(ctx, list); err != nil {
		return err
	}
	return Attach(e, instance)
}

// Update writes the changes of instance, scoped by its key. A tracked
// instance without changes runs no statement.
func (s *Session) Update(ctx context.Context, instance any) error {
	e, err := s.Entity(instance)
	if err != nil {
		return err
	}
	list, err := statement.NewUpdate(s.Dialect(), e, instance, statement.WithLogger(s.logger)).WhereKey().Build()
	if err != nil {
		return err
	}
	if err := s.exec.Run(ctx, list); err != nil {
		return err
	}
	if t := tracking.Of(instance); t.IsTracking() {
		t.Reset()
	}
	return nil
}

// Delete removes the rows of instance, child table first, and its junction
// rows. The tracker of the instance is cleared.
func (s *Session) Delete(ctx context.Context, instance any) error {
	e, err := s.Entity(instance)
	if err != nil {
		return err
	}
	list, err := statement.NewDelete(s.Dialect(), e, instance, statement.WithLogger(s.logger)).Build()
	if err != nil {
		return err
	}
	if err := s.exec.Run(ctx, list); err != nil {
		return err
	}
	if t := tracking.Of(instance); t != nil {
		t.Clear()
	}
	return nil
}

// DeleteWhere removes the rows of the named entity matching f.
func (s *Session) DeleteWhere(ctx context.Context, entity string, f *filter.Filter) error {
	e, err := s.config.Entity(entity)
	if err != nil {
		return err
	}
	list, err := statement.DeleteWhere(s.Dialect(), e, f, statement.WithLogger(s.logger))
	if err != nil {
		return err
	}
	return s.exec.Run(ctx, list)
}

// Query returns a query builder over the named entity.
func (s *Session) Query(entity string) (*query.Builder, error) {
	e, err := s.config.Entity(entity)
	if err != nil {
		return nil, err
	}
	return query.New(s.Dialect(), e, query.WithLogger(s.logger)), nil
}

// Count returns the number of rows matching the query.
func (s *Session) Count(ctx context.Context, b *query.Builder) (int64, error) {
	st, err := b.Count()
	if err != nil {
		return 0, err
	}
	return s.exec.Count(ctx, st)
}

// Hydrate fills instance with the row holding its key. The key properties
// must be set; the other properties are overwritten and the instance starts
// tracking changes. Hydrate implements lazy.Hydrator.
func (s *Session) Hydrate(ctx context.Context, instance any, entity string) error {
	e, err := s.config.Entity(entity)
	if err != nil {
		return err
	}
	if e.PrimaryKey == nil {
		return goliath.NewMappingError(e.Name, "", "hydration requires a primary key")
	}
	keys := make([]any, len(e.PrimaryKey.Keys))
	for i, k := range e.PrimaryKey.Keys {
		if keys[i], err = e.Value(instance, k.PropertyName); err != nil {
			return err
		}
		if mapping.IsZeroKey(keys[i]) {
			return goliath.NewPreconditionError(e.QualifiedTable(), "hydration requires the key of the instance")
		}
	}
	st, err := query.New(s.Dialect(), e, query.WithLogger(s.logger)).ByKey(keys...)
	if err != nil {
		return err
	}
	rows, err := s.exec.Select(ctx, st)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return goliath.NewLookupError(e.Name, fmt.Sprint(keys...))
	}
	if err := st.Assign(instance, rows[0]); err != nil {
		return err
	}
	return Attach(e, instance)
}

// Lazy returns a reference to instance loaded through the session on first
// access. The key of instance must be set.
func Lazy[T any](s *Session, instance T) (*lazy.Value[T], error) {
	e, err := s.Entity(instance)
	if err != nil {
		return nil, err
	}
	return lazy.New(lazy.Hydrate[T](s, instance, e.Name)), nil
}

var _ lazy.Hydrator = (*Session)(nil)
