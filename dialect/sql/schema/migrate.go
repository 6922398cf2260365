package schema

import (
	"context"
	"errors"
	"log/slog"

	"ariga.io/atlas/sql/schema"

	"github.com/malweka/GoliathData-sub002/dialect"
	"github.com/malweka/GoliathData-sub002/dialect/sql"
	"github.com/malweka/GoliathData-sub002/mapping"
)

// MigrateOption configures a Migrate.
type MigrateOption func(*Migrate)

// WithSchemaName sets the database schema the tables are created in.
// Defaults to "public" on PostgreSQL and "main" on SQLite.
func WithSchemaName(name string) MigrateOption {
	return func(m *Migrate) {
		m.name = name
	}
}

// WithLogger sets the logger receiving the planned statements.
func WithLogger(l *slog.Logger) MigrateOption {
	return func(m *Migrate) {
		m.logger = l
	}
}

// Migrate creates the tables of a mapping configuration on a database.
// The statements are planned by atlas from MapConfig.ToAtlas and applied in
// one transaction.
type Migrate struct {
	drv    *sql.Driver
	name   string
	logger *slog.Logger
}

// NewMigrate returns a Migrate running on drv.
func NewMigrate(drv *sql.Driver, opts ...MigrateOption) *Migrate {
	m := &Migrate{drv: drv, logger: slog.Default()}
	switch drv.Dialect().Name() {
	case dialect.Postgres:
		m.name = "public"
	case dialect.SQLite:
		m.name = "main"
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Schema converts cfg into the atlas schema of the driver's dialect and
// validates it.
func (m *Migrate) Schema(cfg *mapping.MapConfig) (*schema.Schema, error) {
	s, err := cfg.ToAtlas(m.drv.Dialect(), m.name)
	if err != nil {
		return nil, err
	}
	if r := ValidateSchema(s); r.HasErrors() {
		return nil, errors.New("dialect/sql/schema: invalid schema:\n" + r.String())
	}
	return s, nil
}

// Plan returns the statements creating the tables of cfg.
func (m *Migrate) Plan(ctx context.Context, cfg *mapping.MapConfig) ([]string, error) {
	s, err := m.Schema(cfg)
	if err != nil {
		return nil, err
	}
	planner, err := mapping.OpenPlanner(m.drv.Dialect().Name(), m.drv.DB())
	if err != nil {
		return nil, err
	}
	return mapping.PlanCreate(ctx, planner, s)
}

// Create plans and applies the statements creating the tables of cfg.
func (m *Migrate) Create(ctx context.Context, cfg *mapping.MapConfig) error {
	stmts, err := m.Plan(ctx, cfg)
	if err != nil {
		return err
	}
	return m.drv.InTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range stmts {
			m.logger.DebugContext(ctx, "dialect/sql/schema: create", slog.String("sql", stmt))
			if _, err := tx.ExecuteNonQuery(ctx, stmt, nil); err != nil {
				return err
			}
		}
		return nil
	})
}
