package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"strings"

	"github.com/malweka/GoliathData-sub002/dialect"
	"github.com/malweka/GoliathData-sub002/dialect/sql"
	sqlschema "github.com/malweka/GoliathData-sub002/dialect/sql/schema"
	"github.com/malweka/GoliathData-sub002/internal/config"
	"github.com/malweka/GoliathData-sub002/mapping"
)

var schemaCmd = command{
	usage: "plan or apply the tables of the mapping, or check a mapping change",
	flags: func(fs *flag.FlagSet) func(context.Context, *env) error {
		var (
			apply     = fs.Bool("apply", false, "create the tables on the database")
			diff      = fs.String("diff", "", "comma separated mapping files of the previous revision to check the change against")
			allowDrop = fs.Bool("allow-drop", false, "report dropped tables, columns and indexes as warnings")
		)
		return func(ctx context.Context, e *env) error {
			cfg, err := e.load()
			if err != nil {
				return err
			}
			if *diff != "" {
				previous := strings.Split(*diff, ",")
				for i := range previous {
					previous[i] = strings.TrimSpace(previous[i])
				}
				return checkDiff(e, cfg, previous, *allowDrop)
			}
			return plan(ctx, e, cfg, *apply)
		}
	},
}

func plan(ctx context.Context, e *env, cfg *mapping.MapConfig, apply bool) (rerr error) {
	driverName, err := config.DriverName(e.cfg.Dialect)
	if err != nil {
		return err
	}
	drv, stats, err := sql.OpenWithStats(e.cfg.Dialect, driverName, e.cfg.DSN, sql.WithSlowQueryLog(e.logger))
	if err != nil {
		return err
	}
	defer func() {
		e.logger.Debug("database stats", slog.String("stats", stats.Stats().String()))
		rerr = errors.Join(rerr, drv.Close())
	}()
	opts := []sqlschema.MigrateOption{sqlschema.WithLogger(e.logger)}
	if e.cfg.Schema != "" {
		opts = append(opts, sqlschema.WithSchemaName(e.cfg.Schema))
	}
	m := sqlschema.NewMigrate(drv, opts...)
	stmts, err := m.Plan(ctx, cfg)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		fmt.Fprintf(e.out, "%s;\n", stmt)
	}
	if !apply {
		return nil
	}
	if err := m.Create(ctx, cfg); err != nil {
		return err
	}
	e.logger.Info("tables created", slog.Int("statements", len(stmts)), slog.String("dialect", e.cfg.Dialect))
	return nil
}

func checkDiff(e *env, cfg *mapping.MapConfig, previous []string, allowDrop bool) error {
	old, err := mapping.LoadFiles(previous...)
	if err != nil {
		return err
	}
	d, err := dialect.Get(e.cfg.Dialect)
	if err != nil {
		return err
	}
	current, err := old.ToAtlas(d, e.cfg.Schema)
	if err != nil {
		return err
	}
	desired, err := cfg.ToAtlas(d, e.cfg.Schema)
	if err != nil {
		return err
	}
	var opts []sqlschema.ValidateOption
	if allowDrop {
		opts = append(opts, sqlschema.AllowDropTable(), sqlschema.AllowDropColumn(), sqlschema.AllowDropIndex())
	}
	result := sqlschema.ValidateDiff(current, desired, opts...)
	fmt.Fprintln(e.out, result)
	if result.HasErrors() {
		return errors.New("mapping change is not safe to apply")
	}
	return nil
}
