package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/malweka/GoliathData-sub002/dialect"
	sqlschema "github.com/malweka/GoliathData-sub002/dialect/sql/schema"
)

var validateCmd = command{
	usage: "check the mapping files and the tables they map",
	flags: func(*flag.FlagSet) func(context.Context, *env) error {
		return func(_ context.Context, e *env) error {
			cfg, err := e.load()
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "%d entities\n", cfg.Len())
			result := cfg.Validate()
			fmt.Fprintln(e.out, result.String())
			if result.HasErrors() {
				return errors.New("invalid mapping")
			}
			d, err := dialect.Get(e.cfg.Dialect)
			if err != nil {
				return err
			}
			s, err := cfg.ToAtlas(d, e.cfg.Schema)
			if err != nil {
				return err
			}
			tables := sqlschema.ValidateSchema(s)
			fmt.Fprintf(e.out, "%s tables:\n%s\n", d.Name(), tables)
			if tables.HasErrors() {
				return errors.New("invalid tables")
			}
			return nil
		}
	},
}
