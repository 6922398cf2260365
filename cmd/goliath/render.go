package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/malweka/GoliathData-sub002/dialect"
	"github.com/malweka/GoliathData-sub002/mapping"
	"github.com/malweka/GoliathData-sub002/query"
	"github.com/malweka/GoliathData-sub002/statement"
)

var renderCmd = command{
	usage: "print the statements built for an entity",
	flags: func(fs *flag.FlagSet) func(context.Context, *env) error {
		var (
			entity = fs.String("entity", "", "entity name (empty = every entity)")
			key    = fs.String("key", "", "key value for the by-key select, update and delete")
			limit  = fs.Int("limit", 0, "page size of the select")
			offset = fs.Int("offset", 0, "page offset of the select")
		)
		return func(_ context.Context, e *env) error {
			cfg, err := e.load()
			if err != nil {
				return err
			}
			d, err := dialect.Get(e.cfg.Dialect)
			if err != nil {
				return err
			}
			r := &renderer{dialect: d, out: e.out, key: parseKey(*key), limit: *limit, offset: *offset}
			if *entity != "" {
				em, err := cfg.Entity(*entity)
				if err != nil {
					return err
				}
				return r.entity(em)
			}
			for _, em := range cfg.Entities() {
				if err := r.entity(em); err != nil {
					return err
				}
			}
			return nil
		}
	},
}

type renderer struct {
	dialect       *dialect.Dialect
	out           io.Writer
	key           any
	limit, offset int
}

func (r *renderer) entity(e *mapping.EntityMap) error {
	fmt.Fprintf(r.out, "-- %s (%s)\n", e.Name, r.dialect.Name())
	st, err := query.New(r.dialect, e).Page(r.limit, r.offset).Build()
	if err != nil {
		return err
	}
	r.query("select", st, nil)
	st, err = query.New(r.dialect, e).Count()
	r.query("count", st, err)
	list, err := statement.NewInsert(r.dialect, e, map[string]any{}).Build()
	r.list("insert", list, err)
	if r.key == nil || e.PrimaryKey == nil {
		return nil
	}
	st, err = query.New(r.dialect, e).ByKey(r.key)
	r.query("by key", st, err)
	instance, err := r.instance(e)
	if err != nil {
		return err
	}
	list, err = statement.NewUpdate(r.dialect, e, instance).WhereKey().Build()
	r.list("update", list, err)
	list, err = statement.NewDelete(r.dialect, e, instance).Build()
	r.list("delete", list, err)
	return nil
}

// instance returns a map instance holding the key along the inheritance
// chain of e.
func (r *renderer) instance(e *mapping.EntityMap) (map[string]any, error) {
	chain, err := e.Ancestors()
	if err != nil {
		return nil, err
	}
	instance := make(map[string]any)
	for _, m := range append(chain, e) {
		if m.PrimaryKey == nil {
			continue
		}
		for _, k := range m.PrimaryKey.Keys {
			instance[k.PropertyName] = r.key
		}
	}
	return instance, nil
}

// Statements an entity cannot have, like an update of a table holding only
// its key, are reported in place.
func (r *renderer) query(title string, st *query.Statement, err error) {
	if err != nil {
		fmt.Fprintf(r.out, "-- %s: %v\n", title, err)
		return
	}
	fmt.Fprintf(r.out, "-- %s\n%s;\n", title, st.SQL)
	r.params(st.Parameters)
}

func (r *renderer) list(title string, list *statement.OperationList, err error) {
	if err != nil {
		fmt.Fprintf(r.out, "-- %s: %v\n", title, err)
		return
	}
	fmt.Fprintf(r.out, "-- %s\n", title)
	for _, op := range list.Flatten() {
		fmt.Fprintf(r.out, "%s;\n", op.SQL())
		r.params(op.Parameters())
	}
}

func (r *renderer) params(params []dialect.Parameter) {
	if len(params) == 0 {
		return
	}
	parts := make([]string, len(params))
	for i, p := range params {
		v := p.Value
		if _, ok := v.(dialect.Deferred); ok {
			v = "<deferred>"
		}
		parts[i] = fmt.Sprintf("%s=%v", r.dialect.CreateParameterName(p.Name), v)
	}
	fmt.Fprintf(r.out, "--   %s\n", strings.Join(parts, " "))
}

func parseKey(s string) any {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return s
}
