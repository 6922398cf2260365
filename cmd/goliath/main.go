// goliath inspects mapping files: it validates them, renders the SQL the
// engine builds for an entity and plans or applies the tables they map.
//
//	goliath validate -maps zoo.yml
//	goliath render -maps zoo.yml -dialect postgres -entity Monkey -key 7
//	goliath schema -dialect sqlite -dsn file:zoo.db -apply
//	goliath schema -maps v2.yml -diff v1.yml
//
// Without -maps the commands run on the built-in zoo mapping.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"github.com/malweka/GoliathData-sub002/internal/config"
	"github.com/malweka/GoliathData-sub002/internal/zoo"
	"github.com/malweka/GoliathData-sub002/mapping"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "goliath: %v\n", err)
		}
		os.Exit(1)
	}
}

// command is a subcommand. flags registers its own flags; the returned
// function runs it once the flags are parsed.
type command struct {
	usage string
	flags func(fs *flag.FlagSet) func(ctx context.Context, e *env) error
}

var commands = map[string]command{
	"validate": validateCmd,
	"render":   renderCmd,
	"schema":   schemaCmd,
}

// env is what every command runs with.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
}

// load reads the mapping files of the configuration.
func (e *env) load() (*mapping.MapConfig, error) {
	if len(e.cfg.MapFiles) == 0 {
		return zoo.Config()
	}
	return mapping.LoadFiles(e.cfg.MapFiles...)
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		usage(out)
		return flag.ErrHelp
	}
	cmd, ok := commands[args[0]]
	if !ok {
		usage(out)
		return fmt.Errorf("unknown command %q", args[0])
	}
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(out)
	cfg, validate, err := config.Load(fs)
	if err != nil {
		return err
	}
	exec := cmd.flags(fs)
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if err := validate(); err != nil {
		return err
	}
	logger, closer, err := cfg.Logger()
	if err != nil {
		return err
	}
	defer closer.Close()
	e := &env{cfg: cfg, logger: logger, out: out}
	if cfg.Watch {
		return watch(ctx, cfg.MapFiles, logger, func() error { return exec(ctx, e) })
	}
	return exec(ctx, e)
}

func usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "usage: goliath <command> [flags]")
	fmt.Fprintln(w, "\ncommands:")
	for _, name := range names {
		fmt.Fprintf(w, "  %-9s %s\n", name, commands[name].usage)
	}
}
