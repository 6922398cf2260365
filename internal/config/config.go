// Package config loads the configuration of the goliath command from the
// environment, an optional .env file and command line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/malweka/GoliathData-sub002/dialect"
)

// Config holds the configuration of one command run.
type Config struct {
	// Mapping files. Empty selects the built-in zoo mapping.
	MapFiles []string

	// Database
	Dialect string
	DSN     string
	Schema  string

	// Logging
	LogLevel      string
	LogFile       string // empty logs to stderr
	LogMaxSize    int    // MB
	LogMaxBackups int
	LogMaxAge     int // days
	LogCompress   bool

	// Watch re-runs the command when a mapping file changes.
	Watch bool
}

// Environment variables read by Load.
const (
	EnvFile          = "GOLIATH_ENV_FILE"
	EnvMaps          = "GOLIATH_MAPS"
	EnvDialect       = "GOLIATH_DIALECT"
	EnvDSN           = "GOLIATH_DSN"
	EnvSchema        = "GOLIATH_SCHEMA"
	EnvLogLevel      = "GOLIATH_LOG_LEVEL"
	EnvLogFile       = "GOLIATH_LOG_FILE"
	EnvLogMaxSize    = "GOLIATH_LOG_MAX_SIZE"
	EnvLogMaxBackups = "GOLIATH_LOG_MAX_BACKUPS"
	EnvLogMaxAge     = "GOLIATH_LOG_MAX_AGE"
	EnvLogCompress   = "GOLIATH_LOG_COMPRESS"
)

func def() Config {
	return Config{
		Dialect:       dialect.SQLite,
		DSN:           ":memory:",
		LogLevel:      "info",
		LogMaxSize:    10,
		LogMaxBackups: 3,
		LogMaxAge:     28,
		LogCompress:   true,
	}
}

// env resolves variables from the process environment first and the .env
// file second. The process environment is never modified.
type env map[string]string

func loadEnv() (env, error) {
	path := ".env"
	if v, ok := os.LookupEnv(EnvFile); ok && strings.TrimSpace(v) != "" {
		path = v
	}
	vars, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return env{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return vars, nil
}

func (e env) get(k, fallback string) string {
	if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
		return v
	}
	if v, ok := e[k]; ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func (e env) getInt(k string, fallback int) int {
	v, err := strconv.Atoi(e.get(k, ""))
	if err != nil {
		return fallback
	}
	return v
}

func (e env) getBool(k string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(e.get(k, ""))) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return fallback
}

// Load reads the environment and registers the shared flags on flags with
// the environment values as defaults. The returned function validates the
// configuration once flags are parsed.
func Load(flags *flag.FlagSet) (*Config, func() error, error) {
	e, err := loadEnv()
	if err != nil {
		return nil, nil, err
	}
	cfg := def()
	cfg.Dialect = e.get(EnvDialect, cfg.Dialect)
	cfg.DSN = e.get(EnvDSN, cfg.DSN)
	cfg.Schema = e.get(EnvSchema, cfg.Schema)
	cfg.LogLevel = e.get(EnvLogLevel, cfg.LogLevel)
	cfg.LogFile = e.get(EnvLogFile, cfg.LogFile)
	cfg.LogMaxSize = e.getInt(EnvLogMaxSize, cfg.LogMaxSize)
	cfg.LogMaxBackups = e.getInt(EnvLogMaxBackups, cfg.LogMaxBackups)
	cfg.LogMaxAge = e.getInt(EnvLogMaxAge, cfg.LogMaxAge)
	cfg.LogCompress = e.getBool(EnvLogCompress, cfg.LogCompress)

	maps := flags.String("maps", e.get(EnvMaps, ""), "comma separated mapping files (empty = built-in zoo mapping)")
	flags.StringVar(&cfg.Dialect, "dialect", cfg.Dialect, "SQL dialect ("+strings.Join(dialect.Names(), ", ")+")")
	flags.StringVar(&cfg.DSN, "dsn", cfg.DSN, "database connection string")
	flags.StringVar(&cfg.Schema, "schema", cfg.Schema, "database schema name")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "log file, rotated (empty = stderr)")
	flags.BoolVar(&cfg.Watch, "watch", false, "re-run when a mapping file changes")

	validate := func() error {
		cfg.MapFiles = splitList(*maps)
		cfg.Dialect = strings.ToLower(strings.TrimSpace(cfg.Dialect))
		return cfg.Validate()
	}
	return &cfg, validate, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if _, err := DriverName(c.Dialect); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.Watch && len(c.MapFiles) == 0 {
		return errors.New("config: -watch requires mapping files")
	}
	return nil
}

// DriverName returns the database/sql driver registered for a dialect.
func DriverName(d string) (string, error) {
	switch d {
	case dialect.SQLServer:
		return "sqlserver", nil
	case dialect.Postgres:
		return "postgres", nil
	case dialect.MySQL:
		return "mysql", nil
	case dialect.SQLite:
		return "sqlite", nil
	}
	return "", fmt.Errorf("config: unknown dialect %q", d)
}

func splitList(s string) []string {
	var list []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			list = append(list, p)
		}
	}
	return list
}
