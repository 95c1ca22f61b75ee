package database

import (
	"time"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/errs"
)

// Driver identifies the database engine.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// ParseDriver accepts the driver names used in config files and env vars.
func ParseDriver(s string) (Driver, error) {
	switch s {
	case "mysql", "mariadb", "":
		return DriverMySQL, nil
	case "postgres", "postgresql", "pgsql":
		return DriverPostgres, nil
	default:
		return "", errs.Newf(errs.ErrKindInvalidInput, "unsupported database driver %q", s)
	}
}

// Dialect returns the SQL dialect spoken by the driver.
func (d Driver) Dialect() Dialect {
	if d == DriverPostgres {
		return DialectPostgres
	}
	return DialectMySQL
}

// Config holds all settings needed to connect to and pool a database.
type Config struct {
	// Driver is the database engine (e.g. DriverMySQL).
	Driver Driver

	// DSN is the full data source name. When empty the driver builds one
	// from the discrete fields below.
	DSN string

	Host     string
	Port     int
	User     string
	Password string
	Database string // MySQL database / Postgres dbname
	Schema   string // Postgres search schema; defaults to "public"
	SSLMode  string // Postgres only

	// Pool tuning
	MaxConns        int32         // maximum number of connections in the pool
	MinConns        int32         // minimum number of idle connections kept alive
	MaxConnLifetime time.Duration // maximum time a connection may be reused
	MaxConnIdleTime time.Duration // maximum time a connection may sit idle

	// Timeouts
	ConnectTimeout time.Duration // time limit for establishing the connection
	QueryTimeout   time.Duration // per-query deadline applied by callers
}

// DefaultConfig returns pool settings sized for a diagnostics run: a handful
// of sequential queries over a single connection.
func DefaultConfig(driver Driver) *Config {
	return &Config{
		Driver:          driver,
		Host:            "localhost",
		MaxConns:        2,
		MinConns:        0,
		MaxConnLifetime: 30 * time.Minute,
		MaxConnIdleTime: 5 * time.Minute,
		ConnectTimeout:  10 * time.Second,
		QueryTimeout:    30 * time.Second,
	}
}
